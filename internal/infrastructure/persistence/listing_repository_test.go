package persistence

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsync/backend/internal/domain/listing"
	"github.com/marketsync/backend/internal/domain/shared"
)

func stageListing(t *testing.T, repo *GormListingRepository, store, article, title string) *listing.Listing {
	t.Helper()

	l, err := listing.New(store, article)
	require.NoError(t, err)
	l.Title = title
	l.Price = decimal.NewFromInt(1000)
	l.Vendor = "apple"
	l.GoodsType = "Мобильные телефоны"
	l.Category = "Телефоны"
	require.NoError(t, repo.Save(context.Background(), l))
	return l
}

func TestListingRepositorySaveAndFind(t *testing.T) {
	repo := NewGormListingRepository(newTestDB(t))
	stageListing(t, repo, "store-1", "A-001", "Apple iPhone 13 128GB/4GB Blue")

	found, err := repo.FindByArticle(context.Background(), "store-1", "A-001")
	require.NoError(t, err)
	assert.Equal(t, "Apple iPhone 13 128GB/4GB Blue", found.Title)
	assert.False(t, found.IsPublished())

	_, err = repo.FindByArticle(context.Background(), "store-1", "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListingRepositorySaveUpsertsOnStoreArticle(t *testing.T) {
	repo := NewGormListingRepository(newTestDB(t))
	stageListing(t, repo, "store-1", "A-001", "old title")

	// A second save with the same key replaces the staged card.
	second, err := listing.New("store-1", "A-001")
	require.NoError(t, err)
	second.Title = "new title"
	second.Price = decimal.NewFromInt(2000)
	second.Vendor = "apple"
	second.GoodsType = "Мобильные телефоны"
	second.Category = "Телефоны"
	require.NoError(t, repo.Save(context.Background(), second))

	all, err := repo.FindAllByStore(context.Background(), "store-1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "new title", all[0].Title)
}

func TestListingRepositoryStoresAreIsolated(t *testing.T) {
	repo := NewGormListingRepository(newTestDB(t))
	stageListing(t, repo, "store-1", "A-001", "t1")
	stageListing(t, repo, "store-2", "A-001", "t2")

	articles, err := repo.ExistingArticles(context.Background(), "store-1")
	require.NoError(t, err)
	assert.Len(t, articles, 1)
	_, ok := articles["A-001"]
	assert.True(t, ok)
}

func TestListingRepositoryFindUnpublished(t *testing.T) {
	repo := NewGormListingRepository(newTestDB(t))
	stageListing(t, repo, "store-1", "A-001", "staged")
	published := stageListing(t, repo, "store-1", "A-002", "published")

	require.NoError(t, published.Publish("mp-42"))
	require.NoError(t, repo.Save(context.Background(), published))

	pending, err := repo.FindUnpublished(context.Background(), "store-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "A-001", pending[0].Article)

	found, err := repo.FindByArticle(context.Background(), "store-1", "A-002")
	require.NoError(t, err)
	assert.True(t, found.IsPublished())
	assert.Equal(t, "mp-42", *found.MarketplaceID)
}

func TestListingRepositoryUpdates(t *testing.T) {
	repo := NewGormListingRepository(newTestDB(t))
	stageListing(t, repo, "store-1", "A-001", "t")

	require.NoError(t, repo.UpdatePrice(context.Background(), "store-1", "A-001", decimal.NewFromInt(59990)))
	require.NoError(t, repo.UpdateQuantity(context.Background(), "store-1", "A-001", decimal.NewFromInt(3)))

	found, err := repo.FindByArticle(context.Background(), "store-1", "A-001")
	require.NoError(t, err)
	assert.True(t, found.Price.Equal(decimal.NewFromInt(59990)))
	assert.True(t, found.Quantity.Equal(decimal.NewFromInt(3)))
}

func TestListingRepositoryUpdateMissingArticle(t *testing.T) {
	repo := NewGormListingRepository(newTestDB(t))

	err := repo.UpdatePrice(context.Background(), "store-1", "missing", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
