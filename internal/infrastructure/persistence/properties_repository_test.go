package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsync/backend/internal/domain/product"
	"github.com/marketsync/backend/internal/domain/shared"
)

func stageProperties(t *testing.T, store, article, brand, category string) *product.Properties {
	t.Helper()
	p, err := product.New(store, article, brand, category)
	require.NoError(t, err)
	return p
}

func TestPropertiesRepositorySaveAndFind(t *testing.T) {
	repo := NewGormPropertiesRepository(newTestDB(t))
	ctx := context.Background()

	p := stageProperties(t, "store-1", "A-001", "Apple", "Смартфон")
	p.SetSizes("128GB", "")
	require.NoError(t, repo.Save(ctx, p))

	found, err := repo.FindByArticle(ctx, "store-1", "A-001")
	require.NoError(t, err)
	assert.Equal(t, "apple", found.Brand)
	assert.Equal(t, "смартфон", found.Category)
	assert.Equal(t, "128GB", found.MemorySize)
	assert.Empty(t, found.RAMSize)
}

func TestPropertiesRepositoryUpsertReplaces(t *testing.T) {
	repo := NewGormPropertiesRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, stageProperties(t, "store-1", "A-001", "Apple", "Смартфон")))

	updated := stageProperties(t, "store-1", "A-001", "Samsung", "Смартфон")
	updated.SetSizes("256GB", "8GB")
	require.NoError(t, repo.Save(ctx, updated))

	found, err := repo.FindByArticle(ctx, "store-1", "A-001")
	require.NoError(t, err)
	assert.Equal(t, "samsung", found.Brand)
	assert.Equal(t, "8GB", found.RAMSize)
}

func TestPropertiesRepositoryFindByStore(t *testing.T) {
	repo := NewGormPropertiesRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveBatch(ctx, []product.Properties{
		*stageProperties(t, "store-1", "A-001", "Apple", "Смартфон"),
		*stageProperties(t, "store-1", "A-002", "Samsung", "Смартфон"),
		*stageProperties(t, "store-2", "A-003", "Xiaomi", "Планшет"),
	}))

	byArticle, err := repo.FindByStore(ctx, "store-1")
	require.NoError(t, err)
	require.Len(t, byArticle, 2)
	assert.Equal(t, "apple", byArticle["A-001"].Brand)
	assert.Equal(t, "samsung", byArticle["A-002"].Brand)
	assert.NotContains(t, byArticle, "A-003")
}

func TestPropertiesRepositoryFindMissing(t *testing.T) {
	repo := NewGormPropertiesRepository(newTestDB(t))

	_, err := repo.FindByArticle(context.Background(), "store-1", "A-404")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPropertiesRepositorySaveBatchEmpty(t *testing.T) {
	repo := NewGormPropertiesRepository(newTestDB(t))
	assert.NoError(t, repo.SaveBatch(context.Background(), nil))
}
