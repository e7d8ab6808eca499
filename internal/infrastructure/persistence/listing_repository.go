package persistence

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketsync/backend/internal/domain/listing"
	"github.com/marketsync/backend/internal/domain/shared"
)

// GormListingRepository implements listing.Repository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByArticle finds a listing by its article within a store
func (r *GormListingRepository) FindByArticle(ctx context.Context, store, article string) (*listing.Listing, error) {
	var l listing.Listing
	if err := r.db.WithContext(ctx).
		Where("store = ? AND article = ?", store, article).
		First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// FindAllByStore finds all listings for a store
func (r *GormListingRepository) FindAllByStore(ctx context.Context, store string) ([]listing.Listing, error) {
	var listings []listing.Listing
	if err := r.db.WithContext(ctx).
		Where("store = ?", store).
		Order("article").
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// FindUnpublished finds all listings still waiting for a marketplace id
func (r *GormListingRepository) FindUnpublished(ctx context.Context, store string) ([]listing.Listing, error) {
	var listings []listing.Listing
	if err := r.db.WithContext(ctx).
		Where("store = ? AND (marketplace_id IS NULL OR marketplace_id = '')", store).
		Order("article").
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// ExistingArticles returns the set of articles already staged for a store
func (r *GormListingRepository) ExistingArticles(ctx context.Context, store string) (map[string]struct{}, error) {
	var articles []string
	if err := r.db.WithContext(ctx).
		Model(&listing.Listing{}).
		Where("store = ?", store).
		Pluck("article", &articles).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		set[a] = struct{}{}
	}
	return set, nil
}

// Save creates or updates a listing, keyed by (store, article)
func (r *GormListingRepository) Save(ctx context.Context, l *listing.Listing) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store"}, {Name: "article"}},
			UpdateAll: true,
		}).
		Create(l).Error
}

// UpdatePrice updates the local price for an article
func (r *GormListingRepository) UpdatePrice(ctx context.Context, store, article string, price decimal.Decimal) error {
	return r.update(ctx, store, article, map[string]any{"price": price})
}

// UpdateQuantity updates the local stock quantity for an article
func (r *GormListingRepository) UpdateQuantity(ctx context.Context, store, article string, quantity decimal.Decimal) error {
	return r.update(ctx, store, article, map[string]any{"quantity": quantity})
}

func (r *GormListingRepository) update(ctx context.Context, store, article string, values map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&listing.Listing{}).
		Where("store = ? AND article = ?", store, article).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ listing.Repository = (*GormListingRepository)(nil)
