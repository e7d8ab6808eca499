package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketsync/backend/internal/domain/product"
	"github.com/marketsync/backend/internal/domain/shared"
)

// GormPropertiesRepository implements product.Repository using GORM
type GormPropertiesRepository struct {
	db *gorm.DB
}

// NewGormPropertiesRepository creates a new GormPropertiesRepository
func NewGormPropertiesRepository(db *gorm.DB) *GormPropertiesRepository {
	return &GormPropertiesRepository{db: db}
}

// FindByArticle finds the properties row for an article within a store
func (r *GormPropertiesRepository) FindByArticle(ctx context.Context, store, article string) (*product.Properties, error) {
	var p product.Properties
	if err := r.db.WithContext(ctx).
		Where("store = ? AND article = ?", store, article).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByStore returns all properties rows for a store keyed by article
func (r *GormPropertiesRepository) FindByStore(ctx context.Context, store string) (map[string]product.Properties, error) {
	var rows []product.Properties
	if err := r.db.WithContext(ctx).
		Where("store = ?", store).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	byArticle := make(map[string]product.Properties, len(rows))
	for _, p := range rows {
		byArticle[p.Article] = p
	}
	return byArticle, nil
}

// Save creates or updates a properties row, keyed by (store, article)
func (r *GormPropertiesRepository) Save(ctx context.Context, p *product.Properties) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store"}, {Name: "article"}},
			UpdateAll: true,
		}).
		Create(p).Error
}

// SaveBatch upserts many rows in one transaction
func (r *GormPropertiesRepository) SaveBatch(ctx context.Context, rows []product.Properties) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store"}, {Name: "article"}},
			UpdateAll: true,
		}).CreateInBatches(rows, 500).Error
	})
}

var _ product.Repository = (*GormPropertiesRepository)(nil)
