package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/marketsync/backend/internal/domain/run"
)

// GormRunRepository implements run.Repository using GORM
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// Save creates or updates a run
func (r *GormRunRepository) Save(ctx context.Context, sr *run.Run) error {
	return r.db.WithContext(ctx).Save(sr).Error
}

// FindRecent returns the most recent runs for a store, newest first
func (r *GormRunRepository) FindRecent(ctx context.Context, store string, limit int) ([]run.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []run.Run
	if err := r.db.WithContext(ctx).
		Where("store = ?", store).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

var _ run.Repository = (*GormRunRepository)(nil)
