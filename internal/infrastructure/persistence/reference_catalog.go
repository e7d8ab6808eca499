package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/shared"
)

// ReferenceRow is the stored form of a reference catalog entry. The table is
// replaced wholesale when a new marketplace feed is imported.
type ReferenceRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Vendor     string `gorm:"type:varchar(64);not null;index"`
	Model      string `gorm:"type:varchar(128);not null"`
	MemorySize string `gorm:"type:varchar(32);not null"`
	RAMSize    string `gorm:"type:varchar(64)"`
	Color      string `gorm:"type:varchar(64);not null"`
	CreatedAt  time.Time
}

// TableName returns the table name for GORM
func (ReferenceRow) TableName() string {
	return "reference_entries"
}

// GormReferenceCatalog implements catalog.ReferenceCatalog using GORM.
// Filtering matches the in-memory catalog: case-insensitive equality on
// vendor, model, memory and color, substring on the RAM set column. Results
// come back ordered by the full attribute tuple.
type GormReferenceCatalog struct {
	db *gorm.DB
}

// NewGormReferenceCatalog creates a new GormReferenceCatalog
func NewGormReferenceCatalog(db *gorm.DB) *GormReferenceCatalog {
	return &GormReferenceCatalog{db: db}
}

// Query returns every entry matching the filter, in stable tuple order
func (c *GormReferenceCatalog) Query(ctx context.Context, f catalog.ReferenceFilter) ([]catalog.ReferenceEntry, error) {
	q := c.db.WithContext(ctx).Model(&ReferenceRow{})

	if f.Vendor != "" {
		q = q.Where("LOWER(vendor) = ?", catalog.Fold(f.Vendor))
	}
	if f.Model != "" {
		q = q.Where("LOWER(model) = ?", catalog.Fold(f.Model))
	}
	if f.MemorySize != "" {
		q = q.Where("LOWER(memory_size) = ?", catalog.Fold(f.MemorySize))
	}
	if f.RAMSizeHas != "" {
		q = q.Where("LOWER(ram_size) LIKE ?", "%"+catalog.Fold(f.RAMSizeHas)+"%")
	}
	if f.Color != "" {
		q = q.Where("LOWER(color) = ?", catalog.Fold(f.Color))
	}

	var rows []ReferenceRow
	if err := q.Order("vendor, model, memory_size, ram_size, color").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}

	entries := make([]catalog.ReferenceEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, catalog.ReferenceEntry{
			Vendor:     row.Vendor,
			Model:      row.Model,
			MemorySize: row.MemorySize,
			RAMSize:    row.RAMSize,
			Color:      row.Color,
		})
	}
	return entries, nil
}

// Replace swaps the whole reference table for a freshly imported feed.
func (c *GormReferenceCatalog) Replace(ctx context.Context, entries []catalog.ReferenceEntry) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ReferenceRow{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		rows := make([]ReferenceRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, ReferenceRow{
				Vendor:     e.Vendor,
				Model:      e.Model,
				MemorySize: e.MemorySize,
				RAMSize:    e.RAMSize,
				Color:      e.Color,
			})
		}
		return tx.CreateInBatches(rows, 500).Error
	})
}

var _ catalog.ReferenceCatalog = (*GormReferenceCatalog)(nil)
