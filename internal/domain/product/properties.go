// Package product holds the declared ERP properties of a product: the
// brand, category and size attributes keyed by article. Properties arrive
// through the operations API, not from the ERP stock feed, which only
// carries names and quantities.
package product

import (
	"strings"
	"time"

	"github.com/marketsync/backend/internal/domain/shared"
)

// Properties is the declared attribute set for one article within a store.
// Brand and Category are stored lowercase; sync flows skip stock lines whose
// article has no properties row or whose required fields are blank.
type Properties struct {
	Store   string `gorm:"type:varchar(64);not null;primaryKey"`
	Article string `gorm:"type:varchar(64);not null;primaryKey"`

	Brand    string `gorm:"type:varchar(64);not null"`
	Category string `gorm:"type:varchar(64);not null"`
	// MemorySize and RAMSize are declared hints for reconciliation and may
	// be empty for categories without a size axis.
	MemorySize string `gorm:"type:varchar(32)"`
	RAMSize    string `gorm:"type:varchar(32)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (Properties) TableName() string {
	return "product_properties"
}

// New creates a properties row with normalized brand and category.
func New(store, article, brand, category string) (*Properties, error) {
	if store == "" {
		return nil, shared.NewDomainError("INVALID_STORE", "Store cannot be empty")
	}
	if article == "" {
		return nil, shared.NewDomainError("INVALID_ARTICLE", "Article cannot be empty")
	}
	if brand == "" {
		return nil, shared.NewDomainError("INVALID_BRAND", "Brand cannot be empty")
	}
	if category == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category cannot be empty")
	}
	now := time.Now()
	return &Properties{
		Store:     store,
		Article:   article,
		Brand:     normalize(brand),
		Category:  normalize(category),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsComplete reports whether the row carries everything a sync flow needs
// to hand the article to reconciliation.
func (p *Properties) IsComplete() bool {
	return p.Article != "" && p.Brand != "" && p.Category != ""
}

// SetSizes records the declared memory and RAM hints.
func (p *Properties) SetSizes(memorySize, ramSize string) {
	p.MemorySize = strings.TrimSpace(memorySize)
	p.RAMSize = strings.TrimSpace(ramSize)
	p.UpdatedAt = time.Now()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
