// Package listing holds the local mapping between ERP articles and
// marketplace listings. A listing is staged locally first; the marketplace
// id arrives later, once the marketplace confirms publication.
package listing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Listing is the mapping entry plus the staged card fields, keyed by
// (store, article). MarketplaceID stays nil until publication is confirmed.
type Listing struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Store         string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_listing_store_article,priority:1"`
	Article       string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_listing_store_article,priority:2"`
	MarketplaceID *string   `gorm:"type:varchar(64);index"`

	Title      string          `gorm:"type:varchar(200);not null"`
	Price      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Vendor     string          `gorm:"type:varchar(64);not null"`
	Model      string          `gorm:"type:varchar(128)"`
	MemorySize string          `gorm:"type:varchar(32)"`
	RAMSize    string          `gorm:"type:varchar(32)"`
	Color      string          `gorm:"type:varchar(64)"`
	GoodsType  string          `gorm:"type:varchar(64);not null"`
	Category   string          `gorm:"type:varchar(64);not null"`

	// Category-specific extras; empty when the category does not use them.
	ProductType    string `gorm:"type:varchar(64)"`
	ProductSubType string `gorm:"type:varchar(64)"`
	Gender         string `gorm:"type:varchar(32)"`
	StrapType      string `gorm:"type:varchar(32)"`

	// ImageURLs is a pipe-joined list of hosted image URLs.
	ImageURLs string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (Listing) TableName() string {
	return "listings"
}

// New creates a staged listing with no marketplace id yet.
func New(store, article string) (*Listing, error) {
	if store == "" {
		return nil, shared.NewDomainError("INVALID_STORE", "Store cannot be empty")
	}
	if article == "" {
		return nil, shared.NewDomainError("INVALID_ARTICLE", "Article cannot be empty")
	}
	now := time.Now()
	return &Listing{
		ID:        uuid.New(),
		Store:     store,
		Article:   article,
		Price:     decimal.Zero,
		Quantity:  decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsPublished reports whether the marketplace has confirmed the listing.
func (l *Listing) IsPublished() bool {
	return l.MarketplaceID != nil && *l.MarketplaceID != ""
}

// Publish records the marketplace-assigned id.
func (l *Listing) Publish(marketplaceID string) error {
	if marketplaceID == "" {
		return shared.NewDomainError("INVALID_MARKETPLACE_ID", "Marketplace id cannot be empty")
	}
	l.MarketplaceID = &marketplaceID
	l.UpdatedAt = time.Now()
	return nil
}

// UpdatePrice sets a new local price.
func (l *Listing) UpdatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	l.Price = price
	l.UpdatedAt = time.Now()
	return nil
}

// UpdateQuantity sets a new local stock quantity.
func (l *Listing) UpdateQuantity(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	l.Quantity = quantity
	l.UpdatedAt = time.Now()
	return nil
}

// SetImageURLs stores the hosted image URLs.
func (l *Listing) SetImageURLs(urls []string) {
	l.ImageURLs = strings.Join(urls, "|")
	l.UpdatedAt = time.Now()
}

// ImageURLList splits the stored image URLs back into a slice.
func (l *Listing) ImageURLList() []string {
	if l.ImageURLs == "" {
		return nil
	}
	return strings.Split(l.ImageURLs, "|")
}
