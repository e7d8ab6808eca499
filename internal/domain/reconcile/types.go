// Package reconcile implements the catalog reconciliation engine: it takes a
// raw ERP stock line and resolves it to a canonical marketplace listing
// identity (vendor, model, memory, RAM, color) by fuzzy matching against the
// reference catalog, then assembles the normalized listing payload.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Brand families with special handling in the normalizer and filter chain.
const (
	// BrandApple has no independent RAM axis in the reference catalog.
	BrandApple = "apple"
	// BrandSamsung names carry a redundant line-prefix token before the model.
	BrandSamsung = "samsung"
)

// Product categories as declared by the ERP property table.
const (
	CategorySmartphone          = "смартфон"
	CategorySmartwatch          = "умные часы"
	CategoryWirelessHeadphones  = "беспроводные наушники"
	CategoryFullSizeHeadphones  = "полноразмерные наушники"
	CategoryTablet              = "планшет"
	CategoryGamepad             = "геймпад"
	CategoryConsole             = "игровая консоль"
	CategoryHairDryer           = "фен"
	CategoryHairStyler          = "фен-стайлер"
)

// InventoryRecord is one ERP stock line. The snapshot handed to the driver
// is already deduplicated by the caller on (name, article, price, brand,
// memory, color).
type InventoryRecord struct {
	// Article is the SKU, unique per store; the join key for mapping.
	Article     string
	DisplayName string
	Price       decimal.Decimal
	// Brand is the declared brand, lowercase-normalized.
	Brand          string
	DeclaredMemory string
	// DeclaredRAM may be empty; removal and RAM filtering then no-op.
	DeclaredRAM string
	Quantity    decimal.Decimal
	// Category is the declared product type, e.g. CategorySmartphone.
	Category string
}

// SearchKey is the normalizer output: per-attribute lookup keys extracted
// from the free-text display name, both lowercase.
type SearchKey struct {
	NameModel      string
	ColorCandidate string
}

// ResolvedAttributes is the per-record working state, filled left to right
// by the filter chain. A record is abandoned the moment any attribute fails
// to resolve; partial tuples are never emitted.
type ResolvedAttributes struct {
	Brand  string
	Memory string
	RAM    string
	Model  string
	Color  string
}

// ListingPayload is the assembled output record, ready for marketplace
// submission. Every field the marketplace considers mandatory for the
// payload's category must be populated; incompleteness here is a rejection
// signal, not a malformed payload.
type ListingPayload struct {
	Title      string          `validate:"required"`
	Article    string          `validate:"required"`
	Price      decimal.Decimal `validate:"required"`
	Vendor     string          `validate:"required"`
	Model      string
	MemorySize string
	RAMSize    string
	Color      string `validate:"required"`
	GoodsType  string `validate:"required"`
	Category   string `validate:"required"`

	// Category-specific extras (smartwatches).
	ProductType    string
	ProductSubType string
	Gender         string
	StrapType      string

	ImageURLs []string
}

// RejectionError marks a record-level, expected failure: the record is
// dropped and logged, the batch continues. Infrastructure faults are plain
// errors and abort the whole batch instead.
type RejectionError struct {
	Article   string
	Attribute string
	Query     string
	Step      int
	Reason    string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("record %s rejected at step %d (%s=%q): %s",
		e.Article, e.Step, e.Attribute, e.Query, e.Reason)
}

// Rejection is one dropped record inside a batch report.
type Rejection struct {
	Article   string `json:"article"`
	Attribute string `json:"attribute"`
	Reason    string `json:"reason"`
}

// BatchReport summarizes a reconciliation batch for operator visibility.
type BatchReport struct {
	Total      int         `json:"total"`
	Assembled  int         `json:"assembled"`
	Rejected   int         `json:"rejected"`
	Rejections []Rejection `json:"rejections"`
}
