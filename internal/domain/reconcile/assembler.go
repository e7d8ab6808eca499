package reconcile

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/marketsync/backend/internal/domain/catalog"
	"github.com/marketsync/backend/internal/domain/shared"
)

// Marketplace constants per product category. The marketplace requires these
// exact values in the listing feed.
const (
	goodsTypePhones     = "Мобильные телефоны"
	categoryPhones      = "Телефоны"
	goodsTypeWatches    = "Часы"
	categoryWatches     = "Часы и украшения"
	goodsTypeHeadphones = "Наушники"
	categoryHeadphones  = "Аудио и видео"

	watchProductType    = "Смарт-часы или браслет"
	watchProductSubType = "Смарт-часы"
	watchGender         = "Унисекс"
	watchStrapType      = "Силикон"
)

// cardBuilder assembles a listing payload for one product category.
type cardBuilder interface {
	// requiresResolution reports whether the category needs the full fuzzy
	// attribute resolution, or builds directly from the raw record.
	requiresResolution() bool
	build(rec InventoryRecord, attrs *ResolvedAttributes, rows []catalog.ReferenceEntry) (*ListingPayload, error)
}

// Assembler combines a resolved attribute tuple with inventory fields into
// the canonical listing payload the marketplace expects. Categories without
// a builder yield shared.ErrUnsupportedCategory.
type Assembler struct {
	validate *validator.Validate
	builders map[string]cardBuilder
}

// NewAssembler creates an assembler with the known category builders.
func NewAssembler() *Assembler {
	return &Assembler{
		validate: validator.New(),
		builders: map[string]cardBuilder{
			CategorySmartphone:         smartphoneBuilder{},
			CategorySmartwatch:         smartwatchBuilder{},
			CategoryWirelessHeadphones: headphonesBuilder{},
			CategoryFullSizeHeadphones: headphonesBuilder{},
		},
	}
}

// Supported reports whether the category has a listing card mapping.
func (a *Assembler) Supported(category string) bool {
	_, ok := a.builders[category]
	return ok
}

// RequiresResolution reports whether the category needs the filter chain.
func (a *Assembler) RequiresResolution(category string) (bool, error) {
	b, ok := a.builders[category]
	if !ok {
		return false, shared.ErrUnsupportedCategory
	}
	return b.requiresResolution(), nil
}

// Assemble builds and validates the payload for one record. A validation
// failure means the payload would be incomplete for its category; the record
// is rejected, never emitted half-filled.
func (a *Assembler) Assemble(rec InventoryRecord, attrs *ResolvedAttributes, rows []catalog.ReferenceEntry) (*ListingPayload, error) {
	b, ok := a.builders[rec.Category]
	if !ok {
		return nil, shared.ErrUnsupportedCategory
	}

	payload, err := b.build(rec, attrs, rows)
	if err != nil {
		return nil, err
	}

	if err := a.validate.Struct(payload); err != nil {
		return nil, &RejectionError{
			Article:   rec.Article,
			Attribute: "payload",
			Query:     rec.Category,
			Reason:    "incomplete listing payload: " + err.Error(),
		}
	}
	return payload, nil
}

// smartphoneBuilder assembles the full-resolution phone card.
type smartphoneBuilder struct{}

func (smartphoneBuilder) requiresResolution() bool { return true }

func (smartphoneBuilder) build(rec InventoryRecord, attrs *ResolvedAttributes, rows []catalog.ReferenceEntry) (*ListingPayload, error) {
	if attrs == nil || len(rows) == 0 {
		return nil, &RejectionError{
			Article:   rec.Article,
			Attribute: "model",
			Reason:    "no resolved catalog rows",
		}
	}
	// The filtered rows arrive in stable tuple order; the first one is
	// canonical by convention.
	row := rows[0]

	// A comma in the catalog RAM field means a multi-value set; the declared
	// RAM from inventory is used verbatim then, cased like the catalog.
	ramSize := row.RAMSize
	if row.IsRAMSet() {
		ramSize = strings.ToUpper(rec.DeclaredRAM)
	}

	title := row.Vendor + " " + row.Model + " " + row.MemorySize + "/" + ramSize + " " + row.Color

	return &ListingPayload{
		Title:      title,
		Article:    rec.Article,
		Price:      rec.Price,
		Vendor:     attrs.Brand,
		Model:      row.Model,
		MemorySize: row.MemorySize,
		RAMSize:    ramSize,
		Color:      row.Color,
		GoodsType:  goodsTypePhones,
		Category:   categoryPhones,
	}, nil
}

// smartwatchBuilder assembles the watch card with its constant extras.
type smartwatchBuilder struct{}

func (smartwatchBuilder) requiresResolution() bool { return false }

func (smartwatchBuilder) build(rec InventoryRecord, _ *ResolvedAttributes, _ []catalog.ReferenceEntry) (*ListingPayload, error) {
	return &ListingPayload{
		Title:          rec.DisplayName,
		Article:        rec.Article,
		Price:          rec.Price,
		Vendor:         rec.Brand,
		Color:          lastToken(catalog.Fold(rec.DisplayName)),
		GoodsType:      goodsTypeWatches,
		Category:       categoryWatches,
		ProductType:    watchProductType,
		ProductSubType: watchProductSubType,
		Gender:         watchGender,
		StrapType:      watchStrapType,
	}, nil
}

// headphonesBuilder covers both wireless and full-size headphones; the
// marketplace uses the same card shape for both.
type headphonesBuilder struct{}

func (headphonesBuilder) requiresResolution() bool { return false }

func (headphonesBuilder) build(rec InventoryRecord, _ *ResolvedAttributes, _ []catalog.ReferenceEntry) (*ListingPayload, error) {
	return &ListingPayload{
		Title:     rec.DisplayName,
		Article:   rec.Article,
		Price:     rec.Price,
		Vendor:    rec.Brand,
		Color:     lastToken(catalog.Fold(rec.DisplayName)),
		GoodsType: goodsTypeHeadphones,
		Category:  categoryHeadphones,
	}, nil
}
