// Package catalog holds the marketplace reference catalog: the published
// ground truth of valid attribute combinations for a product category.
package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ReferenceEntry is one row of the reference catalog. Entries are immutable
// during a sync run and carry no identity beyond their attribute tuple.
type ReferenceEntry struct {
	Vendor     string
	Model      string
	MemorySize string
	// RAMSize may hold a comma-joined set of valid sizes, e.g. "6GB, 8GB",
	// when the vendor ships the same SKU with several RAM options.
	RAMSize string
	Color   string
}

// Fold normalizes a value for case-insensitive comparison. A cases.Caser
// carries internal state and must not be shared between goroutines, so a
// fresh one is built per call.
func Fold(s string) string {
	return cases.Lower(language.Russian).String(strings.TrimSpace(s))
}

// IsRAMSet reports whether the entry's RAMSize denotes a set of values
// rather than a single size.
func (e ReferenceEntry) IsRAMSet() bool {
	return strings.Contains(e.RAMSize, ",")
}

// ReferenceFilter narrows a catalog query. Empty fields are ignored.
// Vendor, Model, MemorySize and Color match by case-insensitive equality;
// RAMSizeHas matches as a case-insensitive substring of the RAMSize field,
// since that field may hold a comma-joined set.
type ReferenceFilter struct {
	Vendor     string
	Model      string
	MemorySize string
	RAMSizeHas string
	Color      string
}

// Matches reports whether the entry satisfies every non-empty filter field.
func (f ReferenceFilter) Matches(e ReferenceEntry) bool {
	if f.Vendor != "" && Fold(e.Vendor) != Fold(f.Vendor) {
		return false
	}
	if f.Model != "" && Fold(e.Model) != Fold(f.Model) {
		return false
	}
	if f.MemorySize != "" && Fold(e.MemorySize) != Fold(f.MemorySize) {
		return false
	}
	if f.RAMSizeHas != "" && !strings.Contains(Fold(e.RAMSize), Fold(f.RAMSizeHas)) {
		return false
	}
	if f.Color != "" && Fold(e.Color) != Fold(f.Color) {
		return false
	}
	return true
}
