package catalog

import (
	"context"
	"sort"
)

// ReferenceCatalog is the read-only query handle over the reference catalog.
// Implementations must return entries in a stable order (sorted by the full
// attribute tuple) so that "first row wins" downstream is reproducible.
type ReferenceCatalog interface {
	// Query returns every entry matching the filter.
	Query(ctx context.Context, f ReferenceFilter) ([]ReferenceEntry, error)
}

// MemoryCatalog is an in-memory ReferenceCatalog over a wholesale-loaded
// entry set. It is used when the marketplace feed is loaded up front and by
// tests as a fixture.
type MemoryCatalog struct {
	entries []ReferenceEntry
}

// NewMemoryCatalog copies and sorts the entries into a stable tuple order.
func NewMemoryCatalog(entries []ReferenceEntry) *MemoryCatalog {
	sorted := make([]ReferenceEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return &MemoryCatalog{entries: sorted}
}

// Query returns all entries matching the filter, in stable tuple order.
func (c *MemoryCatalog) Query(_ context.Context, f ReferenceFilter) ([]ReferenceEntry, error) {
	var out []ReferenceEntry
	for _, e := range c.entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len returns the number of loaded entries.
func (c *MemoryCatalog) Len() int {
	return len(c.entries)
}

func less(a, b ReferenceEntry) bool {
	if a.Vendor != b.Vendor {
		return a.Vendor < b.Vendor
	}
	if a.Model != b.Model {
		return a.Model < b.Model
	}
	if a.MemorySize != b.MemorySize {
		return a.MemorySize < b.MemorySize
	}
	if a.RAMSize != b.RAMSize {
		return a.RAMSize < b.RAMSize
	}
	return a.Color < b.Color
}

// Ensure MemoryCatalog implements ReferenceCatalog
var _ ReferenceCatalog = (*MemoryCatalog)(nil)
