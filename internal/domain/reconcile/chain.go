package reconcile

import (
	"context"
	"fmt"

	"github.com/marketsync/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// Chain enforces the attribute dependency order and materializes the
// narrowing catalog queries: brand → memory → ram → model → color. Each step
// filters by everything resolved before it, so the candidate pool can only
// shrink. For the apple family the RAM step is skipped entirely: that
// vendor's catalog has no independent RAM axis.
type Chain struct {
	catalog  catalog.ReferenceCatalog
	resolver *Resolver
	logger   *zap.Logger
}

// NewChain creates a filter chain over the given read-only catalog handle.
func NewChain(refCatalog catalog.ReferenceCatalog, resolver *Resolver, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		catalog:  refCatalog,
		resolver: resolver,
		logger:   logger,
	}
}

// Resolve runs the full chain for one record. It returns the resolved
// attribute tuple and the final catalog rows matching it. A *RejectionError
// means the record is unresolvable (expected, record-local); any other error
// is an infrastructure fault and must abort the batch.
func (c *Chain) Resolve(ctx context.Context, rec InventoryRecord, key SearchKey) (*ResolvedAttributes, []catalog.ReferenceEntry, error) {
	attrs := &ResolvedAttributes{
		Brand:  rec.Brand,
		Memory: rec.DeclaredMemory,
		RAM:    rec.DeclaredRAM,
	}
	ramApplies := rec.Brand != BrandApple && rec.DeclaredRAM != ""

	step := 0
	filter := catalog.ReferenceFilter{Vendor: attrs.Brand}
	if _, err := c.pool(ctx, rec, filter, step, "brand", attrs.Brand); err != nil {
		return nil, nil, err
	}

	step++
	filter.MemorySize = attrs.Memory
	if _, err := c.pool(ctx, rec, filter, step, "memory_size", attrs.Memory); err != nil {
		return nil, nil, err
	}

	if ramApplies {
		step++
		filter.RAMSizeHas = attrs.RAM
		if _, err := c.pool(ctx, rec, filter, step, "ram_size", attrs.RAM); err != nil {
			return nil, nil, err
		}
	}

	step++
	modelPool, err := c.pool(ctx, rec, filter, step, "model", key.NameModel)
	if err != nil {
		return nil, nil, err
	}
	res := c.resolver.Resolve(key.NameModel, column(modelPool, func(e catalog.ReferenceEntry) string { return e.Model }))
	if res.Outcome != OutcomeResolved {
		return nil, nil, reject(rec, step, "model", key.NameModel, res.Reason)
	}
	attrs.Model = res.Value

	filter.Model = attrs.Model
	colorPool, err := c.pool(ctx, rec, filter, step, "model", attrs.Model)
	if err != nil {
		return nil, nil, err
	}

	step++
	res = c.resolver.ResolveColor(ctx, key.ColorCandidate, column(colorPool, func(e catalog.ReferenceEntry) string { return e.Color }))
	if res.Outcome != OutcomeResolved {
		return nil, nil, reject(rec, step, "color", key.ColorCandidate, res.Reason)
	}
	attrs.Color = res.Value

	filter.Color = attrs.Color
	final, err := c.pool(ctx, rec, filter, step, "color", attrs.Color)
	if err != nil {
		return nil, nil, err
	}

	return attrs, final, nil
}

// pool queries the catalog and converts an empty result into a rejection for
// the attribute being added at this step.
func (c *Chain) pool(ctx context.Context, rec InventoryRecord, f catalog.ReferenceFilter, step int, attribute, query string) ([]catalog.ReferenceEntry, error) {
	entries, err := c.catalog.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("reference catalog query failed at step %d (%s): %w", step, attribute, err)
	}
	if len(entries) == 0 {
		return nil, reject(rec, step, attribute, query, "no catalog entries match")
	}
	return entries, nil
}

func reject(rec InventoryRecord, step int, attribute, query, reason string) *RejectionError {
	if reason == "" {
		reason = "attribute resolution failed"
	}
	return &RejectionError{
		Article:   rec.Article,
		Attribute: attribute,
		Query:     query,
		Step:      step,
		Reason:    reason,
	}
}

func column(entries []catalog.ReferenceEntry, pick func(catalog.ReferenceEntry) string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, pick(e))
	}
	return out
}
