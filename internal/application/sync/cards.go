package sync

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/listing"
	"github.com/marketsync/backend/internal/domain/reconcile"
	"github.com/marketsync/backend/internal/domain/run"
	"github.com/marketsync/backend/internal/infrastructure/logger"
)

// CreateCards pulls the ERP stock snapshot, reconciles articles that have no
// staged listing yet, attaches hosted image URLs and persists the new
// listings with no marketplace id. The marketplace picks them up through the
// autoload trigger; publication is confirmed later by the id backfill flow.
func (s *Service) CreateCards(ctx context.Context) (*run.Run, error) {
	return s.track(ctx, run.KindCards, s.createCards)
}

func (s *Service) createCards(ctx context.Context) (counters, error) {
	var c counters
	log := logger.FromContext(ctx)

	lines, err := s.erp.GetStock(ctx, s.settings.Warehouses)
	if err != nil {
		return c, fmt.Errorf("pulling stock snapshot: %w", err)
	}

	existing, err := s.listings.ExistingArticles(ctx, s.settings.Store)
	if err != nil {
		return c, err
	}

	props, err := s.properties.FindByStore(ctx, s.settings.Store)
	if err != nil {
		return c, err
	}

	// One record per new article; the consolidated snapshot may still carry
	// the same article at several price points.
	records := make([]reconcile.InventoryRecord, 0)
	quantities := make(map[string]decimal.Decimal)
	seen := make(map[string]struct{})
	for _, line := range lines {
		if _, staged := existing[line.Article]; staged {
			continue
		}
		if _, dup := seen[line.Article]; dup {
			quantities[line.Article] = quantities[line.Article].Add(line.Quantity)
			continue
		}
		seen[line.Article] = struct{}{}
		quantities[line.Article] = line.Quantity

		p, ok := props[line.Article]
		if !ok || !p.IsComplete() {
			log.Warn("article has no declared properties, skipped",
				zap.String("article", line.Article),
				zap.String("name", line.Name))
			c.total++
			c.rejected++
			continue
		}

		records = append(records, reconcile.InventoryRecord{
			Article:        line.Article,
			DisplayName:    line.Name,
			Price:          line.Price,
			Brand:          p.Brand,
			DeclaredMemory: p.MemorySize,
			DeclaredRAM:    p.RAMSize,
			Quantity:       line.Quantity,
			Category:       p.Category,
		})
	}

	payloads, report, err := s.reconciler.Reconcile(ctx, records)
	if err != nil {
		return c, err
	}
	c.total += report.Total
	c.rejected += report.Rejected

	for _, payload := range payloads {
		urls, err := s.imageURLs(ctx, payload.Article)
		if err != nil {
			return c, err
		}
		if len(urls) == 0 {
			log.Warn("no hosted images for article, listing not staged",
				zap.String("article", payload.Article))
			c.rejected++
			continue
		}

		l, err := stageListing(s.settings.Store, payload, quantities[payload.Article], urls)
		if err != nil {
			return c, err
		}
		if err := s.listings.Save(ctx, l); err != nil {
			return c, err
		}
		c.succeeded++
	}

	if c.succeeded > 0 && s.gateway != nil {
		if err := s.gateway.TriggerUpload(ctx); err != nil {
			return c, fmt.Errorf("triggering marketplace upload: %w", err)
		}
	}

	return c, nil
}

func (s *Service) imageURLs(ctx context.Context, article string) ([]string, error) {
	if s.images == nil {
		return nil, nil
	}
	return s.images.URLs(ctx, article)
}

func stageListing(store string, p reconcile.ListingPayload, quantity decimal.Decimal, urls []string) (*listing.Listing, error) {
	l, err := listing.New(store, p.Article)
	if err != nil {
		return nil, err
	}
	if err := l.UpdatePrice(p.Price); err != nil {
		return nil, err
	}
	if quantity.IsNegative() {
		// reserved stock shows up as negative remainders in the snapshot
		quantity = decimal.Zero
	}
	if err := l.UpdateQuantity(quantity); err != nil {
		return nil, err
	}
	l.Title = p.Title
	l.Vendor = p.Vendor
	l.Model = p.Model
	l.MemorySize = p.MemorySize
	l.RAMSize = p.RAMSize
	l.Color = p.Color
	l.GoodsType = p.GoodsType
	l.Category = p.Category
	l.ProductType = p.ProductType
	l.ProductSubType = p.ProductSubType
	l.Gender = p.Gender
	l.StrapType = p.StrapType
	l.SetImageURLs(urls)
	return l, nil
}
