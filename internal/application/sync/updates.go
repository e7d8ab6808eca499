package sync

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/run"
	"github.com/marketsync/backend/internal/infrastructure/logger"
)

// UpdatePrices joins the fresh ERP prices to the stored listings by article.
// The local price is updated for every changed article; the marketplace is
// told only about listings with a confirmed marketplace id.
func (s *Service) UpdatePrices(ctx context.Context) (*run.Run, error) {
	return s.track(ctx, run.KindPrices, s.updatePrices)
}

func (s *Service) updatePrices(ctx context.Context) (counters, error) {
	var c counters
	log := logger.FromContext(ctx)

	lines, err := s.erp.GetStock(ctx, s.settings.Warehouses)
	if err != nil {
		return c, fmt.Errorf("pulling stock snapshot: %w", err)
	}

	// First price wins when the snapshot carries one article at several
	// price points.
	prices := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		if _, ok := prices[line.Article]; !ok {
			prices[line.Article] = line.Price
		}
	}

	all, err := s.listings.FindAllByStore(ctx, s.settings.Store)
	if err != nil {
		return c, err
	}

	for _, l := range all {
		price, ok := prices[l.Article]
		if !ok || price.Equal(l.Price) {
			continue
		}
		c.total++

		if err := s.listings.UpdatePrice(ctx, s.settings.Store, l.Article, price); err != nil {
			return c, err
		}

		if l.IsPublished() {
			if err := s.gateway.UpdatePrice(ctx, *l.MarketplaceID, price); err != nil {
				log.Warn("remote price update failed",
					zap.String("article", l.Article),
					zap.String("marketplace_id", *l.MarketplaceID),
					zap.Error(err))
				c.rejected++
				continue
			}
		}
		c.succeeded++
	}

	return c, nil
}

// UpdateQuantities pushes the current stock remainders. Articles missing
// from the snapshot are treated as sold out and set to zero.
func (s *Service) UpdateQuantities(ctx context.Context) (*run.Run, error) {
	return s.track(ctx, run.KindQuantities, s.updateQuantities)
}

func (s *Service) updateQuantities(ctx context.Context) (counters, error) {
	var c counters
	log := logger.FromContext(ctx)

	lines, err := s.erp.GetStock(ctx, s.settings.Warehouses)
	if err != nil {
		return c, fmt.Errorf("pulling stock snapshot: %w", err)
	}

	quantities := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		quantities[line.Article] = quantities[line.Article].Add(line.Quantity)
	}

	all, err := s.listings.FindAllByStore(ctx, s.settings.Store)
	if err != nil {
		return c, err
	}

	for _, l := range all {
		quantity := quantities[l.Article]
		if quantity.IsNegative() {
			quantity = decimal.Zero
		}
		if quantity.Equal(l.Quantity) {
			continue
		}
		c.total++

		if err := s.listings.UpdateQuantity(ctx, s.settings.Store, l.Article, quantity); err != nil {
			return c, err
		}

		if l.IsPublished() {
			if err := s.gateway.UpdateQuantity(ctx, *l.MarketplaceID, l.Article, quantity); err != nil {
				log.Warn("remote quantity update failed",
					zap.String("article", l.Article),
					zap.String("marketplace_id", *l.MarketplaceID),
					zap.Error(err))
				c.rejected++
				continue
			}
		}
		c.succeeded++
	}

	return c, nil
}
