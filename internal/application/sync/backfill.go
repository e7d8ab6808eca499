package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/listing"
	"github.com/marketsync/backend/internal/domain/run"
	"github.com/marketsync/backend/internal/infrastructure/logger"
)

// BackfillIDs asks the marketplace which of the staged listings went live
// and records their marketplace ids. Only active report rows are persisted;
// anything still processing stays pending for the next run.
func (s *Service) BackfillIDs(ctx context.Context) (*run.Run, error) {
	return s.track(ctx, run.KindBackfill, s.backfillIDs)
}

func (s *Service) backfillIDs(ctx context.Context) (counters, error) {
	var c counters
	log := logger.FromContext(ctx)

	pending, err := s.listings.FindUnpublished(ctx, s.settings.Store)
	if err != nil {
		return c, err
	}
	if len(pending) == 0 {
		return c, nil
	}
	c.total = len(pending)

	byArticle := make(map[string]*listing.Listing, len(pending))
	articles := make([]string, 0, len(pending))
	for i := range pending {
		byArticle[pending[i].Article] = &pending[i]
		articles = append(articles, pending[i].Article)
	}

	items, err := s.gateway.ReportItems(ctx, articles)
	if err != nil {
		return c, fmt.Errorf("fetching published-items report: %w", err)
	}

	for _, item := range items {
		if !item.IsActive() || item.MarketplaceID == "" {
			continue
		}
		l, ok := byArticle[item.Article]
		if !ok {
			log.Warn("report row has no staged listing",
				zap.String("article", item.Article),
				zap.String("marketplace_id", item.MarketplaceID))
			c.rejected++
			continue
		}
		if err := l.Publish(item.MarketplaceID); err != nil {
			return c, err
		}
		if err := s.listings.Save(ctx, l); err != nil {
			return c, err
		}
		c.succeeded++
	}

	return c, nil
}
