// Package sync hosts the application flows that move catalog data between
// the ERP, the reconciliation engine, the local listing store and the
// marketplace. Every flow is recorded as a sync run for operator visibility.
package sync

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/listing"
	"github.com/marketsync/backend/internal/domain/product"
	"github.com/marketsync/backend/internal/domain/reconcile"
	"github.com/marketsync/backend/internal/domain/run"
	"github.com/marketsync/backend/internal/infrastructure/erp"
	"github.com/marketsync/backend/internal/infrastructure/logger"
	"github.com/marketsync/backend/internal/infrastructure/marketplace"
)

// ERPClient pulls the consolidated stock snapshot from the back office.
type ERPClient interface {
	GetStock(ctx context.Context, warehouseIDs []string) ([]erp.StockLine, error)
}

// MarketplaceGateway pushes listing changes to the marketplace and reads
// back the published-items report.
type MarketplaceGateway interface {
	UpdatePrice(ctx context.Context, marketplaceID string, price decimal.Decimal) error
	UpdateQuantity(ctx context.Context, marketplaceID, article string, quantity decimal.Decimal) error
	ReportItems(ctx context.Context, articles []string) ([]marketplace.ReportItem, error)
	TriggerUpload(ctx context.Context) error
}

// ImageLocator resolves the hosted photo URLs for an article.
type ImageLocator interface {
	URLs(ctx context.Context, article string) ([]string, error)
}

// Reconciler turns raw inventory records into marketplace-ready payloads.
type Reconciler interface {
	Reconcile(ctx context.Context, records []reconcile.InventoryRecord) ([]reconcile.ListingPayload, *reconcile.BatchReport, error)
}

// Settings carries the per-store flow parameters.
type Settings struct {
	// Store is the listing partition key.
	Store string
	// Warehouses are the ERP warehouse ids polled for stock.
	Warehouses []string
}

// Service orchestrates the sync flows for one store.
type Service struct {
	settings   Settings
	erp        ERPClient
	gateway    MarketplaceGateway
	images     ImageLocator
	reconciler Reconciler
	listings   listing.Repository
	properties product.Repository
	runs       run.Repository
	logger     *zap.Logger
}

// NewService creates a sync service. The image locator may be nil when
// image hosting is disabled; card creation then rejects every record.
func NewService(
	settings Settings,
	erpClient ERPClient,
	gateway MarketplaceGateway,
	images ImageLocator,
	reconciler Reconciler,
	listings listing.Repository,
	properties product.Repository,
	runs run.Repository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		settings:   settings,
		erp:        erpClient,
		gateway:    gateway,
		images:     images,
		reconciler: reconciler,
		listings:   listings,
		properties: properties,
		runs:       runs,
		logger:     logger,
	}
}

// ListRuns returns the most recent sync runs for the service's store.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]run.Run, error) {
	return s.runs.FindRecent(ctx, s.settings.Store, limit)
}

// counters accumulates the per-run outcome totals.
type counters struct {
	total     int
	succeeded int
	rejected  int
}

// track wraps a flow in a sync run record. The run is persisted in its
// terminal state only; a flow error marks the run failed and is returned
// unchanged.
func (s *Service) track(ctx context.Context, kind run.Kind, flow func(ctx context.Context) (counters, error)) (*run.Run, error) {
	r, err := run.Start(s.settings.Store, kind)
	if err != nil {
		return nil, err
	}

	// the run id and store ride along on the context logger for the whole flow
	ctx, log := logger.WithRunID(ctx, s.logger, r.ID.String())
	ctx, log = logger.WithStore(ctx, log, r.Store)

	log.Info("sync run started", zap.String("kind", string(kind)))

	c, flowErr := flow(ctx)
	if flowErr != nil {
		r.Fail(flowErr)
		if saveErr := s.runs.Save(ctx, r); saveErr != nil {
			log.Error("failed to persist failed run", zap.Error(saveErr))
		}
		log.Error("sync run failed",
			zap.String("kind", string(kind)),
			zap.Error(flowErr))
		return r, flowErr
	}

	r.Complete(c.total, c.succeeded, c.rejected)
	if err := s.runs.Save(ctx, r); err != nil {
		return r, err
	}

	log.Info("sync run completed",
		zap.String("kind", string(kind)),
		zap.Int("total", c.total),
		zap.Int("succeeded", c.succeeded),
		zap.Int("rejected", c.rejected),
		zap.Duration("duration", r.Duration()))
	return r, nil
}
