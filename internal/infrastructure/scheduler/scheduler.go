// Package scheduler runs the sync flows on fixed intervals. Each flow ticks
// independently; a tick is skipped when the previous execution of the same
// flow is still running.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/run"
)

// Runner is the subset of the sync service the scheduler drives.
type Runner interface {
	CreateCards(ctx context.Context) (*run.Run, error)
	UpdatePrices(ctx context.Context) (*run.Run, error)
	UpdateQuantities(ctx context.Context) (*run.Run, error)
	BackfillIDs(ctx context.Context) (*run.Run, error)
}

// Config holds the per-flow intervals. A zero interval disables the flow.
type Config struct {
	CardsInterval      time.Duration
	PricesInterval     time.Duration
	QuantitiesInterval time.Duration
	BackfillInterval   time.Duration
}

// Scheduler triggers sync flows on their configured intervals.
type Scheduler struct {
	config Config
	runner Runner
	logger *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	// busy guards against overlapping executions of the same flow.
	busy map[run.Kind]*sync.Mutex
}

// New creates a scheduler for the given runner.
func New(config Config, runner Runner, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config: config,
		runner: runner,
		logger: logger,
		busy: map[run.Kind]*sync.Mutex{
			run.KindCards:      {},
			run.KindPrices:     {},
			run.KindQuantities: {},
			run.KindBackfill:   {},
		},
	}
}

// Start launches one ticking goroutine per enabled flow. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)

	s.launch(ctx, run.KindCards, s.config.CardsInterval, s.runner.CreateCards)
	s.launch(ctx, run.KindPrices, s.config.PricesInterval, s.runner.UpdatePrices)
	s.launch(ctx, run.KindQuantities, s.config.QuantitiesInterval, s.runner.UpdateQuantities)
	s.launch(ctx, run.KindBackfill, s.config.BackfillInterval, s.runner.BackfillIDs)

	s.logger.Info("scheduler started",
		zap.Duration("cards", s.config.CardsInterval),
		zap.Duration("prices", s.config.PricesInterval),
		zap.Duration("quantities", s.config.QuantitiesInterval),
		zap.Duration("backfill", s.config.BackfillInterval))
}

// Stop cancels the tickers and waits for in-flight flows to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) launch(ctx context.Context, kind run.Kind, interval time.Duration, flow func(ctx context.Context) (*run.Run, error)) {
	if interval <= 0 {
		s.logger.Info("flow scheduling disabled", zap.String("kind", string(kind)))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.wg.Add(1)
				go func() {
					defer s.wg.Done()
					s.execute(ctx, kind, flow)
				}()
			}
		}
	}()
}

func (s *Scheduler) execute(ctx context.Context, kind run.Kind, flow func(ctx context.Context) (*run.Run, error)) {
	guard := s.busy[kind]
	if !guard.TryLock() {
		s.logger.Warn("previous execution still running, tick skipped",
			zap.String("kind", string(kind)))
		return
	}
	defer guard.Unlock()

	if _, err := flow(ctx); err != nil {
		// The run record already captured the failure; the next tick retries.
		s.logger.Error("scheduled flow failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}
