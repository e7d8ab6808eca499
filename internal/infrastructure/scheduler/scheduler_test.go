package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marketsync/backend/internal/domain/run"
)

type countingRunner struct {
	cards      atomic.Int32
	prices     atomic.Int32
	quantities atomic.Int32
	backfill   atomic.Int32

	// block makes CreateCards hang until released, to provoke overlap.
	block chan struct{}
}

func (r *countingRunner) CreateCards(ctx context.Context) (*run.Run, error) {
	r.cards.Add(1)
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
		}
	}
	return nil, nil
}

func (r *countingRunner) UpdatePrices(context.Context) (*run.Run, error) {
	r.prices.Add(1)
	return nil, nil
}

func (r *countingRunner) UpdateQuantities(context.Context) (*run.Run, error) {
	r.quantities.Add(1)
	return nil, nil
}

func (r *countingRunner) BackfillIDs(context.Context) (*run.Run, error) {
	r.backfill.Add(1)
	return nil, nil
}

func TestSchedulerTriggersEnabledFlows(t *testing.T) {
	runner := &countingRunner{}
	s := New(Config{
		PricesInterval:     5 * time.Millisecond,
		QuantitiesInterval: 5 * time.Millisecond,
	}, runner, nil)

	s.Start(context.Background())
	time.Sleep(40 * time.Millisecond)
	s.Stop()

	assert.Greater(t, runner.prices.Load(), int32(0))
	assert.Greater(t, runner.quantities.Load(), int32(0))
	assert.Zero(t, runner.cards.Load(), "disabled flow must not run")
	assert.Zero(t, runner.backfill.Load(), "disabled flow must not run")
}

func TestSchedulerSkipsOverlappingTicks(t *testing.T) {
	runner := &countingRunner{block: make(chan struct{})}
	s := New(Config{CardsInterval: 5 * time.Millisecond}, runner, nil)

	s.Start(context.Background())
	time.Sleep(40 * time.Millisecond)

	// The first tick is still blocked; later ticks must have been skipped.
	assert.Equal(t, int32(1), runner.cards.Load())

	close(runner.block)
	s.Stop()
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	runner := &countingRunner{}
	s := New(Config{PricesInterval: time.Hour}, runner, nil)

	s.Start(context.Background())
	s.Stop()
	s.Stop()

	assert.Zero(t, runner.prices.Load())
}
