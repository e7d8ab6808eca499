// Package run records sync run executions for operator visibility.
package run

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketsync/backend/internal/domain/shared"
)

// Kind names a sync flow.
type Kind string

const (
	KindCards      Kind = "cards"
	KindPrices     Kind = "prices"
	KindQuantities Kind = "quantities"
	KindBackfill   Kind = "backfill"
)

// Status of a sync run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one execution of a sync flow against a store.
type Run struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Store      string    `gorm:"type:varchar(64);not null;index"`
	Kind       Kind      `gorm:"type:varchar(32);not null"`
	Status     Status    `gorm:"type:varchar(32);not null"`
	Total      int       `gorm:"not null;default:0"`
	Succeeded  int       `gorm:"not null;default:0"`
	Rejected   int       `gorm:"not null;default:0"`
	Error      string    `gorm:"type:text"`
	StartedAt  time.Time `gorm:"not null"`
	FinishedAt *time.Time
}

// TableName returns the table name for GORM
func (Run) TableName() string {
	return "sync_runs"
}

// Start creates a running sync run.
func Start(store string, kind Kind) (*Run, error) {
	if store == "" {
		return nil, shared.NewDomainError("INVALID_STORE", "Store cannot be empty")
	}
	return &Run{
		ID:        uuid.New(),
		Store:     store,
		Kind:      kind,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}, nil
}

// Complete marks the run finished with its counters.
func (r *Run) Complete(total, succeeded, rejected int) {
	now := time.Now()
	r.Status = StatusCompleted
	r.Total = total
	r.Succeeded = succeeded
	r.Rejected = rejected
	r.FinishedAt = &now
}

// Fail marks the run failed with the fault message.
func (r *Run) Fail(err error) {
	now := time.Now()
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.FinishedAt = &now
}

// Duration returns the elapsed run time, zero while still running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
