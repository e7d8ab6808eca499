package run

import "context"

// Repository defines the interface for sync run persistence
type Repository interface {
	// Save creates or updates a run
	Save(ctx context.Context, r *Run) error

	// FindRecent returns the most recent runs for a store, newest first
	FindRecent(ctx context.Context, store string, limit int) ([]Run, error)
}
