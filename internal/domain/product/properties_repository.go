package product

import "context"

// Repository defines the interface for product properties persistence
type Repository interface {
	// FindByArticle finds the properties row for an article within a store
	FindByArticle(ctx context.Context, store, article string) (*Properties, error)

	// FindByStore returns all properties rows for a store keyed by article
	FindByStore(ctx context.Context, store string) (map[string]Properties, error)

	// Save creates or updates a properties row
	Save(ctx context.Context, p *Properties) error

	// SaveBatch upserts many rows in one transaction
	SaveBatch(ctx context.Context, rows []Properties) error
}
