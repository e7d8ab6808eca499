package listing

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for listing persistence
type Repository interface {
	// FindByArticle finds a listing by its article within a store
	FindByArticle(ctx context.Context, store, article string) (*Listing, error)

	// FindAllByStore finds all listings for a store
	FindAllByStore(ctx context.Context, store string) ([]Listing, error)

	// FindUnpublished finds all listings still waiting for a marketplace id
	FindUnpublished(ctx context.Context, store string) ([]Listing, error)

	// ExistingArticles returns the set of articles already staged for a store
	ExistingArticles(ctx context.Context, store string) (map[string]struct{}, error)

	// Save creates or updates a listing
	Save(ctx context.Context, l *Listing) error

	// UpdatePrice updates the local price for an article
	UpdatePrice(ctx context.Context, store, article string, price decimal.Decimal) error

	// UpdateQuantity updates the local stock quantity for an article
	UpdateQuantity(ctx context.Context, store, article string, quantity decimal.Decimal) error
}
