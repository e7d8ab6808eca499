package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDriver() *Driver {
	resolver := NewResolver(nil, DefaultMinConfidence, zap.NewNop())
	chain := NewChain(fixtureCatalog(), resolver, zap.NewNop())
	return NewDriver(chain, NewAssembler(), zap.NewNop())
}

func TestReconcileBatchRecordFailuresAreIndependent(t *testing.T) {
	driver := newTestDriver()
	records := []InventoryRecord{
		{
			Article:        "A-001",
			DisplayName:    "Apple iPhone 13 (128GB) Blue",
			Price:          decimal.NewFromInt(54990),
			Brand:          "apple",
			DeclaredMemory: "128GB",
			Category:       CategorySmartphone,
		},
		{
			// Unknown memory size; rejected, the batch moves on.
			Article:        "A-002",
			DisplayName:    "Apple iPhone 13 (512GB) Blue",
			Price:          decimal.NewFromInt(74990),
			Brand:          "apple",
			DeclaredMemory: "512GB",
			Category:       CategorySmartphone,
		},
		{
			Article:     "W-001",
			DisplayName: "Apple Watch SE 44mm Midnight",
			Price:       decimal.NewFromInt(24990),
			Brand:       "apple",
			Category:    CategorySmartwatch,
		},
	}

	payloads, report, err := driver.Reconcile(context.Background(), records)

	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Equal(t, "Apple iPhone 13 128GB/ Blue", payloads[0].Title)
	assert.Equal(t, "Apple Watch SE 44mm Midnight", payloads[1].Title)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Assembled)
	assert.Equal(t, 1, report.Rejected)
	require.Len(t, report.Rejections, 1)
	assert.Equal(t, "A-002", report.Rejections[0].Article)
	assert.Equal(t, "memory_size", report.Rejections[0].Attribute)
}

func TestReconcileCountsUnsupportedCategories(t *testing.T) {
	driver := newTestDriver()
	records := []InventoryRecord{
		{
			Article:     "T-001",
			DisplayName: "Apple iPad 10 64GB Silver",
			Price:       decimal.NewFromInt(39990),
			Brand:       "apple",
			Category:    CategoryTablet,
		},
	}

	payloads, report, err := driver.Reconcile(context.Background(), records)

	require.NoError(t, err)
	assert.Empty(t, payloads)
	assert.Equal(t, 1, report.Rejected)
	require.Len(t, report.Rejections, 1)
	assert.Equal(t, "category", report.Rejections[0].Attribute)
}

func TestReconcileAbortsOnCatalogFault(t *testing.T) {
	cause := errors.New("connection reset")
	resolver := NewResolver(nil, DefaultMinConfidence, zap.NewNop())
	chain := NewChain(failingCatalog{err: cause}, resolver, zap.NewNop())
	driver := NewDriver(chain, NewAssembler(), zap.NewNop())
	records := []InventoryRecord{
		{
			Article:        "A-001",
			DisplayName:    "Apple iPhone 13 (128GB) Blue",
			Price:          decimal.NewFromInt(54990),
			Brand:          "apple",
			DeclaredMemory: "128GB",
			Category:       CategorySmartphone,
		},
	}

	payloads, _, err := driver.Reconcile(context.Background(), records)

	assert.ErrorIs(t, err, cause)
	assert.Nil(t, payloads)
}

func TestReconcileEmptyBatch(t *testing.T) {
	driver := newTestDriver()

	payloads, report, err := driver.Reconcile(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, payloads)
	assert.Equal(t, 0, report.Total)
}
