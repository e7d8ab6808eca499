package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsync/backend/internal/domain/catalog"
)

func seedCatalog(t *testing.T, c *GormReferenceCatalog) {
	t.Helper()
	require.NoError(t, c.Replace(context.Background(), []catalog.ReferenceEntry{
		{Vendor: "Samsung", Model: "Galaxy A55", MemorySize: "256GB", RAMSize: "6GB, 8GB", Color: "Awesome Navy"},
		{Vendor: "Apple", Model: "iPhone 13", MemorySize: "128GB", Color: "Midnight"},
		{Vendor: "Apple", Model: "iPhone 13", MemorySize: "128GB", Color: "Blue"},
		{Vendor: "Apple", Model: "iPhone 13", MemorySize: "256GB", Color: "Blue"},
	}))
}

func TestReferenceCatalogQueryIsCaseInsensitive(t *testing.T) {
	c := NewGormReferenceCatalog(newTestDB(t))
	seedCatalog(t, c)

	entries, err := c.Query(context.Background(), catalog.ReferenceFilter{
		Vendor:     "apple",
		MemorySize: "128gb",
	})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestReferenceCatalogQueryOrdersByTuple(t *testing.T) {
	c := NewGormReferenceCatalog(newTestDB(t))
	seedCatalog(t, c)

	entries, err := c.Query(context.Background(), catalog.ReferenceFilter{Vendor: "Apple"})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Sorted by model, memory, ram, color regardless of insert order.
	assert.Equal(t, "Blue", entries[0].Color)
	assert.Equal(t, "Midnight", entries[1].Color)
	assert.Equal(t, "256GB", entries[2].MemorySize)
}

func TestReferenceCatalogRAMSubstringFilter(t *testing.T) {
	c := NewGormReferenceCatalog(newTestDB(t))
	seedCatalog(t, c)

	entries, err := c.Query(context.Background(), catalog.ReferenceFilter{
		Vendor:     "samsung",
		RAMSizeHas: "8gb",
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Galaxy A55", entries[0].Model)

	entries, err = c.Query(context.Background(), catalog.ReferenceFilter{
		Vendor:     "samsung",
		RAMSizeHas: "12gb",
	})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReferenceCatalogReplaceSwapsFeed(t *testing.T) {
	c := NewGormReferenceCatalog(newTestDB(t))
	seedCatalog(t, c)

	require.NoError(t, c.Replace(context.Background(), []catalog.ReferenceEntry{
		{Vendor: "Xiaomi", Model: "Redmi Note 13", MemorySize: "256GB", RAMSize: "8GB", Color: "Золотистый"},
	}))

	entries, err := c.Query(context.Background(), catalog.ReferenceFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Xiaomi", entries[0].Vendor)
}
