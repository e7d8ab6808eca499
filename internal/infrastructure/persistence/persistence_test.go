package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/marketsync/backend/internal/domain/listing"
	"github.com/marketsync/backend/internal/domain/product"
	"github.com/marketsync/backend/internal/domain/run"
)

// newTestDB opens an in-memory SQLite database with the schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:")
	require.NoError(t, err)

	require.NoError(t, db.DB.AutoMigrate(&listing.Listing{}, &ReferenceRow{}, &run.Run{}, &product.Properties{}))
	return db.DB
}
