package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"create listings table", "create_listings_table"},
		{"Create-Listings-Table", "create_listings_table"},
		{"add__reference__entries", "add_reference_entries"},
		{"add column v2", "add_column_v2"},
		{"  padded  ", "padded"},
		{"weird!@#chars", "weirdchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")

	mf, err := CreateMigration(dir, "create listings table", "staged listing storage")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.True(t, strings.HasSuffix(mf.UpPath, "_create_listings_table.up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, "_create_listings_table.down.sql"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "create listings table")
	assert.Contains(t, string(up), "staged listing storage")
	assert.Contains(t, string(up), "UP migration SQL")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
	assert.Contains(t, string(down), "DOWN migration SQL")
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"000001_init.up.sql", "000001_init.down.sql",
		"000002_listings.up.sql", "000002_listings.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- x"), 0644))
	}

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init", "000002_listings"}, names)
}

func TestListMigrationsMissingDirectory(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, names)
}
