package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kiranshivaraju/hiretrack/internal/store"
	"github.com/stretchr/testify/require"
)

// setupSQLite opens a fresh migrated database file in a temp dir.
func setupSQLite(t *testing.T) store.Store {
	t.Helper()
	db, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "hiretrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, store.RunSQLiteMigrations(db))
	return store.NewSQLiteStore(db)
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, setupSQLite)
}

func TestSQLiteStore_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		db, err := store.OpenSQLite(ctx, path)
		require.NoError(t, err)
		require.NoError(t, store.RunSQLiteMigrations(db))
		require.NoError(t, db.Close())
	}
}
