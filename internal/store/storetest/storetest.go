// Package storetest opens isolated databases for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperengineering/recipes/internal/store"
)

// Open returns a migrated SQLite database in t.TempDir().
// It is closed automatically when the test ends.
func Open(t testing.TB) *store.DB {
	t.Helper()

	db, err := store.Open(context.Background(), store.Options{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "recipes.db"),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close test database: %v", err)
		}
	})
	return db
}
