package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_FreshDatabase(t *testing.T) {
	// Given: A fresh database with no tables
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	// When: RunMigrations is called
	require.NoError(t, RunMigrations(context.Background(), db, DialectSQLite))

	// Then: The recipes table exists with all required columns
	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='recipes'`).Scan(&name)
	require.NoError(t, err, "recipes table not created")

	_, err = db.Exec(`SELECT id, title, ingredients, method FROM recipes LIMIT 0`)
	require.NoError(t, err, "recipes missing required columns")
}

func TestRunMigrations_Idempotent(t *testing.T) {
	// Given: A database that has already been migrated
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, RunMigrations(context.Background(), db, DialectSQLite))

	// When: RunMigrations is called again
	err = RunMigrations(context.Background(), db, DialectSQLite)

	// Then: Nothing fails
	assert.NoError(t, err)
}

func TestSchemaVersion_AfterOpen(t *testing.T) {
	db := openTestDB(t)

	v, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}
