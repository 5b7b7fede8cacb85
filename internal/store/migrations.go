package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/hyperengineering/recipes/migrations"
	"github.com/pressly/goose/v3"
)

// gooseDialect maps our dialect onto goose's dialect names.
func gooseDialect(d Dialect) goose.Dialect {
	if d == DialectPostgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

// newMigrationProvider builds a goose provider over the embedded files for d.
// A provider holds no global state, so concurrently opened stores do not interfere.
func newMigrationProvider(db *sql.DB, d Dialect) (*goose.Provider, error) {
	sub, err := fs.Sub(migrations.FS, d.MigrationDir())
	if err != nil {
		return nil, fmt.Errorf("open %s migrations: %w", d, err)
	}
	p, err := goose.NewProvider(gooseDialect(d), db, sub)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return p, nil
}

// RunMigrations applies all pending migrations for the dialect using goose.
func RunMigrations(ctx context.Context, db *sql.DB, d Dialect) error {
	p, err := newMigrationProvider(db, d)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the latest applied goose migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int64, error) {
	p, err := newMigrationProvider(db.sql, db.dialect)
	if err != nil {
		return 0, err
	}
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get schema version: %w", err)
	}
	return v, nil
}
