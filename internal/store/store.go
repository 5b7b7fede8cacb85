package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Options selects the SQL driver and data source for Open.
type Options struct {
	// Driver is "sqlite" or "postgres".
	Driver string
	// DSN is a file path (or ":memory:") for sqlite, a connection URL for postgres.
	DSN string
}

// Result reports the outcome of a mutating statement.
type Result struct {
	// InsertedID is the driver's last insert id. Zero when the driver does not report one.
	InsertedID   int64
	RowsAffected int64
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// DB owns the single SQL handle for the process (or test) lifetime.
// Queries are written with ? placeholders and rebound for the active dialect.
type DB struct {
	sql     *sql.DB
	dialect Dialect
	dsn     string
}

// Open opens the database, applies pragmas for SQLite, and runs migrations.
func Open(ctx context.Context, opts Options) (*DB, error) {
	dialect, err := ParseDialect(opts.Driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, errors.New("database dsn is required")
	}

	if dialect == DialectSQLite && opts.DSN != ":memory:" {
		if dir := filepath.Dir(opts.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	sqlDB, err := sql.Open(dialect.DriverName(), opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialect == DialectSQLite {
		// One connection keeps pragmas and :memory: databases consistent.
		sqlDB.SetMaxOpenConns(1)
		if err := enablePragmas(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("enable pragmas: %w", err)
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(ctx, sqlDB, dialect); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &DB{sql: sqlDB, dialect: dialect, dsn: opts.DSN}, nil
}

// With opens a database, hands it to fn, and closes it on every exit path.
func With(ctx context.Context, opts Options, fn func(*DB) error) (err error) {
	db, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close database: %w", cerr)
		}
	}()
	return fn(db)
}

// enablePragmas sets SQLite pragmas for durability and concurrent readers.
func enablePragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Dialect returns the SQL dialect of the open handle.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Close releases the underlying handle.
func (db *DB) Close() error {
	return db.sql.Close()
}

// Run executes a mutating statement.
func (db *DB) Run(ctx context.Context, query string, args ...any) (Result, error) {
	res, err := db.sql.ExecContext(ctx, db.dialect.Rebind(query), args...)
	if err != nil {
		return Result{}, fmt.Errorf("exec: %w", err)
	}

	var out Result
	// pgx does not implement LastInsertId; callers needing ids there use RETURNING.
	if id, err := res.LastInsertId(); err == nil {
		out.InsertedID = id
	}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	return out, nil
}

// Get scans at most one row into dest. It reports false, with a nil error,
// when the query matched nothing.
func (db *DB) Get(ctx context.Context, query string, args []any, dest ...any) (bool, error) {
	err := db.sql.QueryRowContext(ctx, db.dialect.Rebind(query), args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query row: %w", err)
	}
	return true, nil
}

// Select runs a query and calls each once per row, in order.
// The rows are closed before Select returns.
func (db *DB) Select(ctx context.Context, query string, args []any, each func(Scanner) error) error {
	rows, err := db.sql.QueryContext(ctx, db.dialect.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := each(rows); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

// Ping verifies the handle is still usable.
func (db *DB) Ping(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}
