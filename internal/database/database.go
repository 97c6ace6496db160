package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"deskhive/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB is the sqlite-backed store. It implements both domain.StoreReader and
// domain.StoreWriter. The active-space catalog is kept in an in-memory cache
// refreshed on seed, since spaces are read-only to the engine.
type DB struct {
	db     *sql.DB
	logger *zerolog.Logger

	mu          sync.RWMutex
	spacesCache map[int64]models.Space
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// A single writer keeps the check-then-insert transaction in
	// InsertBooking serialized.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{db: db, logger: logger, spacesCache: make(map[int64]models.Space)}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS spaces (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            capacity INTEGER NOT NULL,
            pricing_type TEXT NOT NULL,
            hourly_price REAL NOT NULL DEFAULT 0,
            daily_price REAL NOT NULL DEFAULT 0,
            half_day_price REAL NOT NULL DEFAULT 0,
            monthly_price REAL NOT NULL DEFAULT 0,
            quarter_price REAL NOT NULL DEFAULT 0,
            yearly_price REAL NOT NULL DEFAULT 0,
            custom_price REAL NOT NULL DEFAULT 0,
            custom_label TEXT NOT NULL DEFAULT '',
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            reference TEXT NOT NULL UNIQUE,
            space_id INTEGER NOT NULL,
            space_name TEXT NOT NULL,
            user_id INTEGER NOT NULL,
            user_email TEXT NOT NULL DEFAULT '',
            start_time DATETIME NOT NULL,
            end_time DATETIME NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            total_price_ht REAL NOT NULL DEFAULT 0,
            total_price_ttc REAL NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1,
            CHECK (start_time < end_time)
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_space_id ON bookings(space_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_window ON bookings(space_id, start_time, end_time)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// wrapRead types read-path errors: row absence maps to ErrNotFound, sqlite
// lock contention is transient and safe to retry, anything else passes
// through untyped.
func wrapRead(op string, err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if strings.Contains(err.Error(), "database is locked") || strings.Contains(err.Error(), "busy") {
		return fmt.Errorf("%s: %w: %v", op, ErrTransient, err)
	}
	return fmt.Errorf("%s: %v", op, err)
}

func (db *DB) execContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

func (db *DB) queryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

func (db *DB) queryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}
