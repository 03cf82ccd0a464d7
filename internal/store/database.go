package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// Database is the query-log PostgreSQL connection
type Database struct {
	conn *sql.DB
	dsn  string
}

type migration struct {
	version string
	sql     string
}

// migrations are applied in order and recorded in schema_migrations
var migrations = []migration{
	{
		version: "001_create_query_runs",
		sql: `
			CREATE TABLE IF NOT EXISTS query_runs (
				id           UUID PRIMARY KEY,
				tool         VARCHAR(64)  NOT NULL,
				transport    VARCHAR(16)  NOT NULL DEFAULT '',
				season       VARCHAR(64)  NOT NULL DEFAULT '',
				division     VARCHAR(128) NOT NULL DEFAULT '',
				team         VARCHAR(128) NOT NULL DEFAULT '',
				status       VARCHAR(16)  NOT NULL,
				row_count    INTEGER      NOT NULL DEFAULT 0,
				duration_ms  BIGINT       NOT NULL DEFAULT 0,
				error        TEXT         NOT NULL DEFAULT '',
				started_at   TIMESTAMPTZ  NOT NULL,
				finished_at  TIMESTAMPTZ
			)`,
	},
	{
		version: "002_index_query_runs_started_at",
		sql:     `CREATE INDEX IF NOT EXISTS idx_query_runs_started_at ON query_runs (started_at DESC)`,
	},
}

// NewDatabase opens and verifies a connection
func NewDatabase(dsn string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		conn: db,
		dsn:  dsn,
	}, nil
}

// NewDatabaseFromDB wraps an existing connection pool
func NewDatabaseFromDB(db *sql.DB) *Database {
	return &Database{conn: db}
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries
func (db *Database) DB() *sql.DB {
	return db.conn
}

// RunMigrations applies every migration not yet recorded
func (db *Database) RunMigrations(ctx context.Context) error {
	log.Info().Str("component", "store").Msg("running database migrations")

	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		if err := db.runMigration(ctx, m); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.version, err)
		}
	}
	return nil
}

func (db *Database) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := db.conn.ExecContext(ctx, query)
	return err
}

// runMigration runs a single migration if it hasn't been applied yet
func (db *Database) runMigration(ctx context.Context, m migration) error {
	var exists bool
	err := db.conn.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.version).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		log.Debug().Str("component", "store").Str("version", m.version).Msg("migration already applied")
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info().Str("component", "store").Str("version", m.version).Msg("migration applied")
	return nil
}

// HealthCheck pings the database
func (db *Database) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}
