// Package storage persists the tracker state as a single JSON snapshot in
// SQLite. The in-memory stores are the source of truth while the process
// runs; every mutation flushes the whole state here, and startup loads the
// last snapshot back.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"carteira/internal/store"

	_ "modernc.org/sqlite"
)

const snapshotRow = 1

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository opens (creating if needed) the SQLite database at
// dbPath and runs pending migrations.
func NewSnapshotRepository(dbPath string) (*SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applyMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotRepository{db: db}, nil
}

// applyMigrations brings the snapshot schema up to date. Migrations get
// their own connection so the repository's pool never sees a half-migrated
// schema.
func applyMigrations(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open for migration: %w", err)
	}
	defer db.Close()

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("wrap sqlite connection: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("build migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save implements services.SnapshotWriter. The snapshot lives in a single
// row that gets replaced on every write.
func (r *SnapshotRepository) Save(ctx context.Context, state store.State) error {
	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at`,
		snapshotRow, body, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	slog.DebugContext(ctx, "State snapshot saved",
		"bytes", len(body),
		"transactions", len(state.Transactions),
		"fixed_items", len(state.FixedItems))

	return nil
}

// Load returns the last saved state. The second return value is false when
// no snapshot has ever been written.
func (r *SnapshotRepository) Load(ctx context.Context) (store.State, bool, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT state FROM snapshots WHERE id = ?`, snapshotRow).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return store.State{}, false, nil
	}
	if err != nil {
		return store.State{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	var state store.State
	if err := json.Unmarshal(body, &state); err != nil {
		return store.State{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	slog.InfoContext(ctx, "State snapshot loaded",
		"bytes", len(body),
		"transactions", len(state.Transactions),
		"fixed_items", len(state.FixedItems))

	return state, true, nil
}
