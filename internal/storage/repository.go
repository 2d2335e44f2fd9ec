// Package storage persists the label to color map in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budgettracker/internal/log"
	"budgettracker/internal/palette"

	_ "modernc.org/sqlite"
)

// ColorRepository is a palette.Store backed by SQLite.
type ColorRepository struct {
	db *sql.DB
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func NewColorRepository(dbPath string) (*ColorRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps lookup-then-insert serialized within the process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dsn(dbPath)); err != nil {
		db.Close()
		return nil, err
	}
	return &ColorRepository{db: db}, nil
}

func (r *ColorRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *ColorRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Assign implements palette.Store.
func (r *ColorRepository) Assign(ctx context.Context, label string, pick func(size int) string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var color string
	err = tx.QueryRowContext(ctx, `SELECT color FROM color_map WHERE label = ?`, label).Scan(&color)
	switch {
	case err == nil:
		return color, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("lookup color: %w", err)
	}

	var size int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM color_map`).Scan(&size); err != nil {
		return "", fmt.Errorf("count colors: %w", err)
	}
	color = pick(size)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO color_map (label, color, position) VALUES (?, ?, ?) ON CONFLICT(label) DO NOTHING`,
		label, color, size); err != nil {
		return "", fmt.Errorf("insert color: %w", err)
	}
	// Another process may have won the insert; the stored row is authoritative.
	if err := tx.QueryRowContext(ctx, `SELECT color FROM color_map WHERE label = ?`, label).Scan(&color); err != nil {
		return "", fmt.Errorf("reload color: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit color: %w", err)
	}

	slog.DebugContext(ctx, "Color assigned", log.FieldComponent, log.ComponentStorage, "label", label, "color", color, "position", size)
	return color, nil
}

// List implements palette.Lister.
func (r *ColorRepository) List(ctx context.Context) ([]palette.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label, color FROM color_map ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list colors: %w", err)
	}
	defer rows.Close()

	var out []palette.Entry
	for rows.Next() {
		var e palette.Entry
		if err := rows.Scan(&e.Label, &e.Color); err != nil {
			return nil, fmt.Errorf("scan color: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
