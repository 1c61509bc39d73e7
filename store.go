package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// MemoryStore is the StoreOptions.Path that keeps valleys in memory only.
const MemoryStore = ":memory:"

const createLayoutsTable = `
CREATE TABLE IF NOT EXISTS layouts (
	id     INTEGER PRIMARY KEY,
	layout TEXT    NOT NULL UNIQUE,
	cost   REAL    NOT NULL%s
)`

// StoreOptions configures OpenStore.
type StoreOptions struct {
	// Path is a sqlite file, or MemoryStore.
	Path string
	// PersistSteps records the descent step count next to the cost.
	PersistSteps bool
}

// ResultStore is the durable, deduplicated set of discovered valleys. It is
// safe for concurrent use: uniqueness is enforced by the layout constraint, so
// concurrent inserts of one layout create exactly one row.
type ResultStore struct {
	db           *sql.DB
	persistSteps bool
	hasSteps     bool // the table has a steps column, persisted or not
}

// uriPathEscaper escapes the bytes that end or alter the path of an sqlite
// file: URI. sqlite decodes %HH in the path before opening the file.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// OpenStore opens or creates the store. Opening an existing store leaves its
// rows untouched.
func OpenStore(ctx context.Context, opts StoreOptions) (*ResultStore, error) {
	if opts.Path == "" {
		return nil, errors.New("store path is empty")
	}

	dsn := opts.Path
	if opts.Path != MemoryStore {
		dsn = "file:" + uriPathEscaper.Replace(opts.Path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", opts.Path, err)
	}
	if opts.Path == MemoryStore {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	s := &ResultStore{db: db, persistSteps: opts.PersistSteps}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init store %s: %w", opts.Path, err)
	}
	return s, nil
}

func (s *ResultStore) init(ctx context.Context) error {
	stepsCol := ""
	if s.persistSteps {
		stepsCol = ",\n\tsteps  INTEGER"
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createLayoutsTable, stepsCol)); err != nil {
		return err
	}
	has, err := s.hasColumn(ctx, "steps")
	if err != nil {
		return err
	}
	if s.persistSteps && !has {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE layouts ADD COLUMN steps INTEGER`); err != nil {
			return err
		}
		has = true
	}
	s.hasSteps = has
	return nil
}

func (s *ResultStore) hasColumn(ctx context.Context, name string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info('layouts')`)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	found := false
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return false, err
		}
		if col == name {
			found = true
		}
	}
	return found, rows.Err()
}

// Exists reports whether layout is already stored.
func (s *ResultStore) Exists(ctx context.Context, layout Layout) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM layouts WHERE layout = ?`, layout.String()).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup %s: %w", layout, err)
	}
	return true, nil
}

// Insert stores r unless its layout is already present. inserted is true only
// for the call that created the row; a duplicate is not an error.
func (s *ResultStore) Insert(ctx context.Context, r OptimizationResult) (inserted bool, err error) {
	var res sql.Result
	if s.persistSteps {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO layouts (layout, cost, steps) VALUES (?, ?, ?) ON CONFLICT(layout) DO NOTHING`,
			r.Layout.String(), r.Cost, r.Steps)
	} else {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO layouts (layout, cost) VALUES (?, ?) ON CONFLICT(layout) DO NOTHING`,
			r.Layout.String(), r.Cost)
	}
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", r.Layout, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", r.Layout, err)
	}
	return n == 1, nil
}

// Count returns the number of stored valleys.
func (s *ResultStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM layouts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count layouts: %w", err)
	}
	return n, nil
}

// Best returns up to limit valleys, lowest cost first. limit <= 0 returns all.
func (s *ResultStore) Best(ctx context.Context, limit int) ([]StoredValley, error) {
	if limit <= 0 {
		limit = -1
	}
	stepsExpr := "0"
	if s.hasSteps {
		stepsExpr = "COALESCE(steps, 0)"
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT layout, cost, `+stepsExpr+` FROM layouts ORDER BY cost, layout LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query best layouts: %w", err)
	}
	defer rows.Close()

	var out []StoredValley
	for rows.Next() {
		var v StoredValley
		if err := rows.Scan(&v.Layout, &v.Cost, &v.Steps); err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *ResultStore) Close() error {
	return s.db.Close()
}
