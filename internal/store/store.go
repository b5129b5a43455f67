// Package store handles SQLite persistence of n-gram counts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/ngram-keylogger/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for n-gram counts.
type Store struct {
	db *sql.DB
}

// Table returns the table holding n-grams of the given order.
func Table(n int) (string, error) {
	switch n {
	case 1:
		return "keys", nil
	case 2:
		return "bigrams", nil
	case 3:
		return "trigrams", nil
	}
	return "", fmt.Errorf("unsupported n-gram order %d", n)
}

// Columns returns the action columns a1..an.
func Columns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = fmt.Sprintf("a%d", i+1)
	}
	return cols
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.exec(
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA busy_timeout = 5000;`,
	); err != nil {
		closeQuietly(db)
		return nil, err
	}
	if err := store.migrate(); err != nil {
		closeQuietly(db)
		return nil, err
	}
	return store, nil
}

// OpenReadOnly opens an existing database for queries. LIKE matching on
// this connection is case-sensitive.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.exec(
		`PRAGMA query_only = ON;`,
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA case_sensitive_like = ON;`,
	); err != nil {
		closeQuietly(db)
		return nil, err
	}
	return store, nil
}

func closeQuietly(db *sql.DB) {
	if cerr := db.Close(); cerr != nil {
		// Best-effort close on setup failure.
		_ = cerr
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) exec(stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) migrate() error {
	var stmts []string
	for n := 1; n <= 3; n++ {
		table, _ := Table(n)
		cols := Columns(n)
		defs := make([]string, n)
		for i, c := range cols {
			defs[i] = c + " TEXT NOT NULL"
		}
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			count INTEGER NOT NULL,
			context TEXT NOT NULL,
			%s,
			PRIMARY KEY (context, %s)
		);`, table, strings.Join(defs, ",\n\t\t\t"), strings.Join(cols, ", ")))
	}
	return s.exec(stmts...)
}

func upsertStmt(n int) string {
	table, _ := Table(n)
	cols := Columns(n)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", n+2), ", ")
	return fmt.Sprintf(`INSERT INTO %s (count, context, %s) VALUES (%s)
		ON CONFLICT (context, %s) DO UPDATE SET count = count + excluded.count`,
		table, strings.Join(cols, ", "), placeholders, strings.Join(cols, ", "))
}

// Increment adds the count deltas of one context in a single transaction.
// Either every delta is applied or none is.
func (s *Store) Increment(ctx context.Context, contextName string, counts model.Counts) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	for i, grams := range counts {
		if len(grams) == 0 {
			continue
		}
		if err = s.incrementOrder(ctx, tx, i+1, contextName, grams); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) incrementOrder(ctx context.Context, tx *sql.Tx, n int, contextName string, grams map[model.Gram]int64) error {
	stmt, err := tx.PrepareContext(ctx, upsertStmt(n))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	args := make([]any, n+2)
	for g, c := range grams {
		args[0], args[1] = c, contextName
		for j, name := range g.Names() {
			args[j+2] = name
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert %v: %w", g.Names(), err)
		}
	}
	return nil
}

// Select runs a query whose columns are count, then context when
// withContext is set, then slots action columns.
func (s *Store) Select(ctx context.Context, query string, args []any, withContext bool, slots int) ([]model.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Row
	for rows.Next() {
		row := model.Row{Slots: make([]string, slots)}
		dest := []any{&row.Count}
		if withContext {
			dest = append(dest, &row.Context)
		}
		for i := range row.Slots {
			dest = append(dest, &row.Slots[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if slots == 0 {
			row.Slots = nil
		}
		row.Value = float64(row.Count)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Sum runs a query returning a single integer. NULL reads as zero.
func (s *Store) Sum(ctx context.Context, query string, args []any) (int64, error) {
	var total sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total.Int64, nil
}
