// Package sqlite persists the transaction dataset in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"salestats/internal/core"
	"salestats/internal/store"
)

// saleDateFormat keeps date_of_sale values lexicographically comparable.
// Everything is normalized to UTC on write.
const saleDateFormat = time.RFC3339

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
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

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) FindInWindow(ctx context.Context, w core.MonthWindow, f store.Filter, skip, limit int64) ([]core.Transaction, error) {
	where, args := buildWhere(w, f)
	if limit <= 0 {
		// SQLite treats a negative LIMIT as "no limit".
		limit = -1
	}
	if skip < 0 {
		skip = 0
	}
	query := `SELECT id, title, description, price, date_of_sale, category, sold
FROM transactions WHERE ` + where + ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t        core.Transaction
			price    float64
			saleDate string
			sold     int64
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &price, &saleDate, &t.Category, &sold); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Price = decimal.NewFromFloat(price)
		t.Sold = sold != 0
		t.DateOfSale, err = time.Parse(saleDateFormat, saleDate)
		if err != nil {
			return nil, fmt.Errorf("parse date_of_sale %q: %w", saleDate, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *Store) CountInWindow(ctx context.Context, w core.MonthWindow, f store.Filter) (int64, error) {
	where, args := buildWhere(w, f)
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *Store) SumPriceInWindow(ctx context.Context, w core.MonthWindow, f store.Filter) (decimal.Decimal, error) {
	where, args := buildWhere(w, f)
	var sum float64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(price), 0) FROM transactions WHERE `+where, args...).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transaction prices: %w", err)
	}
	return decimal.NewFromFloat(sum), nil
}

func (s *Store) GroupCountInWindow(ctx context.Context, w core.MonthWindow, field string) (map[string]int64, error) {
	// Grouping columns are whitelisted; field names never reach the SQL text
	// unchecked.
	if field != store.GroupFieldCategory {
		return nil, fmt.Errorf("unsupported group field %q", field)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM transactions
WHERE date_of_sale >= ? AND date_of_sale < ?
GROUP BY category`,
		formatSaleDate(w.Start), formatSaleDate(w.End))
	if err != nil {
		return nil, fmt.Errorf("group transactions by %s: %w", field, err)
	}
	defer rows.Close()

	groups := make(map[string]int64)
	for rows.Next() {
		var (
			category string
			n        int64
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		groups[category] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group rows: %w", err)
	}
	return groups, nil
}

func (s *Store) ReplaceAll(ctx context.Context, ds []core.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (id, title, description, price, date_of_sale, category, sold)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range ds {
		sold := 0
		if t.Sold {
			sold = 1
		}
		_, err := stmt.ExecContext(ctx,
			t.ID, t.Title, t.Description, t.Price.InexactFloat64(),
			formatSaleDate(t.DateOfSale), t.Category, sold)
		if err != nil {
			return fmt.Errorf("insert transaction %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func formatSaleDate(ts time.Time) string {
	return ts.UTC().Format(saleDateFormat)
}

// buildWhere renders the window plus filter predicate. Text search uses
// instr(lower(...)) rather than LIKE so user input carries no wildcards.
func buildWhere(w core.MonthWindow, f store.Filter) (string, []any) {
	conds := []string{"date_of_sale >= ? AND date_of_sale < ?"}
	args := []any{formatSaleDate(w.Start), formatSaleDate(w.End)}

	if f.Search != "" {
		conds = append(conds,
			"(instr(lower(title), lower(?)) > 0 OR instr(lower(description), lower(?)) > 0 OR price = ?)")
		args = append(args, f.Search, f.Search, f.SearchPrice.InexactFloat64())
	}
	if f.Sold != nil {
		sold := 0
		if *f.Sold {
			sold = 1
		}
		conds = append(conds, "sold = ?")
		args = append(args, sold)
	}
	if f.PriceMin != nil {
		conds = append(conds, "price >= ?")
		args = append(args, f.PriceMin.InexactFloat64())
	}
	if f.PriceMax != nil {
		conds = append(conds, "price < ?")
		args = append(args, f.PriceMax.InexactFloat64())
	}

	return strings.Join(conds, " AND "), args
}
