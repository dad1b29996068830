// Package store defines the transaction-store port consumed by the reporting
// engine, and hosts its sqlite, mongo and in-memory implementations.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"salestats/internal/core"
)

// GroupFieldCategory is the only grouping key the distribution view uses.
const GroupFieldCategory = "category"

// Filter narrows a window-scoped read. The zero value matches every record in
// the window.
type Filter struct {
	// Search matches title or description case-insensitively as a substring.
	// SearchPrice carries the same text pre-parsed as a number for the
	// price-equality branch; it is negative when the text is not numeric, so
	// that branch can never match a valid (non-negative) price.
	Search      string
	SearchPrice decimal.Decimal

	// Sold, when set, restricts to sold (true) or unsold (false) records.
	Sold *bool

	// PriceMin and PriceMax restrict price to [PriceMin, PriceMax).
	// Nil means unbounded on that side.
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
}

// TransactionStore answers predicate-filtered reads over the seeded dataset.
//
// FindInWindow must return records in a stable order (ascending id) so that
// page slicing and match counting agree with each other. All reads honor the
// half-open window [w.Start, w.End) on dateOfSale.
type TransactionStore interface {
	FindInWindow(ctx context.Context, w core.MonthWindow, f Filter, skip, limit int64) ([]core.Transaction, error)
	CountInWindow(ctx context.Context, w core.MonthWindow, f Filter) (int64, error)
	SumPriceInWindow(ctx context.Context, w core.MonthWindow, f Filter) (decimal.Decimal, error)
	GroupCountInWindow(ctx context.Context, w core.MonthWindow, field string) (map[string]int64, error)

	// ReplaceAll swaps the entire collection for ds. Only the seed loader
	// calls this; the reporting engine never mutates the dataset.
	ReplaceAll(ctx context.Context, ds []core.Transaction) error

	Close() error
}
