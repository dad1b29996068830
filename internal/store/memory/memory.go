// Package memory holds the whole dataset in process memory. It is the default
// backend for local runs and the test double for the reporting engine.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"salestats/internal/core"
	"salestats/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	items []core.Transaction
}

// New builds a store over a copy of ds, sorted by id for stable reads.
func New(ds []core.Transaction) *Store {
	s := &Store{}
	s.replace(ds)
	return s
}

// NewFromFile seeds the store from a JSON array of transactions. A missing
// file yields an empty store so a fresh checkout still starts.
func NewFromFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var ds []core.Transaction
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return New(ds), nil
}

func (s *Store) replace(ds []core.Transaction) {
	items := append([]core.Transaction(nil), ds...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

func (s *Store) FindInWindow(_ context.Context, w core.MonthWindow, f store.Filter, skip, limit int64) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []core.Transaction
	for _, t := range s.items {
		if matches(w, f, t) {
			matched = append(matched, t)
		}
	}
	if skip < 0 {
		skip = 0
	}
	if skip >= int64(len(matched)) {
		return nil, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < int64(len(matched)) {
		matched = matched[:limit]
	}
	return append([]core.Transaction(nil), matched...), nil
}

func (s *Store) CountInWindow(_ context.Context, w core.MonthWindow, f store.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, t := range s.items {
		if matches(w, f, t) {
			n++
		}
	}
	return n, nil
}

func (s *Store) SumPriceInWindow(_ context.Context, w core.MonthWindow, f store.Filter) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, t := range s.items {
		if matches(w, f, t) {
			sum = sum.Add(t.Price)
		}
	}
	return sum, nil
}

func (s *Store) GroupCountInWindow(_ context.Context, w core.MonthWindow, field string) (map[string]int64, error) {
	if field != store.GroupFieldCategory {
		return nil, fmt.Errorf("unsupported group field %q", field)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[string]int64)
	for _, t := range s.items {
		if w.Contains(t.DateOfSale) {
			groups[t.Category]++
		}
	}
	return groups, nil
}

func (s *Store) ReplaceAll(_ context.Context, ds []core.Transaction) error {
	s.replace(ds)
	return nil
}

func (s *Store) Close() error {
	return nil
}

func matches(w core.MonthWindow, f store.Filter, t core.Transaction) bool {
	if !w.Contains(t.DateOfSale) {
		return false
	}
	if f.Sold != nil && t.Sold != *f.Sold {
		return false
	}
	if f.PriceMin != nil && t.Price.Cmp(*f.PriceMin) < 0 {
		return false
	}
	if f.PriceMax != nil && t.Price.Cmp(*f.PriceMax) >= 0 {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) &&
			!t.Price.Equal(f.SearchPrice) {
			return false
		}
	}
	return true
}
