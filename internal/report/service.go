// Package report implements the month-scoped query-and-aggregation engine:
// paginated transaction lookups and the four analytics views derived from
// them.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"salestats/internal/core"
	"salestats/internal/store"
)

// Pagination defaults for transaction lookups. Non-positive inputs fall back
// to these instead of producing negative offsets.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// noPriceMatch can never equal a valid price, which is non-negative.
var noPriceMatch = decimal.NewFromInt(-1)

// Service answers reporting queries against a read-only transaction store.
type Service struct {
	store store.TransactionStore
}

func NewService(st store.TransactionStore) *Service {
	return &Service{store: st}
}

// searchFilter builds the free-text predicate: empty text matches everything,
// numeric text additionally matches on exact price.
func searchFilter(search string) store.Filter {
	search = strings.TrimSpace(search)
	f := store.Filter{Search: search, SearchPrice: noPriceMatch}
	if search == "" {
		return f
	}
	if p, err := decimal.NewFromString(search); err == nil && !p.IsNegative() {
		f.SearchPrice = p
	}
	return f
}

// ListTransactions returns one page of month-scoped transactions matching the
// optional search text, plus the total match count across all pages.
func (s *Service) ListTransactions(ctx context.Context, month, search string, page, perPage int) (core.TransactionPage, error) {
	w, err := core.ResolveMonthWindow(month)
	if err != nil {
		return core.TransactionPage{}, err
	}
	return s.listTransactions(ctx, w, search, page, perPage)
}

func (s *Service) listTransactions(ctx context.Context, w core.MonthWindow, search string, page, perPage int) (core.TransactionPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	f := searchFilter(search)

	var (
		items []core.Transaction
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.store.FindInWindow(gctx, w, f, int64(page-1)*int64(perPage), int64(perPage))
		if err != nil {
			return fmt.Errorf("find transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountInWindow(gctx, w, f)
		if err != nil {
			return fmt.Errorf("count transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.TransactionPage{}, err
	}

	if items == nil {
		items = []core.Transaction{}
	}
	return core.TransactionPage{
		Transactions: items,
		Total:        total,
		Page:         page,
		PerPage:      perPage,
	}, nil
}

// Statistics computes total sale amount and sold/unsold counts for the month.
func (s *Service) Statistics(ctx context.Context, month string) (core.Statistics, error) {
	w, err := core.ResolveMonthWindow(month)
	if err != nil {
		return core.Statistics{}, err
	}
	return s.statistics(ctx, w)
}

func (s *Service) statistics(ctx context.Context, w core.MonthWindow) (core.Statistics, error) {
	sold, notSold := true, false
	stats := core.Statistics{TotalSaleAmount: decimal.Zero}

	// The three aggregates are independent over an immutable dataset, so
	// running them concurrently yields the same result as one linear scan.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		amount, err := s.store.SumPriceInWindow(gctx, w, store.Filter{Sold: &sold})
		if err != nil {
			return fmt.Errorf("sum sold prices: %w", err)
		}
		stats.TotalSaleAmount = amount
		return nil
	})
	g.Go(func() error {
		n, err := s.store.CountInWindow(gctx, w, store.Filter{Sold: &sold})
		if err != nil {
			return fmt.Errorf("count sold: %w", err)
		}
		stats.TotalSoldItems = n
		return nil
	})
	g.Go(func() error {
		n, err := s.store.CountInWindow(gctx, w, store.Filter{Sold: &notSold})
		if err != nil {
			return fmt.Errorf("count unsold: %w", err)
		}
		stats.TotalNotSoldItems = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Statistics{}, err
	}
	return stats, nil
}

// PriceHistogram counts month-scoped records per fixed price bucket. The ten
// counts are independent, so they fan out concurrently; the result order is
// always the declared bucket order regardless of completion order.
func (s *Service) PriceHistogram(ctx context.Context, month string) ([]core.BucketCount, error) {
	w, err := core.ResolveMonthWindow(month)
	if err != nil {
		return nil, err
	}
	return s.priceHistogram(ctx, w)
}

func (s *Service) priceHistogram(ctx context.Context, w core.MonthWindow) ([]core.BucketCount, error) {
	out := make([]core.BucketCount, len(priceBuckets))

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range priceBuckets {
		g.Go(func() error {
			min := b.Min
			n, err := s.store.CountInWindow(gctx, w, store.Filter{PriceMin: &min, PriceMax: b.Max})
			if err != nil {
				return fmt.Errorf("count bucket %s: %w", b.Label, err)
			}
			out[i] = core.BucketCount{Range: b.Label, Count: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CategoryDistribution groups month-scoped records by category. Entries are
// sorted by category name so the output is deterministic.
func (s *Service) CategoryDistribution(ctx context.Context, month string) ([]core.CategoryCount, error) {
	w, err := core.ResolveMonthWindow(month)
	if err != nil {
		return nil, err
	}
	return s.categoryDistribution(ctx, w)
}

func (s *Service) categoryDistribution(ctx context.Context, w core.MonthWindow) ([]core.CategoryCount, error) {
	groups, err := s.store.GroupCountInWindow(ctx, w, store.GroupFieldCategory)
	if err != nil {
		return nil, fmt.Errorf("group by category: %w", err)
	}

	out := make([]core.CategoryCount, 0, len(groups))
	for category, n := range groups {
		out = append(out, core.CategoryCount{Category: category, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// Combined fans out the four month-scoped views concurrently and merges them.
// Any failed branch fails the whole report; no partial payload is returned.
// The dataset is immutable between reseeds, so the branches observe a
// consistent snapshot.
func (s *Service) Combined(ctx context.Context, month string) (core.CombinedReport, error) {
	w, err := core.ResolveMonthWindow(month)
	if err != nil {
		return core.CombinedReport{}, err
	}

	var rep core.CombinedReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.listTransactions(gctx, w, "", DefaultPage, DefaultPerPage)
		if err != nil {
			return &core.ReportError{Section: "transactions", Err: err}
		}
		rep.Transactions = page
		return nil
	})
	g.Go(func() error {
		stats, err := s.statistics(gctx, w)
		if err != nil {
			return &core.ReportError{Section: "statistics", Err: err}
		}
		rep.Statistics = stats
		return nil
	})
	g.Go(func() error {
		buckets, err := s.priceHistogram(gctx, w)
		if err != nil {
			return &core.ReportError{Section: "barChart", Err: err}
		}
		rep.BarChart = buckets
		return nil
	})
	g.Go(func() error {
		categories, err := s.categoryDistribution(gctx, w)
		if err != nil {
			return &core.ReportError{Section: "pieChart", Err: err}
		}
		rep.PieChart = categories
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.CombinedReport{}, err
	}
	return rep, nil
}
