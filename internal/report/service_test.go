package report

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"salestats/internal/core"
	"salestats/internal/store"
	"salestats/internal/store/memory"
)

func tx(id int64, title string, price float64, saleDate time.Time, category string, sold bool) core.Transaction {
	return core.Transaction{
		ID:          id,
		Title:       title,
		Description: title + " description",
		Price:       decimal.NewFromFloat(price),
		DateOfSale:  saleDate,
		Category:    category,
		Sold:        sold,
	}
}

func march(day int) time.Time {
	return time.Date(2022, 3, day, 10, 0, 0, 0, time.UTC)
}

// fixture covers every price bucket, the boundary gap at 100, both sold
// states, several categories and one out-of-window record.
func fixture() []core.Transaction {
	return []core.Transaction{
		tx(1, "wool scarf", 49.99, march(1), "clothing", true),
		tx(2, "leather belt", 100, march(2), "clothing", false), // boundary gap
		tx(3, "desk lamp", 150, march(3), "home", true),
		tx(4, "item 200x", 210.50, march(4), "home", false),
		tx(5, "bookshelf", 200, march(5), "home", true),
		tx(6, "blender", 350, march(6), "kitchen", true),
		tx(7, "microwave", 480, march(7), "kitchen", false),
		tx(8, "sofa cover", 560, march(8), "home", true),
		tx(9, "road bike", 650, march(9), "sports", false),
		tx(10, "treadmill", 780, march(10), "sports", true),
		tx(11, "television", 890, march(11), "electronics", false),
		tx(12, "laptop", 1500, march(12), "electronics", true),
		tx(13, "april-only gadget", 75, time.Date(2022, 4, 1, 0, 0, 0, 0, time.UTC), "electronics", true),
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(memory.New(fixture()))
}

func TestListTransactions_WindowScoping(t *testing.T) {
	svc := newTestService(t)

	page, err := svc.ListTransactions(context.Background(), "2022-03", "", 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 12 {
		t.Errorf("Total = %d, want 12 (april record must be excluded)", page.Total)
	}
	for _, tr := range page.Transactions {
		if tr.DateOfSale.Month() != time.March {
			t.Errorf("transaction %d dated %v leaked into the March window", tr.ID, tr.DateOfSale)
		}
	}
}

func TestListTransactions_PaginationInvariant(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	perPage := 5
	seen := map[int64]int{}
	var total int64
	for page := 1; ; page++ {
		res, err := svc.ListTransactions(ctx, "2022-03", "", page, perPage)
		if err != nil {
			t.Fatal(err)
		}
		total = res.Total
		if len(res.Transactions) == 0 {
			break
		}
		for _, tr := range res.Transactions {
			seen[tr.ID]++
		}
		if page > 10 {
			t.Fatal("runaway pagination")
		}
	}

	if int64(len(seen)) != total {
		t.Errorf("reconstructed %d distinct records, total reports %d", len(seen), total)
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("record %d appeared %d times across pages", id, n)
		}
	}
}

func TestListTransactions_TotalIndependentOfPage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.ListTransactions(ctx, "2022-03", "", 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	later, err := svc.ListTransactions(ctx, "2022-03", "", 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if first.Total != later.Total {
		t.Errorf("total varies with page: %d vs %d", first.Total, later.Total)
	}
}

func TestListTransactions_Defaults(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name        string
		page        int
		perPage     int
		wantPage    int
		wantPerPage int
	}{
		{"zero values", 0, 0, 1, 10},
		{"negative values", -3, -1, 1, 10},
		{"explicit values", 2, 4, 2, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.ListTransactions(context.Background(), "2022-03", "", tt.page, tt.perPage)
			if err != nil {
				t.Fatal(err)
			}
			if res.Page != tt.wantPage || res.PerPage != tt.wantPerPage {
				t.Errorf("page/perPage = %d/%d, want %d/%d", res.Page, res.PerPage, tt.wantPage, tt.wantPerPage)
			}
		})
	}
}

func TestListTransactions_SearchSemantics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("numeric search matches price and text", func(t *testing.T) {
		res, err := svc.ListTransactions(ctx, "2022-03", "200", 1, 100)
		if err != nil {
			t.Fatal(err)
		}
		// id 5 has price exactly 200, id 4 has "200x" in its title.
		want := map[int64]bool{4: true, 5: true}
		if len(res.Transactions) != len(want) {
			t.Fatalf("matched %d records, want %d: %+v", len(res.Transactions), len(want), res.Transactions)
		}
		for _, tr := range res.Transactions {
			if !want[tr.ID] {
				t.Errorf("unexpected match id=%d", tr.ID)
			}
		}
	})

	t.Run("non-numeric search never matches via price", func(t *testing.T) {
		res, err := svc.ListTransactions(ctx, "2022-03", "abc", 1, 100)
		if err != nil {
			t.Fatal(err)
		}
		if res.Total != 0 {
			t.Errorf("search %q matched %d records, want 0", "abc", res.Total)
		}
	})

	t.Run("case-insensitive text match", func(t *testing.T) {
		res, err := svc.ListTransactions(ctx, "2022-03", "LAPTOP", 1, 100)
		if err != nil {
			t.Fatal(err)
		}
		if res.Total != 1 || res.Transactions[0].ID != 12 {
			t.Errorf("search LAPTOP = %+v, want single match id=12", res.Transactions)
		}
	})
}

func TestListTransactions_InvalidMonth(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ListTransactions(context.Background(), "not-a-month", "", 1, 10)
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *core.ValidationError", err)
	}
}

func TestStatistics(t *testing.T) {
	svc := newTestService(t)

	stats, err := svc.Statistics(context.Background(), "2022-03")
	if err != nil {
		t.Fatal(err)
	}

	// Sold in March: ids 1, 3, 5, 6, 8, 10, 12.
	wantAmount := decimal.NewFromFloat(49.99 + 150 + 200 + 350 + 560 + 780 + 1500)
	if !stats.TotalSaleAmount.Equal(wantAmount) {
		t.Errorf("TotalSaleAmount = %s, want %s", stats.TotalSaleAmount, wantAmount)
	}
	if stats.TotalSoldItems != 7 {
		t.Errorf("TotalSoldItems = %d, want 7", stats.TotalSoldItems)
	}
	if stats.TotalNotSoldItems != 5 {
		t.Errorf("TotalNotSoldItems = %d, want 5", stats.TotalNotSoldItems)
	}
}

func TestStatistics_EmptyWindowIsZeroNotError(t *testing.T) {
	svc := newTestService(t)

	stats, err := svc.Statistics(context.Background(), "2019-01")
	if err != nil {
		t.Fatal(err)
	}
	if !stats.TotalSaleAmount.Equal(decimal.Zero) {
		t.Errorf("TotalSaleAmount = %s, want 0", stats.TotalSaleAmount)
	}
	if stats.TotalSoldItems != 0 || stats.TotalNotSoldItems != 0 {
		t.Errorf("counts = %d/%d, want 0/0", stats.TotalSoldItems, stats.TotalNotSoldItems)
	}
}

func TestPriceHistogram(t *testing.T) {
	svc := newTestService(t)

	buckets, err := svc.PriceHistogram(context.Background(), "2022-03")
	if err != nil {
		t.Fatal(err)
	}

	want := []core.BucketCount{
		{Range: "0-100", Count: 1},   // 49.99; price 100 sits in the boundary gap
		{Range: "101-200", Count: 1}, // 150; price 200 sits in the boundary gap
		{Range: "201-300", Count: 1}, // 210.50
		{Range: "301-400", Count: 1}, // 350
		{Range: "401-500", Count: 1}, // 480
		{Range: "501-600", Count: 1}, // 560
		{Range: "601-700", Count: 1}, // 650
		{Range: "701-800", Count: 1}, // 780
		{Range: "801-900", Count: 1}, // 890
		{Range: "901-above", Count: 1}, // 1500
	}
	if len(buckets) != len(want) {
		t.Fatalf("got %d buckets, want %d", len(buckets), len(want))
	}
	for i := range want {
		if buckets[i] != want[i] {
			t.Errorf("bucket[%d] = %+v, want %+v", i, buckets[i], want[i])
		}
	}
}

// The documented boundary quirk: bucket counts plus records priced exactly at
// a gap value reconstruct the full window count.
func TestPriceHistogram_CompletenessWithBoundaryGap(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	buckets, err := svc.PriceHistogram(ctx, "2022-03")
	if err != nil {
		t.Fatal(err)
	}
	var bucketed int64
	for _, b := range buckets {
		bucketed += b.Count
	}

	all, err := svc.ListTransactions(ctx, "2022-03", "", 1, 1000)
	if err != nil {
		t.Fatal(err)
	}
	var inGap int64
	hundred := decimal.NewFromInt(100)
	for _, tr := range all.Transactions {
		for gap := hundred; gap.LessThan(decimal.NewFromInt(1000)); gap = gap.Add(hundred) {
			if tr.Price.GreaterThanOrEqual(gap) && tr.Price.LessThan(gap.Add(decimal.NewFromInt(1))) {
				inGap++
			}
		}
	}

	if bucketed+inGap != all.Total {
		t.Errorf("bucketed %d + gap %d != window total %d", bucketed, inGap, all.Total)
	}
	if inGap != 2 {
		t.Errorf("gap count = %d, want 2 (the price-100 and price-200 records)", inGap)
	}
}

func TestCategoryDistribution(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.CategoryDistribution(context.Background(), "2022-03")
	if err != nil {
		t.Fatal(err)
	}

	want := []core.CategoryCount{
		{Category: "clothing", Count: 2},
		{Category: "electronics", Count: 2},
		{Category: "home", Count: 4},
		{Category: "kitchen", Count: 2},
		{Category: "sports", Count: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCategoryDistribution_OmitsAbsentCategories(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.CategoryDistribution(context.Background(), "2022-04")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Category != "electronics" || got[0].Count != 1 {
		t.Errorf("april distribution = %+v, want only electronics:1", got)
	}
}

func TestCombined(t *testing.T) {
	svc := newTestService(t)

	rep, err := svc.Combined(context.Background(), "2022-03")
	if err != nil {
		t.Fatal(err)
	}

	// Snapshot consistency: sold + unsold equals the unfiltered window total.
	total := rep.Statistics.TotalSoldItems + rep.Statistics.TotalNotSoldItems
	unfiltered, err := svc.ListTransactions(context.Background(), "2022-03", "", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != unfiltered.Total {
		t.Errorf("sold+unsold = %d, unfiltered total = %d", total, unfiltered.Total)
	}

	if rep.Transactions.Page != DefaultPage || rep.Transactions.PerPage != DefaultPerPage {
		t.Errorf("combined transactions use page %d/perPage %d, want defaults", rep.Transactions.Page, rep.Transactions.PerPage)
	}
	if len(rep.BarChart) != len(priceBuckets) {
		t.Errorf("barChart has %d buckets, want %d", len(rep.BarChart), len(priceBuckets))
	}
	if len(rep.PieChart) == 0 {
		t.Error("pieChart is empty")
	}
}

// failingStore simulates an unavailable store for a chosen operation.
type failingStore struct {
	store.TransactionStore
	failCount bool
	failGroup bool
}

var errStoreDown = errors.New("store unavailable")

func (f *failingStore) CountInWindow(ctx context.Context, w core.MonthWindow, fl store.Filter) (int64, error) {
	if f.failCount {
		return 0, errStoreDown
	}
	return f.TransactionStore.CountInWindow(ctx, w, fl)
}

func (f *failingStore) GroupCountInWindow(ctx context.Context, w core.MonthWindow, field string) (map[string]int64, error) {
	if f.failGroup {
		return nil, errStoreDown
	}
	return f.TransactionStore.GroupCountInWindow(ctx, w, field)
}

func TestCombined_FailsAsAWhole(t *testing.T) {
	svc := NewService(&failingStore{TransactionStore: memory.New(fixture()), failGroup: true})

	rep, err := svc.Combined(context.Background(), "2022-03")
	if err == nil {
		t.Fatal("Combined succeeded with a failing branch")
	}
	var rerr *core.ReportError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want *core.ReportError", err)
	}
	if rerr.Section != "pieChart" {
		t.Errorf("failed section = %q, want pieChart", rerr.Section)
	}
	if !errors.Is(err, errStoreDown) {
		t.Errorf("err %v does not wrap the store failure", err)
	}
	if len(rep.BarChart) != 0 || len(rep.Transactions.Transactions) != 0 {
		t.Error("partial payload returned alongside the error")
	}
}

func TestStorageFailurePropagates(t *testing.T) {
	svc := NewService(&failingStore{TransactionStore: memory.New(fixture()), failCount: true})

	if _, err := svc.ListTransactions(context.Background(), "2022-03", "", 1, 10); !errors.Is(err, errStoreDown) {
		t.Errorf("ListTransactions err = %v, want wrapped store failure", err)
	}
	if _, err := svc.Statistics(context.Background(), "2022-03"); !errors.Is(err, errStoreDown) {
		t.Errorf("Statistics err = %v, want wrapped store failure", err)
	}
	if _, err := svc.PriceHistogram(context.Background(), "2022-03"); !errors.Is(err, errStoreDown) {
		t.Errorf("PriceHistogram err = %v, want wrapped store failure", err)
	}
}

func TestDuplicateIDsDoNotBreakAggregation(t *testing.T) {
	ds := fixture()
	dup := ds[0]
	ds = append(ds, dup) // same id twice
	svc := NewService(memory.New(ds))

	page, err := svc.ListTransactions(context.Background(), "2022-03", "", 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 13 {
		t.Errorf("Total = %d, want 13 with the duplicated record", page.Total)
	}

	stats, err := svc.Statistics(context.Background(), "2022-03")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalSoldItems != 8 {
		t.Errorf("TotalSoldItems = %d, want 8", stats.TotalSoldItems)
	}
}

func TestSearchFilterSentinel(t *testing.T) {
	tests := []struct {
		search        string
		wantPriceEq   string
		wantNeverMatch bool
	}{
		{"200", "200", false},
		{"200.5", "200.5", false},
		{"abc", "-1", true},
		{"", "-1", true},
		{"-50", "-1", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("search=%q", tt.search), func(t *testing.T) {
			f := searchFilter(tt.search)
			if f.SearchPrice.String() != tt.wantPriceEq {
				t.Errorf("SearchPrice = %s, want %s", f.SearchPrice, tt.wantPriceEq)
			}
			if tt.wantNeverMatch && !f.SearchPrice.IsNegative() {
				t.Errorf("SearchPrice %s could match a valid price", f.SearchPrice)
			}
		})
	}
}
