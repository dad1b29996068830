package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one product-sale record of the seeded dataset.
// IDs are expected to be unique but duplicates must not break aggregation,
// so nothing here enforces uniqueness.
type Transaction struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	DateOfSale  time.Time       `json:"dateOfSale"`
	Category    string          `json:"category"`
	Sold        bool            `json:"sold"`
}

var (
	ErrNegativePrice = errors.New("negative price")
	ErrZeroSaleDate  = errors.New("zero date of sale")
	ErrEmptyTitle    = errors.New("empty title")
)

func (t Transaction) Validate() error {
	if t.Price.IsNegative() {
		return ErrNegativePrice
	}
	if t.DateOfSale.IsZero() {
		return ErrZeroSaleDate
	}
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	return nil
}

// TransactionPage is one page of matching transactions plus the unsliced
// match count, so callers can render pagination controls.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Total        int64         `json:"total"`
	Page         int           `json:"page"`
	PerPage      int           `json:"perPage"`
}

// Statistics summarizes one calendar month of sales.
// TotalSaleAmount is zero, never absent, when nothing sold.
type Statistics struct {
	TotalSaleAmount   decimal.Decimal `json:"totalSaleAmount"`
	TotalSoldItems    int64           `json:"totalSoldItems"`
	TotalNotSoldItems int64           `json:"totalNotSoldItems"`
}

// BucketCount is one fixed price bucket of the histogram.
type BucketCount struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
}

// CategoryCount is one slice of the category distribution. Categories with no
// records in the window are omitted, not zero-filled.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// CombinedReport merges the four month-scoped views into one payload.
type CombinedReport struct {
	Transactions TransactionPage `json:"transactions"`
	Statistics   Statistics      `json:"statistics"`
	BarChart     []BucketCount   `json:"barChart"`
	PieChart     []CategoryCount `json:"pieChart"`
}
