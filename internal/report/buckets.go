package report

import "github.com/shopspring/decimal"

// priceBucket is one fixed histogram range [Min, Max); a nil Max means
// unbounded. Each bucket after the first starts one unit above the previous
// label, so prices in [100,101), [200,201), ... land in no bucket at all.
// Consumers of the bar chart expect these exact ranges, gaps included, so do
// not "fix" the boundaries.
type priceBucket struct {
	Label string
	Min   decimal.Decimal
	Max   *decimal.Decimal
}

var priceBuckets = []priceBucket{
	{Label: "0-100", Min: db(0), Max: dbp(100)},
	{Label: "101-200", Min: db(101), Max: dbp(200)},
	{Label: "201-300", Min: db(201), Max: dbp(300)},
	{Label: "301-400", Min: db(301), Max: dbp(400)},
	{Label: "401-500", Min: db(401), Max: dbp(500)},
	{Label: "501-600", Min: db(501), Max: dbp(600)},
	{Label: "601-700", Min: db(601), Max: dbp(700)},
	{Label: "701-800", Min: db(701), Max: dbp(800)},
	{Label: "801-900", Min: db(801), Max: dbp(900)},
	{Label: "901-above", Min: db(901)},
}

func db(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func dbp(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
