package pricing

import "github.com/shopspring/decimal"

// Money is a monetary amount in major units.
type Money = decimal.Decimal

// Places is the number of decimal places totals are rounded to.
const Places = 2

// Summary aggregates computed cart totals.
type Summary struct {
	Subtotal Money
	Discount Money
	Total    Money
}

// Round rounds half-to-even to Places.
func Round(m Money) Money {
	return m.RoundBank(Places)
}

// Compute sums line costs and line discounts. Each total is rounded exactly once,
// after summing, and Total is derived from the rounded subtotal and discount.
func Compute(lineCosts []Money, discounts []Money) Summary {
	subtotal := Round(sum(lineCosts))
	discount := Round(sum(discounts))
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Total:    Round(subtotal.Sub(discount)),
	}
}

func sum(values []Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
