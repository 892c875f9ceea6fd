package receipt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol prefixes money amounts when none is configured.
const DefaultCurrencySymbol = "£"

const rule = "---------"

// Item is one cart line on the receipt.
type Item struct {
	Product  string
	Quantity int
}

// Offer is one applied discount on the receipt.
type Offer struct {
	Product   string
	Magnitude decimal.Decimal
	Type      string
	Amount    decimal.Decimal
}

// Receipt holds already computed values; rendering does no arithmetic beyond formatting.
type Receipt struct {
	Items    []Item
	Offers   []Offer
	Subtotal decimal.Decimal
	Total    decimal.Decimal
	Currency string
}

// Render formats the receipt. Items and offers are listed in identifier order.
func Render(r Receipt) string {
	symbol := r.Currency
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	items := append([]Item(nil), r.Items...)
	sort.Slice(items, func(i, j int) bool { return items[i].Product < items[j].Product })
	offers := append([]Offer(nil), r.Offers...)
	sort.Slice(offers, func(i, j int) bool { return offers[i].Product < offers[j].Product })

	lines := []string{"Receipt:", rule, "Items: Quantity", rule}
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s: %d", it.Product, it.Quantity))
	}
	lines = append(lines, rule, "Cost:", rule)
	lines = append(lines, fmt.Sprintf("Subtotal: %s%s", symbol, r.Subtotal.StringFixed(2)))
	if len(offers) == 0 {
		lines = append(lines, "(no offers available)")
	}
	for _, o := range offers {
		lines = append(lines, fmt.Sprintf("%s %s %s off: -%dp", o.Product, o.Magnitude.String(), o.Type, Pence(o.Amount)))
	}
	lines = append(lines, fmt.Sprintf("Total: %s%s", symbol, r.Total.StringFixed(2)))
	return strings.Join(lines, "\n")
}

// Pence converts an amount to whole minor units, truncating toward zero.
func Pence(amount decimal.Decimal) int64 {
	return amount.Shift(2).Truncate(0).IntPart()
}
