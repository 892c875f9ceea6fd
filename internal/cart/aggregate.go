package cart

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/refdata"
)

// PriceAttribute is the price record attribute holding the unit price.
const PriceAttribute = "price"

// ErrUnpricedItem indicates the cart holds an item absent from the price table.
var ErrUnpricedItem = errors.New("cart item not priced")

// UnpricedError lists every cart item that could not be priced.
type UnpricedError struct {
	Items []string
}

func (e *UnpricedError) Error() string {
	return fmt.Sprintf("unable to find the following items in the price table: %s", strings.Join(e.Items, ", "))
}

// Unwrap allows errors.Is(err, ErrUnpricedItem).
func (e *UnpricedError) Unwrap() error { return ErrUnpricedItem }

// Counts maps a normalized item identifier to the number of times it was purchased.
type Counts map[string]int

// Line is the priced entry for one distinct cart item. Numeric attributes of the
// price record are scaled by Quantity; other attributes pass through unchanged.
type Line struct {
	Product    string
	Quantity   int
	UnitPrice  decimal.Decimal
	Price      decimal.Decimal
	Attributes refdata.Record
}

// Lines maps an item identifier to its line.
type Lines map[string]Line

// Count tallies cart items case-insensitively. Blank names are ignored.
func Count(items []string) Counts {
	counts := Counts{}
	for _, item := range items {
		id := refdata.NormalizeKey(item)
		if id == "" {
			continue
		}
		counts[id]++
	}
	return counts
}

// Aggregate counts items and prices each distinct one. Every item must be present in
// prices with a numeric price, otherwise an *UnpricedError naming all of them is returned.
func Aggregate(items []string, prices refdata.Table) (Counts, Lines, error) {
	counts := Count(items)
	var missing []string
	for id := range counts {
		rec, ok := prices.Get(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		if _, ok := rec.Decimal(PriceAttribute); !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, nil, &UnpricedError{Items: missing}
	}

	lines := make(Lines, len(counts))
	for id, qty := range counts {
		rec, _ := prices.Get(id)
		unit, _ := rec.Decimal(PriceAttribute)
		attrs := scale(rec, qty)
		price, _ := attrs.Decimal(PriceAttribute)
		lines[id] = Line{
			Product:    id,
			Quantity:   qty,
			UnitPrice:  unit,
			Price:      price,
			Attributes: attrs,
		}
	}
	return counts, lines, nil
}

func scale(rec refdata.Record, qty int) refdata.Record {
	out := rec.Clone()
	factor := decimal.NewFromInt(int64(qty))
	for key, value := range out {
		if d, ok := value.(decimal.Decimal); ok {
			out[key] = d.Mul(factor)
		}
	}
	return out
}

// Products returns the line identifiers in sorted order.
func (l Lines) Products() []string {
	ids := make([]string, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Quantity reports how many units of id are in the cart.
func (l Lines) Quantity(id string) int {
	return l[refdata.NormalizeKey(id)].Quantity
}

// Prices returns the line prices in identifier order.
func (l Lines) Prices() []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(l))
	for _, id := range l.Products() {
		out = append(out, l[id].Price)
	}
	return out
}
