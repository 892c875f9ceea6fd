package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/refdata"
)

func priceTable(entries map[string]map[string]any) refdata.Table {
	table := refdata.Table{}
	for id, attrs := range entries {
		table[id] = refdata.NewRecord(attrs)
	}
	return table
}

func TestAggregateScalesNumericAttributes(t *testing.T) {
	prices := priceTable(map[string]map[string]any{
		"milk": {"product": "milk", "price": 1.00, "quantity": 1, "brand": "Dairy Co"},
	})

	counts, lines, err := Aggregate([]string{"milk", "milk"}, prices)
	require.NoError(t, err)
	require.Equal(t, Counts{"milk": 2}, counts)

	line := lines["milk"]
	require.Equal(t, 2, line.Quantity)
	require.True(t, line.UnitPrice.Equal(decimal.NewFromInt(1)))
	require.True(t, line.Price.Equal(decimal.NewFromInt(2)))
	qty, ok := line.Attributes.Int("quantity")
	require.True(t, ok)
	require.Equal(t, 2, qty)
	brand, _ := line.Attributes.String("brand")
	require.Equal(t, "Dairy Co", brand)

	original, _ := prices["milk"].Decimal("price")
	require.True(t, original.Equal(decimal.NewFromInt(1)), "price table must not be mutated")
}

func TestAggregateIsCaseInsensitive(t *testing.T) {
	prices := priceTable(map[string]map[string]any{
		"milk": {"price": 1.30},
	})

	counts, lines, err := Aggregate([]string{"Milk", "MILK", " milk "}, prices)
	require.NoError(t, err)
	require.Equal(t, 3, counts["milk"])
	require.Equal(t, []string{"milk"}, lines.Products())
	require.Equal(t, "3.9", lines["milk"].Price.String())
}

func TestAggregateListsEveryUnpricedItem(t *testing.T) {
	prices := priceTable(map[string]map[string]any{
		"milk":  {"price": 1.30},
		"bread": {"price": "free"},
	})

	_, _, err := Aggregate([]string{"milk", "eggs", "bread", "caviar", "eggs"}, prices)
	require.ErrorIs(t, err, ErrUnpricedItem)

	var unpriced *UnpricedError
	require.ErrorAs(t, err, &unpriced)
	require.Equal(t, []string{"bread", "caviar", "eggs"}, unpriced.Items)
	require.Contains(t, err.Error(), "bread, caviar, eggs")
}

func TestAggregateEmptyCart(t *testing.T) {
	counts, lines, err := Aggregate(nil, refdata.Table{})
	require.NoError(t, err)
	require.Empty(t, counts)
	require.Empty(t, lines)
	require.Empty(t, lines.Prices())
}

func TestCountIgnoresBlankNames(t *testing.T) {
	require.Equal(t, Counts{"soup": 2}, Count([]string{"soup", "", "  ", "Soup"}))
}
