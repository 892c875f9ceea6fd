package discount

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/refdata"
)

func table(entries map[string]map[string]any) refdata.Table {
	out := refdata.Table{}
	for id, attrs := range entries {
		out[id] = refdata.NewRecord(attrs)
	}
	return out
}

func priced(t *testing.T, items []string, prices refdata.Table) (cart.Counts, cart.Lines) {
	t.Helper()
	counts, lines, err := cart.Aggregate(items, prices)
	require.NoError(t, err)
	return counts, lines
}

var shopPrices = map[string]map[string]any{
	"bread":  {"price": 2.00},
	"milk":   {"price": 1.00},
	"soup":   {"price": 0.65},
	"apples": {"price": 1.00},
}

func TestResolveRequirementMet(t *testing.T) {
	prices := table(shopPrices)
	rules := table(map[string]map[string]any{
		"milk": {"discount_type": "percent", "discount": 10, "requires": map[string]any{"product": "bread", "quantity": 1}},
	})
	counts, lines := priced(t, []string{"bread", "milk"}, prices)

	savings, issues := Resolve(rules, counts, lines, prices)
	require.Empty(t, issues)
	require.Equal(t, []string{"milk"}, savings.Products())
	line := savings["milk"]
	require.Equal(t, 1, line.Quantity)
	require.Equal(t, "0.1", line.Total.String())
}

func TestResolveRequirementUnmet(t *testing.T) {
	prices := table(shopPrices)
	rules := table(map[string]map[string]any{
		"milk": {"discount_type": "percent", "discount": 10, "requires": map[string]any{"product": "bread", "quantity": 1}},
	})
	counts, lines := priced(t, []string{"milk"}, prices)

	savings, issues := Resolve(rules, counts, lines, prices)
	require.Empty(t, issues)
	require.Empty(t, savings)
	require.Empty(t, savings.Totals())
}

func TestResolveCapsAtOwnQuantity(t *testing.T) {
	prices := table(shopPrices)
	rules := table(map[string]map[string]any{
		"bread": {"discount_type": "percent", "discount": 50, "requires": map[string]any{"product": "soup", "quantity": 2}},
	})

	counts, lines := priced(t, []string{"soup", "soup", "soup", "soup", "soup", "bread"}, prices)
	savings, _ := Resolve(rules, counts, lines, prices)
	require.Equal(t, 1, savings["bread"].Quantity)
	require.Equal(t, "1", savings["bread"].Total.String())

	counts, lines = priced(t, []string{"soup", "soup", "soup", "bread", "bread"}, prices)
	savings, _ = Resolve(rules, counts, lines, prices)
	require.Equal(t, 1, savings["bread"].Quantity, "three soups satisfy the requirement once")

	counts, lines = priced(t, []string{"soup", "bread"}, prices)
	savings, _ = Resolve(rules, counts, lines, prices)
	require.NotContains(t, savings, "bread")
}

func TestResolveUnconditional(t *testing.T) {
	prices := table(shopPrices)
	rules := table(map[string]map[string]any{
		"apples": {"discount_type": "Percent", "discount": 10},
		"caviar": {"discount_type": "percent", "discount": 90},
	})
	counts, lines := priced(t, []string{"apples", "apples", "apples"}, prices)

	savings, issues := Resolve(rules, counts, lines, prices)
	require.Empty(t, issues)
	require.Equal(t, []string{"apples"}, savings.Products())
	require.Equal(t, 3, savings["apples"].Quantity)
	require.True(t, savings["apples"].Total.Equal(decimal.RequireFromString("0.3")))
}

func TestResolveReportsBadRules(t *testing.T) {
	prices := table(shopPrices)
	rules := table(map[string]map[string]any{
		"apples": {"discount_type": "bogof", "discount": 100},
		"milk":   {"discount_type": "percent", "discount": "ten"},
		"bread":  {"discount_type": "percent", "discount": 5, "requires": map[string]any{"product": "soup", "quantity": 0}},
		"soup":   {"discount_type": "percent", "discount": 5, "requires": "bread"},
		"tea":    {"discount_type": "percent", "discount": 10, "requires": map[string]any{"product": "bread", "quantity": json.Number("18446744073709551617")}},
	})
	prices["tea"] = refdata.NewRecord(map[string]any{"price": 1.50})
	counts, lines := priced(t, []string{"apples", "milk", "bread", "soup", "tea"}, prices)

	savings, issues := Resolve(rules, counts, lines, prices)
	require.Empty(t, savings)
	require.Len(t, issues, 5)

	byProduct := map[string]error{}
	for _, issue := range issues {
		byProduct[issue.Product] = issue.Err
	}
	require.ErrorIs(t, byProduct["apples"], ErrUnsupportedType)
	require.ErrorIs(t, byProduct["milk"], ErrMalformedRule)
	require.ErrorIs(t, byProduct["bread"], ErrMalformedRule)
	require.ErrorIs(t, byProduct["soup"], ErrMalformedRule)
	require.ErrorIs(t, byProduct["tea"], ErrMalformedRule, "quantities beyond int range must not wrap")
}

func TestComputePercent(t *testing.T) {
	rule := Rule{Product: "milk", Type: TypePercent, Magnitude: decimal.NewFromInt(10)}

	amount, err := Compute(rule, decimal.RequireFromString("1.30"), 3)
	require.NoError(t, err)
	require.True(t, amount.Equal(decimal.RequireFromString("0.39")))

	amount, err = Compute(rule, decimal.RequireFromString("1.30"), 0)
	require.NoError(t, err)
	require.True(t, amount.IsZero())

	_, err = Compute(Rule{Type: "fixed"}, decimal.NewFromInt(1), 1)
	require.ErrorIs(t, err, ErrUnsupportedType)
}
