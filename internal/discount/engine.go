package discount

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/refdata"
)

// TypePercent is the only supported discount type.
const TypePercent = "percent"

// Discount record attributes.
const (
	AttrType     = "discount_type"
	AttrValue    = "discount"
	AttrRequires = "requires"
	AttrProduct  = "product"
	AttrQuantity = "quantity"
)

var (
	// ErrUnsupportedType is reported when a rule's discount type cannot be computed.
	ErrUnsupportedType = errors.New("discount type unsupported")
	// ErrMalformedRule is reported when a discount record cannot be read as a rule.
	ErrMalformedRule = errors.New("discount rule malformed")
)

var hundred = decimal.NewFromInt(100)

// Requirement makes a rule depend on another product being in the cart.
type Requirement struct {
	Product  string
	Quantity int
}

// Rule captures one discount record.
type Rule struct {
	Product   string
	Type      string
	Magnitude decimal.Decimal
	Requires  *Requirement
}

// Line is a discount that applies to the cart.
type Line struct {
	Product   string
	Type      string
	Magnitude decimal.Decimal
	Quantity  int
	Total     decimal.Decimal
}

// Savings maps the discounted item identifier to its line.
type Savings map[string]Line

// Issue is a rule that was ignored without failing the evaluation.
type Issue struct {
	Product string
	Err     error
}

// ParseRule reads a rule for product from a discount record.
func ParseRule(product string, rec refdata.Record) (Rule, error) {
	rule := Rule{Product: refdata.NormalizeKey(product)}
	rule.Type, _ = rec.String(AttrType)
	magnitude, ok := rec.Decimal(AttrValue)
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q has no numeric %s", ErrMalformedRule, rule.Product, AttrValue)
	}
	rule.Magnitude = magnitude

	if _, present := rec.Get(AttrRequires); !present {
		return rule, nil
	}
	req, ok := rec.Nested(AttrRequires)
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q %s is not a mapping", ErrMalformedRule, rule.Product, AttrRequires)
	}
	reqProduct, _ := req.String(AttrProduct)
	reqProduct = refdata.NormalizeKey(reqProduct)
	if reqProduct == "" {
		return Rule{}, fmt.Errorf("%w: %q requirement has no %s", ErrMalformedRule, rule.Product, AttrProduct)
	}
	qty, ok := req.Int(AttrQuantity)
	if !ok || qty <= 0 {
		return Rule{}, fmt.Errorf("%w: %q requirement needs a positive whole %s", ErrMalformedRule, rule.Product, AttrQuantity)
	}
	rule.Requires = &Requirement{Product: reqProduct, Quantity: qty}
	return rule, nil
}

// Quantity returns how many units of the rule's product are discounted and whether
// the rule is eligible at all. A requirement is satisfied once per Requirement.Quantity
// units of the required product, capped by the units of the discounted product.
func (r Rule) Quantity(lines cart.Lines) (int, bool) {
	own := lines.Quantity(r.Product)
	if own <= 0 {
		return 0, false
	}
	if r.Requires == nil {
		return own, true
	}
	have := lines.Quantity(r.Requires.Product)
	if have < r.Requires.Quantity {
		return 0, false
	}
	return min(have/r.Requires.Quantity, own), true
}

// Compute determines the monetary discount for qty units at unitPrice.
func Compute(r Rule, unitPrice decimal.Decimal, qty int) (decimal.Decimal, error) {
	if !strings.EqualFold(strings.TrimSpace(r.Type), TypePercent) {
		return decimal.Zero, fmt.Errorf("%w: %q for %q", ErrUnsupportedType, r.Type, r.Product)
	}
	if qty <= 0 {
		return decimal.Zero, nil
	}
	cost := unitPrice.Mul(decimal.NewFromInt(int64(qty)))
	return cost.Div(hundred).Mul(r.Magnitude), nil
}

// Resolve matches discount rules against a fully priced cart. Only rules for items in
// counts are considered; ineligible rules are omitted, and rules that cannot be parsed
// or computed are returned as issues. Rules never consume one another's units, so the
// result does not depend on evaluation order.
func Resolve(rules refdata.Table, counts cart.Counts, lines cart.Lines, prices refdata.Table) (Savings, []Issue) {
	savings := Savings{}
	var issues []Issue
	for _, id := range rules.IDs() {
		if counts[id] <= 0 {
			continue
		}
		rule, err := ParseRule(id, rules[id])
		if err != nil {
			issues = append(issues, Issue{Product: id, Err: err})
			continue
		}
		qty, eligible := rule.Quantity(lines)
		if !eligible {
			continue
		}
		unit, ok := unitPrice(id, lines, prices)
		if !ok {
			issues = append(issues, Issue{Product: id, Err: fmt.Errorf("%w: %q has no unit price", ErrMalformedRule, id)})
			continue
		}
		total, err := Compute(rule, unit, qty)
		if err != nil {
			issues = append(issues, Issue{Product: id, Err: err})
			continue
		}
		savings[id] = Line{
			Product:   id,
			Type:      rule.Type,
			Magnitude: rule.Magnitude,
			Quantity:  qty,
			Total:     total,
		}
	}
	return savings, issues
}

func unitPrice(id string, lines cart.Lines, prices refdata.Table) (decimal.Decimal, bool) {
	if rec, ok := prices.Get(id); ok {
		if price, ok := rec.Decimal(cart.PriceAttribute); ok {
			return price, true
		}
	}
	line, ok := lines[id]
	return line.UnitPrice, ok
}

// Totals returns the line discounts in identifier order.
func (s Savings) Totals() []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(s))
	for _, id := range s.Products() {
		out = append(out, s[id].Total)
	}
	return out
}

// Products returns the discounted identifiers in sorted order.
func (s Savings) Products() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
