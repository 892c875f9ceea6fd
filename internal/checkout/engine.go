package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/discount"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/pricing"
	"github.com/noah-isme/toko-checkout/internal/receipt"
	"github.com/noah-isme/toko-checkout/internal/refdata"
)

// Default dataset locations and keys.
const (
	DefaultPricesFile    = "prices/rrp.json"
	DefaultPricesKey     = "items"
	DefaultDiscountsFile = "prices/discounts.json"
	DefaultDiscountsKey  = "discounts"
	DefaultSortKey       = "product"
)

// Options locates the reference datasets and controls presentation.
type Options struct {
	PricesFile     string
	PricesKey      string
	DiscountsFile  string
	DiscountsKey   string
	SortKey        string
	CurrencySymbol string
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		PricesFile:     DefaultPricesFile,
		PricesKey:      DefaultPricesKey,
		DiscountsFile:  DefaultDiscountsFile,
		DiscountsKey:   DefaultDiscountsKey,
		SortKey:        DefaultSortKey,
		CurrencySymbol: receipt.DefaultCurrencySymbol,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PricesFile == "" {
		o.PricesFile = def.PricesFile
	}
	if o.PricesKey == "" {
		o.PricesKey = def.PricesKey
	}
	if o.DiscountsFile == "" {
		o.DiscountsFile = def.DiscountsFile
	}
	if o.DiscountsKey == "" {
		o.DiscountsKey = def.DiscountsKey
	}
	if o.SortKey == "" {
		o.SortKey = def.SortKey
	}
	if o.CurrencySymbol == "" {
		o.CurrencySymbol = def.CurrencySymbol
	}
	return o
}

// Warning is a non-fatal problem found while evaluating a cart.
type Warning struct {
	Code    string `json:"code"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Result is the outcome of one cart evaluation. It is owned by the caller.
type Result struct {
	Counts   cart.Counts
	Lines    cart.Lines
	Savings  discount.Savings
	Totals   pricing.Summary
	Receipt  string
	Warnings []Warning
}

// Engine prices carts. It holds no per-run state, so one Engine may serve
// concurrent runs; each run builds its own lines and savings.
type Engine struct {
	Options Options
	Loader  *refdata.Loader
	Logger  zerolog.Logger
}

// New constructs an Engine whose loader logs through logger.
func New(opts Options, logger zerolog.Logger, cache *refdata.Cache) *Engine {
	return &Engine{
		Options: opts.withDefaults(),
		Loader:  &refdata.Loader{Logger: logger, Cache: cache},
		Logger:  logger,
	}
}

// Run evaluates a cart of item names. Items are matched case-insensitively.
// Fatal problems (ErrMissingRecordsKey, ErrUnpricedItem, unreadable datasets) abort the
// run; skipped records and ignored discount rules are returned as warnings.
func (e *Engine) Run(ctx context.Context, items []string) (_ *Result, err error) {
	start := time.Now()
	ctx, span := obs.Tracer().Start(ctx, "checkout.Run")
	span.SetAttributes(attribute.Int("checkout.items", len(items)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		obs.ObserveCheckoutRun(outcome(err), time.Since(start))
	}()

	opts := e.Options.withDefaults()
	prices, warnings, err := e.load(ctx, "prices", opts.PricesFile, opts.PricesKey, opts.SortKey)
	if err != nil {
		return nil, err
	}
	counts, lines, err := cart.Aggregate(items, prices)
	if err != nil {
		return nil, fmt.Errorf("aggregate cart: %w", err)
	}

	rules, skipped, err := e.load(ctx, "discounts", opts.DiscountsFile, opts.DiscountsKey, opts.SortKey)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, skipped...)

	savings, issues := discount.Resolve(rules, counts, lines, prices)
	for _, issue := range issues {
		code := issueCode(issue.Err)
		e.logger().Warn().Str("product", issue.Product).Str("code", code).Err(issue.Err).Msg("discount rule ignored")
		obs.ObserveDiscountIssue(code)
		warnings = append(warnings, Warning{Code: code, Subject: issue.Product, Message: issue.Err.Error(), Err: issue.Err})
	}
	for _, id := range savings.Products() {
		obs.ObserveDiscountApplied(savings[id].Type)
	}

	totals := pricing.Compute(lines.Prices(), savings.Totals())
	span.SetAttributes(
		attribute.String("checkout.subtotal", totals.Subtotal.StringFixed(2)),
		attribute.String("checkout.discount", totals.Discount.StringFixed(2)),
		attribute.Int("checkout.savings_lines", len(savings)),
	)

	return &Result{
		Counts:   counts,
		Lines:    lines,
		Savings:  savings,
		Totals:   totals,
		Receipt:  receipt.Render(buildReceipt(lines, savings, totals, opts.CurrencySymbol)),
		Warnings: warnings,
	}, nil
}

// CheckDatasets loads both reference datasets and reports structural problems.
func (e *Engine) CheckDatasets(ctx context.Context) error {
	opts := e.Options.withDefaults()
	if _, _, err := e.load(ctx, "prices", opts.PricesFile, opts.PricesKey, opts.SortKey); err != nil {
		return err
	}
	_, _, err := e.load(ctx, "discounts", opts.DiscountsFile, opts.DiscountsKey, opts.SortKey)
	return err
}

func (e *Engine) load(ctx context.Context, name, path, recordsKey, sortKey string) (refdata.Table, []Warning, error) {
	loader := e.Loader
	if loader == nil {
		loader = &refdata.Loader{Logger: e.Logger}
	}
	table, skipped, err := loader.LoadFile(ctx, refdata.Source{Name: name, Path: path, RecordsKey: recordsKey, SortKey: sortKey})
	if err != nil {
		return nil, nil, err
	}
	var warnings []Warning
	for _, s := range skipped {
		warnings = append(warnings, Warning{
			Code:    CodeMissingSortKey,
			Subject: fmt.Sprintf("%s[%d]", name, s.Index),
			Message: s.Reason.Error(),
			Err:     s.Reason,
		})
	}
	return table, warnings, nil
}

func (e *Engine) logger() *zerolog.Logger {
	return &e.Logger
}

func buildReceipt(lines cart.Lines, savings discount.Savings, totals pricing.Summary, symbol string) receipt.Receipt {
	r := receipt.Receipt{
		Subtotal: totals.Subtotal,
		Total:    totals.Total,
		Currency: symbol,
	}
	for _, id := range lines.Products() {
		r.Items = append(r.Items, receipt.Item{Product: id, Quantity: lines[id].Quantity})
	}
	for _, id := range savings.Products() {
		s := savings[id]
		r.Offers = append(r.Offers, receipt.Offer{Product: id, Magnitude: s.Magnitude, Type: s.Type, Amount: s.Total})
	}
	return r
}
