package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run prices the items named in args and prints the receipt to stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return checkout.ExitFailure
	}
	opts := cfg.Checkout

	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: checkout [flags] item [item ...]")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.PricesFile, "prices", opts.PricesFile, "price dataset (JSON or YAML)")
	fs.StringVar(&opts.PricesKey, "prices-key", opts.PricesKey, "records key of the price dataset")
	fs.StringVar(&opts.DiscountsFile, "discounts", opts.DiscountsFile, "discount dataset (JSON or YAML)")
	fs.StringVar(&opts.DiscountsKey, "discounts-key", opts.DiscountsKey, "records key of the discount dataset")
	fs.StringVar(&opts.SortKey, "sort-key", opts.SortKey, "record attribute identifying each item")
	fs.StringVar(&opts.CurrencySymbol, "currency", opts.CurrencySymbol, "currency symbol printed on the receipt")
	logLevel := fs.String("log-level", cfg.LogLevel, "log level")
	logFormat := fs.String("log-format", "console", "log format (console or json)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return checkout.ExitOK
		}
		return checkout.ExitUsage
	}
	items := fs.Args()
	if len(items) == 0 {
		fs.Usage()
		return checkout.ExitUsage
	}

	logger := obs.NewLoggerTo(stderr, *logFormat, *logLevel)
	engine := checkout.New(opts, logger, nil)
	result, err := engine.Run(ctx, items)
	if err != nil {
		logger.Error().Err(err).Msg("checkout failed")
		return checkout.ExitCode(err)
	}
	fmt.Fprintln(stdout, result.Receipt)
	return checkout.ExitOK
}
