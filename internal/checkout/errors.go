package checkout

import (
	"errors"
	"net/http"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/discount"
	"github.com/noah-isme/toko-checkout/internal/refdata"
)

// Error kinds surfaced by the engine.
var (
	ErrMissingRecordsKey       = refdata.ErrMissingRecordsKey
	ErrMalformedDataset        = refdata.ErrMalformedDataset
	ErrUnpricedItem            = cart.ErrUnpricedItem
	ErrMissingSortKey          = refdata.ErrMissingSortKey
	ErrUnsupportedDiscountType = discount.ErrUnsupportedType
	ErrMalformedRule           = discount.ErrMalformedRule
)

// Codes used in warnings and API error bodies.
const (
	CodeMissingRecordsKey       = "MISSING_RECORDS_KEY"
	CodeMalformedDataset        = "MALFORMED_DATASET"
	CodeUnpricedItem            = "UNPRICED_ITEM"
	CodeMissingSortKey          = "MISSING_SORT_KEY"
	CodeUnsupportedDiscountType = "UNSUPPORTED_DISCOUNT_TYPE"
	CodeMalformedRule           = "MALFORMED_DISCOUNT_RULE"
)

// Process exit codes for the CLI.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitUsage             = 2
	ExitMissingRecordsKey = 3
	ExitUnpricedItem      = 4
)

// ExitCode maps a Run error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrMissingRecordsKey), errors.Is(err, ErrMalformedDataset):
		return ExitMissingRecordsKey
	case errors.Is(err, ErrUnpricedItem):
		return ExitUnpricedItem
	default:
		return ExitFailure
	}
}

// AppError translates a Run error for the HTTP boundary.
func AppError(err error) *common.AppError {
	var unpriced *cart.UnpricedError
	switch {
	case errors.As(err, &unpriced):
		appErr := common.NewAppError(CodeUnpricedItem, "cart contains items without a price", http.StatusUnprocessableEntity, err)
		appErr.Details = unpriced.Items
		return appErr
	case errors.Is(err, ErrMissingRecordsKey):
		return common.NewAppError(CodeMissingRecordsKey, "reference data is missing its records collection", http.StatusInternalServerError, err)
	case errors.Is(err, ErrMalformedDataset):
		return common.NewAppError(CodeMalformedDataset, "reference data is malformed", http.StatusInternalServerError, err)
	default:
		return common.NewAppError("INTERNAL", "unable to price cart", http.StatusInternalServerError, err)
	}
}

func issueCode(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedDiscountType):
		return CodeUnsupportedDiscountType
	case errors.Is(err, ErrMalformedRule):
		return CodeMalformedRule
	default:
		return "DISCOUNT_ISSUE"
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnpricedItem):
		return "unpriced_item"
	case errors.Is(err, ErrMissingRecordsKey):
		return "missing_records_key"
	default:
		return "error"
	}
}
