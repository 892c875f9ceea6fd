package checkout_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/checkout"
)

type quoteResponse struct {
	Data checkout.Quote `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	opts := checkout.DefaultOptions()
	opts.PricesFile = filepath.Join(dir, "rrp.json")
	opts.DiscountsFile = filepath.Join(dir, "discounts.json")
	require.NoError(t, os.WriteFile(opts.PricesFile, []byte(`{"items":[{"product":"bread","price":2.00},{"product":"milk","price":1.00}]}`), 0o600))
	require.NoError(t, os.WriteFile(opts.DiscountsFile, []byte(`{"discounts":[{"product":"milk","discount_type":"percent","discount":10,"requires":{"product":"bread","quantity":1}}]}`), 0o600))

	h := &checkout.Handler{Engine: checkout.New(opts, zerolog.Nop(), nil), Logger: zerolog.Nop(), MaxBodyBytes: 1024}
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func postQuote(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestQuoteHandler(t *testing.T) {
	router := newRouter(t)

	rr := postQuote(t, router, `{"items":["bread","Milk"]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	require.Equal(t, "3.00", resp.Data.Pricing.Subtotal)
	require.Equal(t, "0.10", resp.Data.Pricing.Discount)
	require.Equal(t, "2.90", resp.Data.Pricing.Total)
	require.Len(t, resp.Data.Items, 2)
	require.Equal(t, "bread", resp.Data.Items[0].Product)
	require.Len(t, resp.Data.Savings, 1)
	require.Equal(t, "milk", resp.Data.Savings[0].Product)
	require.Equal(t, "percent", resp.Data.Savings[0].DiscountType)
	require.NotNil(t, resp.Data.Warnings)
	require.Contains(t, resp.Data.Receipt, "Total: £2.90")
}

func TestQuoteHandlerRejectsBadInput(t *testing.T) {
	router := newRouter(t)

	cases := []struct {
		name string
		body string
		code string
	}{
		{name: "invalid json", body: `{"items":`, code: "BAD_REQUEST"},
		{name: "empty cart", body: `{"items":[]}`, code: "VALIDATION_FAILED"},
		{name: "blank item", body: `{"items":["milk",""]}`, code: "VALIDATION_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postQuote(t, router, tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestQuoteHandlerBodyLimit(t *testing.T) {
	router := newRouter(t)

	rr := postQuote(t, router, `{"items":["`+strings.Repeat("a", 2048)+`"]}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestQuoteHandlerUnpricedItem(t *testing.T) {
	router := newRouter(t)

	rr := postQuote(t, router, `{"items":["milk","caviar"]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, checkout.CodeUnpricedItem, resp.Error.Code)
	require.Equal(t, []string{"caviar"}, resp.Error.Details)
}
