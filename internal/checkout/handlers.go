package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/common"
)

const defaultMaxBodyBytes = 64 << 10

// QuoteRequest is the payload of POST /quote.
type QuoteRequest struct {
	Items []string `json:"items" validate:"required,min=1,dive,required,max=200"`
}

// QuoteLine is one priced cart line in a quote response.
type QuoteLine struct {
	Product   string `json:"product"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Price     string `json:"price"`
}

// QuoteSaving is one applied discount in a quote response.
type QuoteSaving struct {
	Product      string `json:"product"`
	DiscountType string `json:"discountType"`
	Discount     string `json:"discount"`
	Quantity     int    `json:"quantity"`
	Amount       string `json:"amount"`
}

// QuoteTotals carries the rounded cart totals.
type QuoteTotals struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

// Quote is the response body of POST /quote.
type Quote struct {
	ID       string        `json:"quoteId"`
	Items    []QuoteLine   `json:"items"`
	Savings  []QuoteSaving `json:"savings"`
	Pricing  QuoteTotals   `json:"pricing"`
	Receipt  string        `json:"receipt"`
	Warnings []Warning     `json:"warnings"`
}

// Handler exposes the engine over HTTP.
type Handler struct {
	Engine       *Engine
	Validate     *validator.Validate
	Logger       zerolog.Logger
	MaxBodyBytes int64
}

// Routes mounts the checkout endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/quote", h.Quote)
}

// Quote prices the posted cart.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout engine not configured", nil)
		return
	}
	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var payload QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validator().Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "items must be a non-empty list of item names", validationDetails(err))
		return
	}

	result, err := h.Engine.Run(r.Context(), payload.Items)
	if err != nil {
		appErr := AppError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			h.Logger.Error().Err(err).Msg("price cart")
		}
		common.WriteError(w, appErr)
		return
	}
	common.JSONData(w, http.StatusOK, NewQuote(uuid.NewString(), result))
}

// NewQuote renders a result for the API.
func NewQuote(id string, result *Result) Quote {
	q := Quote{
		ID:       id,
		Items:    make([]QuoteLine, 0, len(result.Lines)),
		Savings:  make([]QuoteSaving, 0, len(result.Savings)),
		Receipt:  result.Receipt,
		Warnings: result.Warnings,
		Pricing: QuoteTotals{
			Subtotal: result.Totals.Subtotal.StringFixed(2),
			Discount: result.Totals.Discount.StringFixed(2),
			Total:    result.Totals.Total.StringFixed(2),
		},
	}
	if q.Warnings == nil {
		q.Warnings = []Warning{}
	}
	for _, id := range result.Lines.Products() {
		line := result.Lines[id]
		q.Items = append(q.Items, QuoteLine{
			Product:   id,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.String(),
			Price:     line.Price.String(),
		})
	}
	for _, id := range result.Savings.Products() {
		s := result.Savings[id]
		q.Savings = append(q.Savings, QuoteSaving{
			Product:      id,
			DiscountType: s.Type,
			Discount:     s.Magnitude.String(),
			Quantity:     s.Quantity,
			Amount:       s.Total.String(),
		})
	}
	return q
}

func (h *Handler) validator() *validator.Validate {
	if h.Validate != nil {
		return h.Validate
	}
	return validator.New()
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Namespace()+": "+fe.Tag())
	}
	return out
}
