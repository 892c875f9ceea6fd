package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteErrorAppError(t *testing.T) {
	base := errors.New("boom")
	appErr := NewAppError("UNPRICED_ITEM", "cart contains unpriced items", http.StatusUnprocessableEntity, base)
	appErr.Details = []string{"caviar"}

	rr := httptest.NewRecorder()
	WriteError(rr, fmt.Errorf("wrapped: %w", appErr))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "UNPRICED_ITEM", body.Error.Code)
	require.Equal(t, []any{"caviar"}, body.Error.Details)
	require.ErrorIs(t, appErr, base)
}

func TestWriteErrorHidesPlainErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("secret path /etc/prices.json"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "secret")
}

func TestAppErrorDefaults(t *testing.T) {
	appErr := &AppError{Message: "bad cart"}
	require.Equal(t, http.StatusBadRequest, appErr.Status())
	require.Equal(t, ": bad cart", appErr.Error())

	rr := httptest.NewRecorder()
	WriteError(rr, appErr)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body ErrorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "BAD_REQUEST", body.Error.Code)
	require.Equal(t, "bad cart", body.Error.Message)
}
