package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error payload shared by every endpoint.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// DataEnvelope wraps successful responses.
type DataEnvelope[T any] struct {
	Data T `json:"data"`
}

// ErrorEnvelope wraps failed responses.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// JSON encodes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONData writes v inside a DataEnvelope.
func JSONData[T any](w http.ResponseWriter, status int, v T) {
	JSON(w, status, DataEnvelope[T]{Data: v})
}

// JSONError writes an ErrorEnvelope.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, ErrorEnvelope{Error: ErrorBody{Code: code, Message: message, Details: details}})
}
