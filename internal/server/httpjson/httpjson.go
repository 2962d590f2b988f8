// Package httpjson holds the JSON request/response helpers shared by all HTTP handlers.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"saysense/backend/internal/apperr"
)

// maxBodyBytes bounds request bodies; audio analysis payloads are the largest
// legitimate requests (base64 chunks).
const maxBodyBytes = 16 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// Write serializes v as JSON with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// Error maps err through the apperr taxonomy and writes a JSON error body.
// Internal errors are logged but their details are not leaked to the client.
func Error(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("internal error", "error", err)
		msg = "internal server error"
	}
	Write(w, status, errorBody{Error: msg})
}

// Decode reads the request body into v. Returns a Validation error on
// malformed JSON or unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}
	// A second token means trailing garbage after the JSON document.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validationf("invalid request body: unexpected trailing data")
	}
	return nil
}
