// Package api holds the JSON helpers shared by every handler: response
// encoding and the {"detail": "..."} error envelope.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// internalDetail is the fixed wording for unexpected failures. No internal
// error text ever reaches the client.
const internalDetail = "internal server error"

type errorBody struct {
	Detail string `json:"detail"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// Detail writes an error response with a human-readable detail message.
func Detail(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, errorBody{Detail: detail})
}

// Internal writes a generic 500 response.
func Internal(w http.ResponseWriter) {
	Detail(w, http.StatusInternalServerError, internalDetail)
}

// ErrBadBody is returned by Decode for request bodies that are not valid JSON
// for the target type.
var ErrBadBody = errors.New("invalid request body")

// Decode reads the request body into v. Unknown fields are tolerated, a
// malformed or empty body is not.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ErrBadBody
	}
	return nil
}
