// Package httpx holds the JSON response helpers shared by every handler.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/logger"
)

// ErrorBody is the wire shape of every failed request.
type ErrorBody struct {
	Error string      `json:"error"`
	Kind  svcErr.Kind `json:"kind"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response", "err", err)
	}
}

// Error renders err as {"error", "kind"}. Internal causes are logged and
// replaced by a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	err = svcErr.Map(err)
	kind := svcErr.KindOf(err)
	if kind == svcErr.KindInternal {
		logger.FromContext(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "err", err)
	}
	JSON(w, r, svcErr.HTTPStatus(kind), ErrorBody{Error: svcErr.Message(err), Kind: kind})
}

// MaxBodyBytes caps JSON request bodies. Image uploads do not go through
// Decode.
const MaxBodyBytes = 64 << 10

// Decode reads a JSON request body of at most MaxBodyBytes into v.
// Malformed or oversized bodies are a validation error.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return svcErr.InvalidArgument("request body too large")
		}
		return svcErr.InvalidArgument("invalid JSON body")
	}
	return nil
}
