package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/security"
	"github.com/foliodev/folio/internal/store"
)

// maxFilterLen caps category and tag filters taken from the query string.
const maxFilterLen = 64

// errTrailingData is returned by readJSON when the body holds more than one
// JSON value.
var errTrailingData = errors.New("unexpected data after JSON body")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error envelope. The optional ctx map adds
// machine-readable detail, e.g. the detected type of a rejected upload.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// writeStoreError maps store sentinels to 404 and 400 and logs anything else
// as a 500 without exposing the cause.
func writeStoreError(w http.ResponseWriter, logger *slog.Logger, err error, notFound, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusBadRequest, fallback+": a document with the same key already exists")
	default:
		logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// readJSON decodes exactly one JSON value from the request body into v.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}

// queryLimit reads the limit parameter. Missing, malformed and non-positive
// values yield 0, meaning no limit; larger values are capped at max.
func queryLimit(r *http.Request, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

// queryFilter reads a free-text filter such as a category or tag. Control
// characters are stripped and overlong values are truncated, so the store
// never sees raw query input.
func queryFilter(r *http.Request, key string) string {
	v := security.SanitizeString(r.URL.Query().Get(key))
	if runes := []rune(v); len(runes) > maxFilterLen {
		v = string(runes[:maxFilterLen])
	}
	return v
}

// queryFlag reports whether a boolean query parameter is "true" or "1".
func queryFlag(r *http.Request, key string) bool {
	val := r.URL.Query().Get(key)
	return val == "true" || val == "1"
}
