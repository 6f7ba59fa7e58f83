package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"realtycore/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, v interface{}) {
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// decodeJSON reads the request body into dst. Unknown fields are ignored.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &storage.ErrValidation{Fields: []storage.FieldError{{Field: "body", Message: err.Error()}}}
	}
	return nil
}

// handleError maps domain errors to status codes. Anything unrecognised is
// logged and reported as a 500 without details.
func handleError(w http.ResponseWriter, r *http.Request, lg *zap.SugaredLogger, err error) {
	var (
		validation *storage.ErrValidation
		invalid    *storage.ErrInvalidOperation
		forbidden  *storage.ErrForbidden
		notFound   *storage.ErrNotFound
		duplicate  *storage.ErrDuplicate
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": validation.Fields})
	case errors.As(err, &invalid):
		writeMessage(w, http.StatusBadRequest, invalid.Reason)
	case errors.As(err, &forbidden):
		writeMessage(w, http.StatusForbidden, forbidden.Error())
	case errors.As(err, &notFound):
		writeMessage(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &duplicate):
		writeMessage(w, http.StatusConflict, duplicate.Error())
	default:
		lg.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// fields accumulates input problems for a single ErrValidation.
type fields []storage.FieldError

func (f *fields) check(ok bool, field, msg string) {
	if !ok {
		*f = append(*f, storage.FieldError{Field: field, Message: msg})
	}
}

func (f fields) err() error {
	if len(f) == 0 {
		return nil
	}
	return &storage.ErrValidation{Fields: f}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, &storage.ErrValidation{Fields: []storage.FieldError{{Field: name, Message: "must be a positive integer"}}}
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &storage.ErrValidation{Fields: []storage.FieldError{{Field: name, Message: fmt.Sprintf("invalid integer %q", raw)}}}
	}
	return n, nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
