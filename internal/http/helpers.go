package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"carteira/internal/core"
	"carteira/internal/store"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrItemNotFound),
		errors.Is(err, core.ErrNothingToUndo),
		errors.Is(err, store.ErrCategoryNotFound),
		errors.Is(err, store.ErrVariableNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrAlreadyGenerated),
		errors.Is(err, store.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrItemInactive),
		errors.Is(err, core.ErrBeforeActivation),
		errors.Is(err, core.ErrAfterDeactivation),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDirection),
		errors.Is(err, core.ErrInvalidPeriodDay),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrInvalidWindow):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrInvalidMonthKey):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer io.Copy(io.Discard, body)

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// monthParam reads a month from the query string, defaulting to the current
// month.
func monthParam(r *http.Request) (core.MonthKey, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.MonthOf(time.Now()), nil
	}
	return core.ParseMonthKey(v)
}

// monthPath reads a month from the {month} path segment.
func monthPath(r *http.Request) (core.MonthKey, error) {
	return core.ParseMonthKey(r.PathValue("month"))
}

func directionParam(r *http.Request) (core.Direction, error) {
	switch v := strings.TrimSpace(r.URL.Query().Get("direction")); v {
	case "":
		return "", nil
	case string(core.Expense):
		return core.Expense, nil
	case string(core.Income):
		return core.Income, nil
	default:
		return "", core.ErrInvalidDirection
	}
}

// parseAmount converts a decimal string such as "12.34" to Money.
func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// parseDate accepts "2006-01-02"; empty means the zero time.
func parseDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// sanitize trims whitespace and strips control characters from user text.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
