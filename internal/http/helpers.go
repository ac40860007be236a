package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"parcelas/internal/core"
	applog "parcelas/internal/log"
)

// OwnerHeader scopes every request to one back-office account.
const OwnerHeader = "X-Owner-ID"

const defaultOwner = "default"

func ownerID(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(OwnerHeader)); v != "" {
		return v
	}
	return defaultOwner
}

// MonthParams holds parsed year/month values from query parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using
// the current month as default.
func ParseMonthParams(r *http.Request) (MonthParams, error) {
	now := time.Now()
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("invalid year %q", v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return params, fmt.Errorf("invalid month %q", v)
		}
		params.Month = m
	}
	return params, nil
}

const dateLayout = "2006-01-02"

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

func formatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// formatReais renders cents as "R$ 1.234,56" for display fields.
func formatReais(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	reais := cents / 100
	rem := cents % 100

	digits := strconv.FormatInt(reais, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	s := "R$ " + b.String() + "," + fmt.Sprintf("%02d", rem)
	if neg {
		return "-" + s
	}
	return s
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

type errorResponse struct {
	Error      string `json:"error"`
	DeltaCents *int64 `json:"delta_cents,omitempty"`
}

// respondError maps domain errors onto HTTP status codes. Schedule
// mismatches carry the signed delta so clients can show what is missing
// or in excess.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var mismatch *core.ScheduleMismatchError
	if errors.As(err, &mismatch) {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      mismatch.Error(),
			DeltaCents: &mismatch.DeltaCents,
		})
		return
	}

	var persistence *core.PersistenceError
	if errors.As(err, &persistence) {
		slog.ErrorContext(r.Context(), "Persistence failure",
			applog.NewFields().
				WithComponent(applog.ComponentHTTP).
				WithError(err).ToSlice()...)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "persistence failure, nothing was written"})
		return
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidCount),
		errors.Is(err, core.ErrEmptySchedule),
		errors.Is(err, core.ErrCurrencyMismatch),
		errors.Is(err, core.ErrInvalidMethod),
		errors.Is(err, core.ErrEmptyName):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err,
			applog.FieldPath, r.URL.Path)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
