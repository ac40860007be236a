package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"parcelas/internal/core"
)

type summaryResponse struct {
	TotalReceivedCents int64  `json:"total_received_cents"`
	TotalPendingCents  int64  `json:"total_pending_cents"`
	TotalReceived      string `json:"total_received"`
	TotalPending       string `json:"total_pending"`
	Count              int    `json:"count"`
	Year               int    `json:"year,omitempty"`
	Month              int    `json:"month,omitempty"`
}

// handleDashboardSummary returns received/pending totals, either for
// one calendar month (?year=&month=) or across all payments.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	byMonth := r.URL.Query().Has("year") || r.URL.Query().Has("month")

	var (
		summary core.Summary
		params  MonthParams
	)
	if byMonth {
		var err error
		params, err = ParseMonthParams(r)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		key := summaryKey(owner, params.Year, params.Month)
		if cached, found := s.summaryCache.Get(key); found {
			slog.DebugContext(r.Context(), "Summary cache hit",
				"owner_id", owner, "year", params.Year, "month", params.Month)
			summary = cached
		} else {
			payments, err := s.store.ListPaymentsByMonth(r.Context(), owner, params.Year, params.Month)
			if err != nil {
				respondError(w, r, err)
				return
			}
			summary = core.ByMonth(payments, params.Year, params.Month)
			s.summaryCache.Set(key, summary)
		}
	} else {
		payments, err := s.store.ListPayments(r.Context(), owner)
		if err != nil {
			respondError(w, r, err)
			return
		}
		summary = core.Summarize(payments, nil, nil)
	}

	resp := summaryResponse{
		TotalReceivedCents: summary.TotalReceived.Cents,
		TotalPendingCents:  summary.TotalPending.Cents,
		TotalReceived:      formatReais(summary.TotalReceived.Cents),
		TotalPending:       formatReais(summary.TotalPending.Cents),
		Count:              summary.Count,
	}
	if byMonth {
		resp.Year = params.Year
		resp.Month = params.Month
	}
	respondJSON(w, http.StatusOK, resp)
}

const defaultUpcomingLimit = 10

// handleDashboardUpcoming lists pending payments due from today on,
// soonest first. Same due date keeps insertion order, so the list is
// stable across refreshes.
func (s *Server) handleDashboardUpcoming(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)

	limit := defaultUpcomingLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	upcoming, found := s.upcomingCache.Get(owner)
	if !found {
		payments, err := s.store.ListPayments(r.Context(), owner)
		if err != nil {
			respondError(w, r, err)
			return
		}
		today := time.Now().UTC().Truncate(24 * time.Hour)
		upcoming = core.UpcomingPending(payments, today, 0)
		s.upcomingCache.Set(owner, upcoming)
	}

	if limit < len(upcoming) {
		upcoming = upcoming[:limit]
	}

	out := make([]paymentResponse, 0, len(upcoming))
	for _, p := range upcoming {
		out = append(out, toPaymentResponse(p))
	}
	respondJSON(w, http.StatusOK, out)
}
