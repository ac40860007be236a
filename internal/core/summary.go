package core

import (
	"sort"
	"time"
)

// Summary is the received/pending rollup shown on the dashboard.
type Summary struct {
	TotalReceived Money
	TotalPending  Money
	Count         int
}

// Window is a half-open [Start, End) range over due dates. A zero Start
// or End leaves that side unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

// MonthWindow returns [first of month, first of next month) in UTC, so
// Feb 29 of a leap year is inside and Mar 1 is not.
func MonthWindow(year, month int) Window {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// Summarize folds payments into received and pending totals. A non-nil
// window restricts by due date; a non-nil receivedFilter keeps only
// matching payments (the other total stays zero). Pure: the input is
// never modified and repeated calls yield identical results.
func Summarize(payments []Payment, window *Window, receivedFilter *bool) Summary {
	currency := DefaultCurrency
	if len(payments) > 0 {
		currency = normCurrency(payments[0].Amount.Currency)
	}
	s := Summary{
		TotalReceived: Money{Currency: currency},
		TotalPending:  Money{Currency: currency},
	}
	for _, p := range payments {
		if window != nil && !window.contains(p.DueDate.Time) {
			continue
		}
		if receivedFilter != nil && p.Received != *receivedFilter {
			continue
		}
		if p.Received {
			s.TotalReceived = s.TotalReceived.Add(p.Amount)
		} else {
			s.TotalPending = s.TotalPending.Add(p.Amount)
		}
		s.Count++
	}
	return s
}

// ByMonth summarizes payments due in the given calendar month.
func ByMonth(payments []Payment, year, month int) Summary {
	w := MonthWindow(year, month)
	return Summarize(payments, &w, nil)
}

// UpcomingPending returns at most limit not-yet-received payments due
// on or after asOf, soonest first. The sort is stable: payments with
// the same due date keep their input order so dashboards reproduce
// exactly across refreshes. limit <= 0 means no cap.
func UpcomingPending(payments []Payment, asOf time.Time, limit int) []Payment {
	var out []Payment
	for _, p := range payments {
		if p.Received || p.DueDate.Before(asOf) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
