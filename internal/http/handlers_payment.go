package http

import (
	"log/slog"
	"net/http"

	"parcelas/internal/core"
	"parcelas/internal/services"
)

type paymentResponse struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id"`
	EventName   string `json:"event_name,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
	Method      string `json:"method"`
	Notes       string `json:"notes,omitempty"`
	Received    bool   `json:"received"`
	Ordinal     int    `json:"ordinal,omitempty"`
	GroupSize   int    `json:"group_size,omitempty"`
	GroupID     string `json:"group_id,omitempty"`
}

func toPaymentResponse(p core.Payment) paymentResponse {
	return paymentResponse{
		ID:          p.ID,
		EventID:     p.EventID,
		EventName:   p.EventName,
		AmountCents: p.Amount.Cents,
		Currency:    p.Amount.Currency,
		Amount:      formatReais(p.Amount.Cents),
		DueDate:     formatDate(p.DueDate),
		Method:      string(p.Method),
		Notes:       p.Notes,
		Received:    p.Received,
		Ordinal:     p.Ordinal,
		GroupSize:   p.GroupSize,
		GroupID:     p.GroupID,
	}
}

type installmentEntry struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	DueDate  string `json:"due_date"`
	Method   string `json:"method"`
	Notes    string `json:"notes"`
	Received bool   `json:"received"`
}

// installmentsRequest commits a schedule against one event. With Count
// set the schedule is an equal split from the contract total; with
// Entries set the operator supplies every amount by hand. GroupID is
// optional and only used to retry a failed commit with the same id.
type installmentsRequest struct {
	Count          int                `json:"count"`
	StartDate      string             `json:"start_date"`
	Cadence        string             `json:"cadence"`
	Method         string             `json:"method"`
	Entries        []installmentEntry `json:"entries"`
	GroupID        string             `json:"group_id"`
	ToleranceCents int64              `json:"tolerance_cents"`
}

func (s *Server) buildSchedule(req installmentsRequest, total core.Money) ([]core.InstallmentSpec, error) {
	if len(req.Entries) > 0 {
		entries := make([]core.InstallmentSpec, 0, len(req.Entries))
		for _, e := range req.Entries {
			amount, err := core.ParseMoney(e.Amount, e.Currency)
			if err != nil {
				return nil, err
			}
			due, err := parseDate(e.DueDate)
			if err != nil {
				return nil, err
			}
			method := core.PaymentMethod(e.Method)
			if e.Method == "" {
				method = core.Pix
			}
			entries = append(entries, core.InstallmentSpec{
				Amount:   amount,
				DueDate:  due,
				Method:   method,
				Notes:    sanitizeInput(e.Notes),
				Received: e.Received,
			})
		}
		return core.ManualSplit(entries), nil
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	step, err := services.StepFuncFor(services.Cadence(req.Cadence))
	if err != nil {
		return nil, err
	}
	return core.EqualSplit(core.EqualSplitParams{
		Total:  total,
		Count:  req.Count,
		Start:  start,
		Step:   step,
		Method: core.PaymentMethod(req.Method),
	})
}

func (s *Server) handleCommitInstallments(w http.ResponseWriter, r *http.Request) {
	var req installmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	owner := ownerID(r)
	event, err := s.store.GetEvent(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	schedule, err := s.buildSchedule(req, event.ContractTotal)
	if err != nil {
		respondError(w, r, err)
		return
	}

	tolerance := req.ToleranceCents
	if tolerance == 0 {
		tolerance = s.toleranceCents
	}

	groupID, group, err := s.service.CommitGroup(r.Context(), services.CommitGroupParams{
		EventID:        event.ID,
		EventName:      event.Name,
		OwnerID:        owner,
		ContractTotal:  event.ContractTotal,
		Schedule:       schedule,
		GroupID:        req.GroupID,
		ToleranceCents: tolerance,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	for _, p := range group {
		s.invalidateDashboards(owner, p.DueDate)
	}

	out := make([]paymentResponse, 0, len(group))
	for _, p := range group {
		out = append(out, toPaymentResponse(p))
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"group_id":     groupID,
		"installments": out,
	})
}

// previewRequest builds a schedule without persisting anything, so the
// operator can review amounts and due dates before committing.
type previewRequest struct {
	Total     string `json:"total"`
	Currency  string `json:"currency"`
	Count     int    `json:"count"`
	StartDate string `json:"start_date"`
	Cadence   string `json:"cadence"`
	Method    string `json:"method"`
}

func (s *Server) handlePreviewInstallments(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	total, err := core.ParseMoney(req.Total, req.Currency)
	if err != nil {
		respondError(w, r, err)
		return
	}
	schedule, err := s.buildSchedule(installmentsRequest{
		Count:     req.Count,
		StartDate: req.StartDate,
		Cadence:   req.Cadence,
		Method:    req.Method,
	}, total)
	if err != nil {
		respondError(w, r, err)
		return
	}

	type previewEntry struct {
		AmountCents int64  `json:"amount_cents"`
		Amount      string `json:"amount"`
		DueDate     string `json:"due_date"`
		Method      string `json:"method"`
		Notes       string `json:"notes"`
	}
	out := make([]previewEntry, 0, len(schedule))
	for _, spec := range schedule {
		out = append(out, previewEntry{
			AmountCents: spec.Amount.Cents,
			Amount:      formatReais(spec.Amount.Cents),
			DueDate:     formatDate(spec.DueDate),
			Method:      string(spec.Method),
			Notes:       spec.Notes,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"total_cents":  total.Cents,
		"installments": out,
	})
}

type paymentRequest struct {
	EventID  string `json:"event_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	DueDate  string `json:"due_date"`
	Method   string `json:"method"`
	Notes    string `json:"notes"`
	Received bool   `json:"received"`
}

type paymentPatchRequest struct {
	Amount   *string `json:"amount"`
	Currency string  `json:"currency"`
	DueDate  *string `json:"due_date"`
	Method   *string `json:"method"`
	Notes    *string `json:"notes"`
	Received *bool   `json:"received"`
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)

	var (
		payments []core.Payment
		err      error
	)
	if r.URL.Query().Has("year") || r.URL.Query().Has("month") {
		params, perr := ParseMonthParams(r)
		if perr != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: perr.Error()})
			return
		}
		payments, err = s.store.ListPaymentsByMonth(r.Context(), owner, params.Year, params.Month)
	} else {
		payments, err = s.store.ListPayments(r.Context(), owner)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := s.store.GetPayment(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	amount, err := core.ParseMoney(req.Amount, req.Currency)
	if err != nil {
		respondError(w, r, err)
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	owner := ownerID(r)
	eventName := ""
	if req.EventID != "" {
		if event, err := s.store.GetEvent(r.Context(), owner, req.EventID); err == nil {
			eventName = event.Name
		}
	}

	payment := core.Payment{
		EventID:   req.EventID,
		EventName: eventName,
		Amount:    amount,
		DueDate:   due,
		Method:    core.PaymentMethod(req.Method),
		Notes:     sanitizeInput(req.Notes),
		Received:  req.Received,
		OwnerID:   owner,
	}

	id, err := s.service.CreatePayment(r.Context(), payment)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateDashboards(owner, due)
	slog.InfoContext(r.Context(), "Payment created",
		"payment_id", id,
		"event_id", req.EventID,
		"amount_cents", amount.Cents,
		"owner_id", owner)
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var patch core.PaymentPatch
	patch.Notes = req.Notes
	patch.Received = req.Received
	if req.Amount != nil {
		amount, err := core.ParseMoney(*req.Amount, req.Currency)
		if err != nil {
			respondError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		patch.DueDate = &due
	}
	if req.Method != nil {
		method := core.PaymentMethod(*req.Method)
		patch.Method = &method
	}

	owner := ownerID(r)
	if err := s.service.UpdatePayment(r.Context(), owner, r.PathValue("id"), patch); err != nil {
		respondError(w, r, err)
		return
	}

	var due core.Date
	if patch.DueDate != nil {
		due = *patch.DueDate
	}
	s.invalidateDashboards(owner, due)
	respondJSON(w, http.StatusOK, map[string]string{"id": r.PathValue("id")})
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if err := s.service.DeletePayment(r.Context(), owner, r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboards(owner, core.Date{})
	respondJSON(w, http.StatusNoContent, nil)
}
