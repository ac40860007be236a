package http

import (
	"log/slog"
	"net/http"
	"time"

	"parcelas/internal/core"
)

type eventRequest struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Date          string `json:"date"`
	Location      string `json:"location"`
	ClientID      string `json:"client_id"`
	ClientName    string `json:"client_name"`
	Status        string `json:"status"`
	ContractTotal string `json:"contract_total"`
	Currency      string `json:"currency"`
	Details       string `json:"details"`
}

type eventPatchRequest struct {
	Name          *string `json:"name"`
	Type          *string `json:"type"`
	Date          *string `json:"date"`
	Location      *string `json:"location"`
	Status        *string `json:"status"`
	ContractTotal *string `json:"contract_total"`
	Currency      string  `json:"currency"`
	Details       *string `json:"details"`
}

type eventResponse struct {
	ID                 string               `json:"id"`
	Name               string               `json:"name"`
	Type               string               `json:"type"`
	Date               string               `json:"date"`
	Location           string               `json:"location,omitempty"`
	ClientID           string               `json:"client_id,omitempty"`
	ClientName         string               `json:"client_name,omitempty"`
	Status             string               `json:"status"`
	ContractTotalCents int64                `json:"contract_total_cents"`
	Currency           string               `json:"currency"`
	ContractTotal      string               `json:"contract_total"`
	Details            string               `json:"details,omitempty"`
	CreatedAt          string               `json:"created_at"`
	Reconciliation     *eventReconciliation `json:"reconciliation,omitempty"`
}

// eventReconciliation compares an event's scheduled installments with
// its contract total. OutstandingCents is contract minus scheduled:
// positive means money not yet scheduled, negative means excess.
type eventReconciliation struct {
	ScheduledCents   int64 `json:"scheduled_cents"`
	ReceivedCents    int64 `json:"received_cents"`
	PendingCents     int64 `json:"pending_cents"`
	OutstandingCents int64 `json:"outstanding_cents"`
	PaymentCount     int   `json:"payment_count"`
}

func reconcileEvent(e core.Event, payments []core.Payment) *eventReconciliation {
	rec := &eventReconciliation{PaymentCount: len(payments)}
	for _, p := range payments {
		rec.ScheduledCents += p.Amount.Cents
		if p.Received {
			rec.ReceivedCents += p.Amount.Cents
		} else {
			rec.PendingCents += p.Amount.Cents
		}
	}
	rec.OutstandingCents = e.ContractTotal.Cents - rec.ScheduledCents
	return rec
}

func toEventResponse(e core.Event) eventResponse {
	return eventResponse{
		ID:                 e.ID,
		Name:               e.Name,
		Type:               string(e.Type),
		Date:               formatDate(e.Date),
		Location:           e.Location,
		ClientID:           e.ClientID,
		ClientName:         e.ClientName,
		Status:             string(e.Status),
		ContractTotalCents: e.ContractTotal.Cents,
		Currency:           e.ContractTotal.Currency,
		ContractTotal:      formatReais(e.ContractTotal.Cents),
		CreatedAt:          e.CreatedAt.Format(dateLayout),
		Details:            e.Details,
	}
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents(r.Context(), ownerID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	event, err := s.store.GetEvent(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := toEventResponse(event)
	payments, err := s.store.ListPaymentsByEvent(r.Context(), owner, event.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp.Reconciliation = reconcileEvent(event, payments)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	total, err := core.ParseMoney(req.ContractTotal, req.Currency)
	if err != nil {
		respondError(w, r, err)
		return
	}

	owner := ownerID(r)
	clientName := sanitizeInput(req.ClientName)
	if req.ClientID != "" && clientName == "" {
		// Snapshot the client name so the event survives client edits.
		clients, err := s.store.ListClients(r.Context(), owner)
		if err == nil {
			for _, c := range clients {
				if c.ID == req.ClientID {
					clientName = c.Name
					break
				}
			}
		}
	}

	status := core.EventStatus(req.Status)
	if req.Status == "" {
		status = core.Planning
	}

	event := core.Event{
		ID:            s.ids.NewID(),
		Name:          sanitizeInput(req.Name),
		Type:          core.EventType(req.Type),
		Date:          date,
		Location:      sanitizeInput(req.Location),
		ClientID:      req.ClientID,
		ClientName:    clientName,
		Status:        status,
		ContractTotal: total,
		Details:       sanitizeInput(req.Details),
		OwnerID:       owner,
		CreatedAt:     time.Now().UTC(),
	}
	if err := event.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.store.CreateEvent(r.Context(), event)
	if err != nil {
		respondError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Event created",
		"event_id", id,
		"event_type", event.Type,
		"contract_total_cents", event.ContractTotal.Cents,
		"owner_id", owner)
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var patch core.EventPatch
	patch.Name = req.Name
	patch.Location = req.Location
	patch.Details = req.Details
	if req.Type != nil {
		t := core.EventType(*req.Type)
		if !t.Valid() {
			respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid event type"})
			return
		}
		patch.Type = &t
	}
	if req.Status != nil {
		st := core.EventStatus(*req.Status)
		if !st.Valid() {
			respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid event status"})
			return
		}
		patch.Status = &st
	}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		patch.Date = &d
	}
	if req.ContractTotal != nil {
		total, err := core.ParseMoney(*req.ContractTotal, req.Currency)
		if err != nil {
			respondError(w, r, err)
			return
		}
		patch.ContractTotal = &total
	}

	if err := s.store.UpdateEvent(r.Context(), ownerID(r), r.PathValue("id"), patch); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": r.PathValue("id")})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteEvent(r.Context(), ownerID(r), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListEventPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.store.ListPaymentsByEvent(r.Context(), ownerID(r), r.PathValue("id"))
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
