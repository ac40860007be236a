package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"parcelas/internal/idgen"
	"parcelas/internal/services"
	"parcelas/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	seq := 0
	ids := idgen.Func(func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	})
	service := services.NewPaymentService(st, st, nil, ids)
	srv := NewServer(":0", st, service, ids, 1)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, st
}

func doJSON(t *testing.T, srv *Server, method, path, owner, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rr.Body.String())
	}
	return out
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "", "")
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestClientCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/clients", "o1",
		`{"name":"Ana Souza","phone":"11 99999-0000","email":"ana@example.com"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decodeBody[map[string]string](t, rr)
	id := created["id"]
	if id == "" {
		t.Fatal("expected client id")
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/clients", "o1", "")
	clients := decodeBody[[]clientResponse](t, rr)
	if len(clients) != 1 || clients[0].Name != "Ana Souza" {
		t.Fatalf("unexpected list: %+v", clients)
	}

	rr = doJSON(t, srv, http.MethodPatch, "/api/clients/"+id, "o1", `{"phone":"11 98888-0000"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status=%d", rr.Code)
	}

	// Another owner cannot touch it
	rr = doJSON(t, srv, http.MethodDelete, "/api/clients/"+id, "o2", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cross-owner delete status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/clients/"+id, "o1", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
}

func TestCreateClientRequiresName(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/api/clients", "o1", `{"name":"   "}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func createEvent(t *testing.T, srv *Server, owner, total string) string {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/events", owner,
		`{"name":"Casamento Ana","type":"wedding","date":"2026-09-12","contract_total":"`+total+`"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create event status=%d body=%s", rr.Code, rr.Body.String())
	}
	return decodeBody[map[string]string](t, rr)["id"]
}

func TestEventCreateAndGet(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createEvent(t, srv, "o1", "1500,00")

	rr := doJSON(t, srv, http.MethodGet, "/api/events/"+id, "o1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status=%d", rr.Code)
	}
	event := decodeBody[eventResponse](t, rr)
	if event.ContractTotalCents != 150000 {
		t.Fatalf("contract total = %d, want 150000", event.ContractTotalCents)
	}
	if event.Status != "planning" {
		t.Fatalf("default status = %q", event.Status)
	}
	if event.Date != "2026-09-12" {
		t.Fatalf("date = %q", event.Date)
	}
}

func TestCommitEqualInstallments(t *testing.T) {
	srv, _ := newTestServer(t)
	eventID := createEvent(t, srv, "o1", "10,00")

	rr := doJSON(t, srv, http.MethodPost, "/api/events/"+eventID+"/installments", "o1",
		`{"count":3,"start_date":"2026-01-31","cadence":"monthly","method":"pix"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("commit status=%d body=%s", rr.Code, rr.Body.String())
	}

	resp := decodeBody[struct {
		GroupID      string            `json:"group_id"`
		Installments []paymentResponse `json:"installments"`
	}](t, rr)

	if resp.GroupID == "" {
		t.Fatal("expected group id")
	}
	if len(resp.Installments) != 3 {
		t.Fatalf("got %d installments", len(resp.Installments))
	}

	var sum int64
	for i, inst := range resp.Installments {
		sum += inst.AmountCents
		if inst.Ordinal != i+1 {
			t.Errorf("installment %d ordinal = %d", i, inst.Ordinal)
		}
		if inst.GroupSize != 3 || inst.GroupID != resp.GroupID {
			t.Errorf("installment %d group stamp = %d/%q", i, inst.GroupSize, inst.GroupID)
		}
	}
	if sum != 1000 {
		t.Fatalf("installments sum to %d cents, want 1000", sum)
	}
	if resp.Installments[0].AmountCents != 334 {
		t.Fatalf("first installment = %d, want 334", resp.Installments[0].AmountCents)
	}
	if resp.Installments[0].Notes != "Entrada" {
		t.Fatalf("first installment note = %q", resp.Installments[0].Notes)
	}
	// Jan 31 start clamps February
	if resp.Installments[1].DueDate != "2026-02-28" {
		t.Fatalf("second due date = %q", resp.Installments[1].DueDate)
	}
}

func TestCommitManualScheduleMismatchRejected(t *testing.T) {
	srv, st := newTestServer(t)
	eventID := createEvent(t, srv, "o1", "10,00")

	rr := doJSON(t, srv, http.MethodPost, "/api/events/"+eventID+"/installments", "o1",
		`{"entries":[
			{"amount":"5,00","due_date":"2026-01-10"},
			{"amount":"4,50","due_date":"2026-02-10"}
		]}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	resp := decodeBody[errorResponse](t, rr)
	if resp.DeltaCents == nil || *resp.DeltaCents != 50 {
		t.Fatalf("delta = %v, want 50", resp.DeltaCents)
	}

	// Nothing persisted
	payments, err := st.ListPayments(context.Background(), "o1")
	if err != nil || len(payments) != 0 {
		t.Fatalf("expected no payments, got %d (err %v)", len(payments), err)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	srv, st := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/installments/preview", "o1",
		`{"total":"1000,00","count":4,"start_date":"2026-03-01","cadence":"monthly"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	resp := decodeBody[struct {
		TotalCents   int64 `json:"total_cents"`
		Installments []struct {
			AmountCents int64  `json:"amount_cents"`
			DueDate     string `json:"due_date"`
		} `json:"installments"`
	}](t, rr)
	if len(resp.Installments) != 4 {
		t.Fatalf("got %d entries", len(resp.Installments))
	}
	var sum int64
	for _, e := range resp.Installments {
		sum += e.AmountCents
	}
	if sum != resp.TotalCents {
		t.Fatalf("preview sums to %d, want %d", sum, resp.TotalCents)
	}

	payments, _ := st.ListPayments(context.Background(), "o1")
	if len(payments) != 0 {
		t.Fatalf("preview must not persist, found %d payments", len(payments))
	}
}

func TestCommitRetryReusesGroupID(t *testing.T) {
	srv, _ := newTestServer(t)
	eventID := createEvent(t, srv, "o1", "9,00")

	body := `{"count":3,"start_date":"2026-04-01","group_id":"retry-group"}`
	rr := doJSON(t, srv, http.MethodPost, "/api/events/"+eventID+"/installments", "o1", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[struct {
		GroupID string `json:"group_id"`
	}](t, rr)
	if resp.GroupID != "retry-group" {
		t.Fatalf("group id = %q, want retry-group", resp.GroupID)
	}
}

func TestPaymentPatchMarkReceived(t *testing.T) {
	srv, _ := newTestServer(t)
	eventID := createEvent(t, srv, "o1", "10,00")

	rr := doJSON(t, srv, http.MethodPost, "/api/events/"+eventID+"/installments", "o1",
		`{"count":2,"start_date":"2026-05-01"}`)
	resp := decodeBody[struct {
		Installments []paymentResponse `json:"installments"`
	}](t, rr)
	paymentID := resp.Installments[0].ID

	rr = doJSON(t, srv, http.MethodPatch, "/api/payments/"+paymentID, "o1", `{"received":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/payments/"+paymentID, "o1", "")
	payment := decodeBody[paymentResponse](t, rr)
	if !payment.Received {
		t.Fatal("payment should be marked received")
	}
	if payment.Ordinal != 1 || payment.GroupSize != 2 {
		t.Fatalf("group stamps changed: %d/%d", payment.Ordinal, payment.GroupSize)
	}
}

func TestDashboardSummaryByMonth(t *testing.T) {
	srv, _ := newTestServer(t)
	eventID := createEvent(t, srv, "o1", "12,00")

	rr := doJSON(t, srv, http.MethodPost, "/api/events/"+eventID+"/installments", "o1",
		`{"count":3,"start_date":"2026-06-15"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("commit status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/dashboard/summary?year=2026&month=6", "o1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status=%d", rr.Code)
	}
	summary := decodeBody[summaryResponse](t, rr)
	if summary.Count != 1 {
		t.Fatalf("count = %d, want 1 (only June installment)", summary.Count)
	}
	if summary.TotalPendingCents != 400 {
		t.Fatalf("pending = %d, want 400", summary.TotalPendingCents)
	}
}

func TestDashboardUpcomingSortedAndLimited(t *testing.T) {
	srv, _ := newTestServer(t)
	eventID := createEvent(t, srv, "o1", "30,00")

	rr := doJSON(t, srv, http.MethodPost, "/api/events/"+eventID+"/installments", "o1",
		`{"count":3,"start_date":"2100-01-15"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("commit status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/dashboard/upcoming?limit=2", "o1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("upcoming status=%d", rr.Code)
	}
	upcoming := decodeBody[[]paymentResponse](t, rr)
	if len(upcoming) != 2 {
		t.Fatalf("got %d entries, want 2", len(upcoming))
	}
	if upcoming[0].DueDate > upcoming[1].DueDate {
		t.Fatalf("not sorted: %q then %q", upcoming[0].DueDate, upcoming[1].DueDate)
	}
}

func TestEventReconciliation(t *testing.T) {
	srv, _ := newTestServer(t)
	eventID := createEvent(t, srv, "o1", "10,00")

	rr := doJSON(t, srv, http.MethodPost, "/api/events/"+eventID+"/installments", "o1",
		`{"entries":[
			{"amount":"6,00","due_date":"2026-01-10"},
			{"amount":"4,00","due_date":"2026-02-10"}
		]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("commit status=%d body=%s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[struct {
		Installments []paymentResponse `json:"installments"`
	}](t, rr)

	rr = doJSON(t, srv, http.MethodPatch, "/api/payments/"+resp.Installments[0].ID, "o1", `{"received":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/events/"+eventID, "o1", "")
	event := decodeBody[eventResponse](t, rr)
	if event.Reconciliation == nil {
		t.Fatal("expected reconciliation block")
	}
	rec := event.Reconciliation
	if rec.ScheduledCents != 1000 || rec.ReceivedCents != 600 || rec.PendingCents != 400 {
		t.Fatalf("reconciliation = %+v", rec)
	}
	if rec.OutstandingCents != 0 {
		t.Fatalf("outstanding = %d, want 0", rec.OutstandingCents)
	}
	if rec.PaymentCount != 2 {
		t.Fatalf("payment count = %d", rec.PaymentCount)
	}
}

func TestOwnerScopingOnEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createEvent(t, srv, "o1", "10,00")

	rr := doJSON(t, srv, http.MethodGet, "/api/events/"+id, "o2", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cross-owner get status=%d", rr.Code)
	}
}

func TestInvalidJSONBodyRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/api/clients", "o1", `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}
