// Package memory is an in-process store used by tests and local runs
// without a database. Batches stage rows and publish them in one append
// under the lock, so a failed commit leaves nothing visible.
package memory

import (
	"context"
	"fmt"
	"sync"

	"parcelas/internal/core"
	"parcelas/internal/store"
)

type Store struct {
	mu       sync.Mutex
	clients  []core.Client
	events   []core.Event
	payments []core.Payment
	seq      int

	// CommitErr, when set, makes every batch commit fail without
	// writing anything. Tests use it to exercise the atomicity
	// contract.
	CommitErr error
}

func New() *Store {
	return &Store{}
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// Batch implements store.AtomicStore.
func (s *Store) Batch() store.BatchHandle {
	return &batch{store: s}
}

type batch struct {
	store  *Store
	staged []core.Payment
	done   bool
}

func (b *batch) Add(p core.Payment) {
	b.staged = append(b.staged, p)
}

func (b *batch) Commit(_ context.Context) error {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.done {
		return fmt.Errorf("batch already committed")
	}
	b.done = true
	if s.CommitErr != nil {
		return s.CommitErr
	}
	for i := range b.staged {
		if b.staged[i].ID == "" {
			b.staged[i].ID = s.nextID("pay")
		}
	}
	// Single append keeps all-or-nothing semantics.
	s.payments = append(s.payments, b.staged...)
	return nil
}

func (s *Store) CreatePayment(_ context.Context, p core.Payment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = s.nextID("pay")
	}
	s.payments = append(s.payments, p)
	return p.ID, nil
}

func (s *Store) GetPayment(_ context.Context, ownerID, id string) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.ID == id && p.OwnerID == ownerID {
			return p, nil
		}
	}
	return core.Payment{}, core.ErrNotFound
}

func (s *Store) ListPayments(_ context.Context, ownerID string) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Payment
	for _, p := range s.payments {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListPaymentsByEvent(_ context.Context, ownerID, eventID string) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Payment
	for _, p := range s.payments {
		if p.OwnerID == ownerID && p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListPaymentsByMonth(_ context.Context, ownerID string, year, month int) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := core.MonthWindow(year, month)
	var out []core.Payment
	for _, p := range s.payments {
		if p.OwnerID != ownerID {
			continue
		}
		if p.DueDate.Before(w.Start) || !p.DueDate.Before(w.End) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) UpdatePayment(_ context.Context, ownerID, id string, patch core.PaymentPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.payments {
		if p.ID != id || p.OwnerID != ownerID {
			continue
		}
		if patch.Amount != nil {
			s.payments[i].Amount = *patch.Amount
		}
		if patch.DueDate != nil {
			s.payments[i].DueDate = *patch.DueDate
		}
		if patch.Method != nil {
			s.payments[i].Method = *patch.Method
		}
		if patch.Notes != nil {
			s.payments[i].Notes = *patch.Notes
		}
		if patch.Received != nil {
			s.payments[i].Received = *patch.Received
		}
		return nil
	}
	return core.ErrNotFound
}

func (s *Store) DeletePayment(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.payments {
		if p.ID == id && p.OwnerID == ownerID {
			s.payments = append(s.payments[:i], s.payments[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) CreateClient(_ context.Context, c core.Client) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = s.nextID("cli")
	}
	s.clients = append(s.clients, c)
	return c.ID, nil
}

func (s *Store) ListClients(_ context.Context, ownerID string) ([]core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Client
	for _, c := range s.clients {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) UpdateClient(_ context.Context, ownerID, id string, patch core.ClientPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.clients {
		if c.ID != id || c.OwnerID != ownerID {
			continue
		}
		if patch.Name != nil {
			s.clients[i].Name = *patch.Name
		}
		if patch.Phone != nil {
			s.clients[i].Phone = *patch.Phone
		}
		if patch.Email != nil {
			s.clients[i].Email = *patch.Email
		}
		if patch.Notes != nil {
			s.clients[i].Notes = *patch.Notes
		}
		return nil
	}
	return core.ErrNotFound
}

func (s *Store) DeleteClient(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.clients {
		if c.ID == id && c.OwnerID == ownerID {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) CreateEvent(_ context.Context, e core.Event) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = s.nextID("evt")
	}
	s.events = append(s.events, e)
	return e.ID, nil
}

func (s *Store) GetEvent(_ context.Context, ownerID, id string) (core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == id && e.OwnerID == ownerID {
			return e, nil
		}
	}
	return core.Event{}, core.ErrNotFound
}

func (s *Store) ListEvents(_ context.Context, ownerID string) ([]core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Event
	for _, e := range s.events {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) UpdateEvent(_ context.Context, ownerID, id string, patch core.EventPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.events {
		if e.ID != id || e.OwnerID != ownerID {
			continue
		}
		if patch.Name != nil {
			s.events[i].Name = *patch.Name
		}
		if patch.Type != nil {
			s.events[i].Type = *patch.Type
		}
		if patch.Date != nil {
			s.events[i].Date = *patch.Date
		}
		if patch.Location != nil {
			s.events[i].Location = *patch.Location
		}
		if patch.Status != nil {
			s.events[i].Status = *patch.Status
		}
		if patch.ContractTotal != nil {
			s.events[i].ContractTotal = *patch.ContractTotal
		}
		if patch.Details != nil {
			s.events[i].Details = *patch.Details
		}
		return nil
	}
	return core.ErrNotFound
}

func (s *Store) DeleteEvent(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.events {
		if e.ID == id && e.OwnerID == ownerID {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

// Ensure interface conformance
var (
	_ store.AtomicStore   = (*Store)(nil)
	_ store.PaymentWriter = (*Store)(nil)
	_ store.PaymentReader = (*Store)(nil)
	_ store.ClientStore   = (*Store)(nil)
	_ store.EventStore    = (*Store)(nil)
)
