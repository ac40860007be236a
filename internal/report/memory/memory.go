// Package memory is an in-memory report writer for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"parcelas/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.Payment

	// AppendErr, when set, makes every Append fail with it.
	AppendErr error
}

func New() *Store {
	return &Store{}
}

// Append stores the payment and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, p core.Payment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return "", s.AppendErr
	}
	s.items = append(s.items, p)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Items returns a copy of everything appended so far.
func (s *Store) Items() []core.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Payment(nil), s.items...)
}
