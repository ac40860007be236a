// Package store defines the ports the engine needs from the
// persistence collaborator. The sqlite implementation lives in
// internal/storage; an in-memory implementation for tests and local
// runs lives in store/memory.
package store

import (
	"context"

	"parcelas/internal/core"
)

// Ports for outbound adapters.
type (
	// BatchHandle stages payments for one atomic write. After Commit
	// returns nil every staged payment is durably readable; after an
	// error none of them are. A handle is single-use.
	BatchHandle interface {
		Add(p core.Payment)
		Commit(ctx context.Context) error
	}

	// AtomicStore hands out batch handles. This is the only write path
	// an installment group may use.
	AtomicStore interface {
		Batch() BatchHandle
	}

	PaymentWriter interface {
		CreatePayment(ctx context.Context, p core.Payment) (string, error)
		UpdatePayment(ctx context.Context, ownerID, id string, patch core.PaymentPatch) error
		DeletePayment(ctx context.Context, ownerID, id string) error
	}

	PaymentReader interface {
		GetPayment(ctx context.Context, ownerID, id string) (core.Payment, error)
		ListPayments(ctx context.Context, ownerID string) ([]core.Payment, error)
		ListPaymentsByEvent(ctx context.Context, ownerID, eventID string) ([]core.Payment, error)
		ListPaymentsByMonth(ctx context.Context, ownerID string, year, month int) ([]core.Payment, error)
	}

	ClientStore interface {
		CreateClient(ctx context.Context, c core.Client) (string, error)
		ListClients(ctx context.Context, ownerID string) ([]core.Client, error)
		UpdateClient(ctx context.Context, ownerID, id string, patch core.ClientPatch) error
		DeleteClient(ctx context.Context, ownerID, id string) error
	}

	EventStore interface {
		CreateEvent(ctx context.Context, e core.Event) (string, error)
		GetEvent(ctx context.Context, ownerID, id string) (core.Event, error)
		ListEvents(ctx context.Context, ownerID string) ([]core.Event, error)
		UpdateEvent(ctx context.Context, ownerID, id string, patch core.EventPatch) error
		DeleteEvent(ctx context.Context, ownerID, id string) error
	}
)
