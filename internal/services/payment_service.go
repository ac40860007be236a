package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parcelas/internal/core"
	"parcelas/internal/idgen"
	"parcelas/internal/store"
)

// SyncPublisher is the outbound message port. A nil publisher disables
// mirroring without affecting the commit path.
type SyncPublisher interface {
	PublishPaymentSync(ctx context.Context, paymentID, groupID string) error
}

// PaymentService orchestrates installment-group commits and individual
// payment mutations. It owns no long-lived state beyond its injected
// collaborators.
type PaymentService struct {
	batches   store.AtomicStore
	payments  store.PaymentWriter
	publisher SyncPublisher
	ids       idgen.Generator
	now       func() time.Time
}

func NewPaymentService(batches store.AtomicStore, payments store.PaymentWriter, publisher SyncPublisher, ids idgen.Generator) *PaymentService {
	if ids == nil {
		ids = idgen.UUID{}
	}
	return &PaymentService{
		batches:   batches,
		payments:  payments,
		publisher: publisher,
		ids:       ids,
		now:       time.Now,
	}
}

// CommitGroupParams carries everything one atomic group commit needs.
// GroupID is optional: leave it empty to mint a fresh id, or pass the
// id from a failed attempt to retry idempotently.
type CommitGroupParams struct {
	EventID        string
	EventName      string
	OwnerID        string
	ContractTotal  core.Money
	Schedule       []core.InstallmentSpec
	GroupID        string
	ToleranceCents int64
}

// CommitGroup validates the schedule against the contract total and
// persists it as one atomic batch: every entry stamped with its ordinal
// position and the group cardinality, all sharing one group id. Either
// every row becomes readable or none do; on error the caller must
// assume nothing was written.
func (s *PaymentService) CommitGroup(ctx context.Context, p CommitGroupParams) (string, []core.Payment, error) {
	tolerance := p.ToleranceCents
	if tolerance == 0 {
		tolerance = core.DefaultToleranceCents
	}
	for i, spec := range p.Schedule {
		if err := spec.Validate(); err != nil {
			return "", nil, fmt.Errorf("installment %d: %w", i+1, err)
		}
	}
	if err := core.ValidateSchedule(p.Schedule, p.ContractTotal, tolerance); err != nil {
		return "", nil, err
	}

	groupID := p.GroupID
	if groupID == "" {
		groupID = s.ids.NewID()
	}
	createdAt := s.now()

	group := make([]core.Payment, len(p.Schedule))
	batch := s.batches.Batch()
	for i, spec := range p.Schedule {
		payment := core.Payment{
			ID:        s.ids.NewID(),
			EventID:   p.EventID,
			EventName: p.EventName,
			Amount:    spec.Amount,
			DueDate:   spec.DueDate,
			Method:    spec.Method,
			Notes:     spec.Notes,
			Received:  spec.Received,
			Ordinal:   i + 1,
			GroupSize: len(p.Schedule),
			GroupID:   groupID,
			OwnerID:   p.OwnerID,
			CreatedAt: createdAt,
		}
		group[i] = payment
		batch.Add(payment)
	}

	if err := batch.Commit(ctx); err != nil {
		return "", nil, &core.PersistenceError{Op: "commit installment group", Err: err}
	}

	slog.InfoContext(ctx, "Installment group committed",
		"group_id", groupID,
		"event_id", p.EventID,
		"installments", len(group),
		"total_cents", p.ContractTotal.Cents)

	// Mirror messages are best effort: the group is already durable.
	s.publishGroup(ctx, group)

	return groupID, group, nil
}

func (s *PaymentService) publishGroup(ctx context.Context, group []core.Payment) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Sync publisher not available, skipping mirror messages")
		return
	}
	for _, payment := range group {
		if err := s.publisher.PublishPaymentSync(ctx, payment.ID, payment.GroupID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish payment sync message",
				"payment_id", payment.ID, "error", err)
		}
	}
}

// CreatePayment stores a standalone payment (no group metadata) and
// publishes a mirror message.
func (s *PaymentService) CreatePayment(ctx context.Context, payment core.Payment) (string, error) {
	if err := payment.Amount.Validate(); err != nil {
		return "", err
	}
	if err := payment.DueDate.Validate(); err != nil {
		return "", err
	}
	if !payment.Method.Valid() {
		return "", core.ErrInvalidMethod
	}
	if payment.ID == "" {
		payment.ID = s.ids.NewID()
	}
	payment.CreatedAt = s.now()

	id, err := s.payments.CreatePayment(ctx, payment)
	if err != nil {
		return "", fmt.Errorf("create payment: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishPaymentSync(ctx, id, ""); err != nil {
			slog.ErrorContext(ctx, "Failed to publish payment sync message",
				"payment_id", id, "error", err)
			// The payment is saved; mirroring catches up via the
			// worker's pending scan.
		}
	}

	return id, nil
}

// UpdatePayment applies a typed patch to one installment. Group id and
// ordinal stamps are not patchable, so the group's display identity
// survives later edits.
func (s *PaymentService) UpdatePayment(ctx context.Context, ownerID, id string, patch core.PaymentPatch) error {
	if patch.Amount != nil {
		if err := patch.Amount.Validate(); err != nil {
			return err
		}
	}
	if patch.Method != nil && !patch.Method.Valid() {
		return core.ErrInvalidMethod
	}
	if err := s.payments.UpdatePayment(ctx, ownerID, id, patch); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishPaymentSync(ctx, id, ""); err != nil {
			slog.ErrorContext(ctx, "Failed to publish payment sync message",
				"payment_id", id, "error", err)
		}
	}
	return nil
}

// DeletePayment removes one installment. The rest of its group stays
// untouched; groups are atomic at commit time only.
func (s *PaymentService) DeletePayment(ctx context.Context, ownerID, id string) error {
	if err := s.payments.DeletePayment(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}
