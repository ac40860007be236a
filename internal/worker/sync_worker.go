package worker

import (
	"context"
	"fmt"
	"log/slog"

	"parcelas/internal/amqp"
	"parcelas/internal/core"
	"parcelas/internal/report"
	"parcelas/internal/storage"
)

// PaymentSource is the slice of the sqlite repository the worker needs.
type PaymentSource interface {
	GetAnyPayment(ctx context.Context, id string) (core.Payment, error)
	ListPendingSync(ctx context.Context, limit int) ([]storage.PendingSyncPayment, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

// SyncWorker mirrors committed payments into the spreadsheet report.
type SyncWorker struct {
	source    PaymentSource
	report    report.PaymentWriter
	batchSize int
}

func NewSyncWorker(source PaymentSource, report report.PaymentWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		source:    source,
		report:    report,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single payment sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.PaymentSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"payment_id", msg.PaymentID,
		"group_id", msg.GroupID)

	payment, err := w.source.GetAnyPayment(ctx, msg.PaymentID)
	if err != nil {
		return fmt.Errorf("get payment from storage: %w", err)
	}

	if err := w.mirrorToReport(ctx, payment); err != nil {
		return fmt.Errorf("mirror payment to report: %w", err)
	}

	return nil
}

// ProcessPendingPayments mirrors payments that never got a queue
// message. This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingPayments(ctx context.Context) error {
	pending, err := w.source.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending payments: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending payments", "count", len(pending))

	for _, row := range pending {
		payment, err := w.source.GetAnyPayment(ctx, row.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get payment", "id", row.ID, "error", err)
			if err := w.source.MarkSyncError(ctx, row.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", row.ID, "error", err)
			}
			continue
		}

		if err := w.mirrorToReport(ctx, payment); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror payment", "id", row.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup.
// Useful to recover from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.source.ListPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending payments for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending payments found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending payments on startup, processing...",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, row := range pending {
		payment, err := w.source.GetAnyPayment(ctx, row.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get payment for startup sync",
				"id", row.ID, "error", err)
			if err := w.source.MarkSyncError(ctx, row.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", row.ID, "error", err)
			}
			failed++
			continue
		}

		if err := w.mirrorToReport(ctx, payment); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror payment during startup",
				"id", row.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}

func (w *SyncWorker) mirrorToReport(ctx context.Context, p core.Payment) error {
	ref, err := w.report.Append(ctx, p)
	if err != nil {
		if markErr := w.source.MarkSyncError(ctx, p.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", markErr)
		}
		return fmt.Errorf("append to report: %w", err)
	}

	if err := w.source.MarkSynced(ctx, p.ID); err != nil {
		// The append worked; losing the flag only means a duplicate row
		// on the next backstop scan.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", p.ID, "error", err)
	}

	slog.InfoContext(ctx, "Payment mirrored to report",
		"id", p.ID,
		"report_ref", ref,
		"event", p.EventName,
		"amount_cents", p.Amount.Cents)

	return nil
}
