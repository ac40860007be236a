// Package report defines the port for mirroring payments into an
// external spreadsheet report. The Google Sheets implementation lives
// in report/google; an in-memory one for tests lives in report/memory.
package report

import (
	"context"

	"parcelas/internal/core"
)

// Ports for outbound adapters.
type (
	// PaymentWriter appends one payment row to the report and returns a
	// reference to the written row.
	PaymentWriter interface {
		Append(ctx context.Context, p core.Payment) (rowRef string, err error)
	}
)
