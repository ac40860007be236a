// Package log holds shared field names for structured logging.
package log

// Common field names
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldOwnerID     = "owner_id"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldPaymentID   = "payment_id"
	FieldGroupID     = "group_id"
	FieldEventID     = "event_id"
	FieldClientID    = "client_id"
	FieldAmountCents = "amount_cents"
	FieldGroupSize   = "group_size"
	FieldReportRef   = "report_ref"
)

// Standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentPayment = "payment"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentReport  = "report"
	ComponentCache   = "cache"
)

// LogFields builds structured log attributes incrementally.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithPayment(paymentID, groupID string, amountCents int64) LogFields {
	f[FieldPaymentID] = paymentID
	f[FieldGroupID] = groupID
	f[FieldAmountCents] = amountCents
	return f
}

// ToSlice converts LogFields to the flat key/value form slog expects.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
