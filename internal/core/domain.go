package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Pix    PaymentMethod = "pix"
	Card   PaymentMethod = "card"
	Boleto PaymentMethod = "boleto"
	Cash   PaymentMethod = "cash"
)

const (
	Wedding    EventType = "wedding"
	Debutante  EventType = "debutante"
	Birthday   EventType = "birthday"
	Graduation EventType = "graduation"
	OtherEvent EventType = "other"
)

const (
	Planning  EventStatus = "planning"
	Confirmed EventStatus = "confirmed"
	Completed EventStatus = "completed"
	Canceled  EventStatus = "canceled"
)

type (
	PaymentMethod string
	EventType     string
	EventStatus   string

	Date struct {
		time.Time
	}

	Client struct {
		ID        string
		Name      string
		Phone     string
		Email     string
		Notes     string
		OwnerID   string
		CreatedAt time.Time
	}

	Event struct {
		ID            string
		Name          string
		Type          EventType
		Date          Date
		Location      string
		ClientID      string
		ClientName    string // snapshot at creation time
		Status        EventStatus
		ContractTotal Money
		Details       string
		OwnerID       string
		CreatedAt     time.Time
	}

	// InstallmentSpec is one entry of a proposed schedule. It is
	// mutable until the group is committed, after which the persisted
	// Payment is the authoritative record.
	InstallmentSpec struct {
		Amount   Money
		DueDate  Date
		Method   PaymentMethod
		Notes    string
		Received bool
	}

	// Payment is an installment as read back from the store. Ordinal,
	// GroupSize and GroupID are zero for standalone payments.
	Payment struct {
		ID        string
		EventID   string
		EventName string
		Amount    Money
		DueDate   Date
		Method    PaymentMethod
		Notes     string
		Received  bool
		Ordinal   int
		GroupSize int
		GroupID   string
		OwnerID   string
		CreatedAt time.Time
	}
)

// Typed partial updates. Only the listed fields may change after
// creation; group identity and ordinal stamps are immutable.
type (
	ClientPatch struct {
		Name  *string
		Phone *string
		Email *string
		Notes *string
	}

	EventPatch struct {
		Name          *string
		Type          *EventType
		Date          *Date
		Location      *string
		Status        *EventStatus
		ContractTotal *Money
		Details       *string
	}

	PaymentPatch struct {
		Amount   *Money
		DueDate  *Date
		Method   *PaymentMethod
		Notes    *string
		Received *bool
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCount     = errors.New("invalid installment count")
	ErrEmptySchedule    = errors.New("empty schedule")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidMethod    = errors.New("invalid payment method")
	ErrEmptyName        = errors.New("empty name")
	ErrNotFound         = errors.New("not found")
)

// ScheduleMismatchError reports that a schedule does not reconcile with
// the contract total. DeltaCents is signed as total minus schedule sum:
// positive means the schedule is missing money, negative means excess.
type ScheduleMismatchError struct {
	DeltaCents int64
	Currency   string
}

func (e *ScheduleMismatchError) Error() string {
	if e.DeltaCents >= 0 {
		return fmt.Sprintf("schedule mismatch: missing %d cents (%s)", e.DeltaCents, e.Currency)
	}
	return fmt.Sprintf("schedule mismatch: excess %d cents (%s)", -e.DeltaCents, e.Currency)
}

// PersistenceError wraps a failed atomic batch commit. Per the store
// contract no rows were written when this is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (m PaymentMethod) Valid() bool {
	switch m {
	case Pix, Card, Boleto, Cash:
		return true
	}
	return false
}

func (t EventType) Valid() bool {
	switch t {
	case Wedding, Debutante, Birthday, Graduation, OtherEvent:
		return true
	}
	return false
}

func (s EventStatus) Valid() bool {
	switch s {
	case Planning, Confirmed, Completed, Canceled:
		return true
	}
	return false
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// AddMonthsClamped advances d by n months, clamping the day to the last
// day of the target month (Jan 31 + 1 month = Feb 28/29, never Mar 3).
func (d Date) AddMonthsClamped(n int) Date {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, d.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return Date{Time: time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, d.Location())}
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if !e.Type.Valid() {
		return fmt.Errorf("invalid event type %q", e.Type)
	}
	if !e.Status.Valid() {
		return fmt.Errorf("invalid event status %q", e.Status)
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return e.ContractTotal.Validate()
}

func (i InstallmentSpec) Validate() error {
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if err := i.DueDate.Validate(); err != nil {
		return err
	}
	if !i.Method.Valid() {
		return ErrInvalidMethod
	}
	return nil
}
