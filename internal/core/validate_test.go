package core

import (
	"errors"
	"testing"
)

func entriesOf(cents ...int64) []InstallmentSpec {
	out := make([]InstallmentSpec, len(cents))
	for i, c := range cents {
		out[i] = InstallmentSpec{Amount: BRL(c), DueDate: NewDate(2024, 3, i+1), Method: Pix}
	}
	return out
}

func TestValidateSchedule(t *testing.T) {
	t.Run("exact sum passes", func(t *testing.T) {
		if err := ValidateSchedule(entriesOf(334, 333, 333), BRL(1000), DefaultToleranceCents); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("one cent off is tolerated", func(t *testing.T) {
		if err := ValidateSchedule(entriesOf(500, 499), BRL(1000), DefaultToleranceCents); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing fifty cents", func(t *testing.T) {
		err := ValidateSchedule(entriesOf(500, 450), BRL(1000), DefaultToleranceCents)
		var mismatch *ScheduleMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("expected ScheduleMismatchError, got %v", err)
		}
		if mismatch.DeltaCents != 50 {
			t.Fatalf("delta = %d, want +50 for missing money", mismatch.DeltaCents)
		}
	})

	t.Run("excess fifty cents", func(t *testing.T) {
		err := ValidateSchedule(entriesOf(500, 550), BRL(1000), DefaultToleranceCents)
		var mismatch *ScheduleMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("expected ScheduleMismatchError, got %v", err)
		}
		if mismatch.DeltaCents != -50 {
			t.Fatalf("delta = %d, want -50 for excess money", mismatch.DeltaCents)
		}
	})

	t.Run("empty schedule", func(t *testing.T) {
		if err := ValidateSchedule(nil, BRL(1000), DefaultToleranceCents); err != ErrEmptySchedule {
			t.Fatalf("got %v, want ErrEmptySchedule", err)
		}
	})

	t.Run("currency mismatch", func(t *testing.T) {
		entries := entriesOf(1000)
		entries[0].Amount.Currency = "USD"
		if err := ValidateSchedule(entries, BRL(1000), DefaultToleranceCents); err != ErrCurrencyMismatch {
			t.Fatalf("got %v, want ErrCurrencyMismatch", err)
		}
	})

	t.Run("non-positive entry", func(t *testing.T) {
		entries := entriesOf(1000, 0)
		if err := ValidateSchedule(entries, BRL(1000), DefaultToleranceCents); err != ErrInvalidAmount {
			t.Fatalf("got %v, want ErrInvalidAmount", err)
		}
	})
}

func TestValidateScheduleNeverMutates(t *testing.T) {
	entries := entriesOf(500, 450)
	_ = ValidateSchedule(entries, BRL(1000), DefaultToleranceCents)
	if entries[0].Amount.Cents != 500 || entries[1].Amount.Cents != 450 {
		t.Fatalf("validator must reject, never repair")
	}
}
