package core

import (
	"fmt"
	"testing"
)

func TestEqualSplitReconcilesExactly(t *testing.T) {
	totals := []int64{1000, 999, 1, 123456789, 70}
	counts := []int{1, 2, 3, 7, 12}
	for _, total := range totals {
		for _, count := range counts {
			t.Run(fmt.Sprintf("%d_in_%d", total, count), func(t *testing.T) {
				schedule, err := EqualSplit(EqualSplitParams{
					Total: BRL(total),
					Count: count,
					Start: NewDate(2024, 1, 15),
				})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(schedule) != count {
					t.Fatalf("got %d entries, want %d", len(schedule), count)
				}
				var sum int64
				for _, inst := range schedule {
					sum += inst.Amount.Cents
				}
				if sum != total {
					t.Fatalf("schedule sums to %d, contract total is %d", sum, total)
				}
			})
		}
	}
}

func TestEqualSplitRemainderIntoFirst(t *testing.T) {
	// R$10,00 in 3: the down payment absorbs the rounding cent.
	schedule, err := EqualSplit(EqualSplitParams{
		Total: BRL(1000),
		Count: 3,
		Start: NewDate(2024, 1, 10),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{334, 333, 333}
	for i, w := range want {
		if schedule[i].Amount.Cents != w {
			t.Fatalf("installment %d = %d cents, want %d", i+1, schedule[i].Amount.Cents, w)
		}
	}
}

func TestEqualSplitDatesAndLabels(t *testing.T) {
	schedule, err := EqualSplit(EqualSplitParams{
		Total: BRL(3000),
		Count: 3,
		Start: NewDate(2024, 1, 31),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schedule[0].Notes != "Entrada" {
		t.Fatalf("first label = %q, want Entrada", schedule[0].Notes)
	}
	if schedule[1].Notes != "Parcela 2" || schedule[2].Notes != "Parcela 3" {
		t.Fatalf("positional labels wrong: %q, %q", schedule[1].Notes, schedule[2].Notes)
	}
	if !schedule[0].DueDate.Equal(NewDate(2024, 1, 31).Time) {
		t.Fatalf("installment 1 due %v, want start date", schedule[0].DueDate)
	}
	// Jan 31 + 1 month clamps to Feb 29 (2024 is a leap year).
	if !schedule[1].DueDate.Equal(NewDate(2024, 2, 29).Time) {
		t.Fatalf("installment 2 due %v, want 2024-02-29", schedule[1].DueDate)
	}
	if !schedule[2].DueDate.Equal(NewDate(2024, 3, 31).Time) {
		t.Fatalf("installment 3 due %v, want 2024-03-31", schedule[2].DueDate)
	}
	for i, inst := range schedule {
		if inst.Method != Pix {
			t.Fatalf("installment %d method = %q, want default pix", i+1, inst.Method)
		}
		if inst.Received {
			t.Fatalf("installment %d should start pending", i+1)
		}
	}
}

func TestEqualSplitErrors(t *testing.T) {
	cases := []struct {
		name string
		p    EqualSplitParams
		want error
	}{
		{"count zero", EqualSplitParams{Total: BRL(100), Count: 0, Start: NewDate(2024, 1, 1)}, ErrInvalidCount},
		{"negative count", EqualSplitParams{Total: BRL(100), Count: -2, Start: NewDate(2024, 1, 1)}, ErrInvalidCount},
		{"zero total", EqualSplitParams{Total: BRL(0), Count: 2, Start: NewDate(2024, 1, 1)}, ErrInvalidAmount},
		{"negative total", EqualSplitParams{Total: BRL(-100), Count: 2, Start: NewDate(2024, 1, 1)}, ErrInvalidAmount},
		{"bad method", EqualSplitParams{Total: BRL(100), Count: 2, Start: NewDate(2024, 1, 1), Method: "check"}, ErrInvalidMethod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := EqualSplit(tc.p); err != tc.want {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestManualSplitIsPassThrough(t *testing.T) {
	entries := []InstallmentSpec{
		{Amount: BRL(700), DueDate: NewDate(2024, 5, 1), Method: Boleto, Notes: "sinal"},
		{Amount: BRL(300), DueDate: NewDate(2024, 6, 1), Method: Cash},
	}
	got := ManualSplit(entries)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Fatalf("entry %d changed: %+v != %+v", i, got[i], entries[i])
		}
	}
	// The returned slice must be independent of the caller's.
	got[0].Amount = BRL(1)
	if entries[0].Amount.Cents != 700 {
		t.Fatalf("ManualSplit must copy, not alias")
	}
}
