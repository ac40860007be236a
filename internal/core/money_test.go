package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneySplitEvenly(t *testing.T) {
	cases := []struct {
		name      string
		cents     int64
		n         int
		share     int64
		remainder int64
		wantErr   error
	}{
		{"exact division", 1000, 4, 250, 0, nil},
		{"remainder one", 1000, 3, 333, 1, nil},
		{"remainder spreads below n", 100, 7, 14, 2, nil},
		{"single share", 999, 1, 999, 0, nil},
		{"count below one", 1000, 0, 0, 0, ErrInvalidCount},
		{"zero amount", 0, 3, 0, 0, ErrInvalidAmount},
		{"negative amount", -100, 3, 0, 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			share, rem, err := BRL(tc.cents).SplitEvenly(tc.n)
			if tc.wantErr != nil {
				if err != tc.wantErr {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if share.Cents != tc.share || rem.Cents != tc.remainder {
				t.Fatalf("got share=%d remainder=%d, want %d/%d", share.Cents, rem.Cents, tc.share, tc.remainder)
			}
			// Division never drops or invents currency.
			if share.Cents*int64(tc.n)+rem.Cents != tc.cents {
				t.Fatalf("shares plus remainder do not rebuild the total")
			}
			if rem.Cents < 0 || rem.Cents >= int64(tc.n) {
				t.Fatalf("remainder %d out of [0,%d)", rem.Cents, tc.n)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a, b := BRL(150), BRL(70)
	if got := a.Add(b); got.Cents != 220 {
		t.Fatalf("Add = %d, want 220", got.Cents)
	}
	if got := a.Sub(b); got.Cents != 80 {
		t.Fatalf("Sub = %d, want 80", got.Cents)
	}
	if got := b.MulInt(3); got.Cents != 210 {
		t.Fatalf("MulInt = %d, want 210", got.Cents)
	}
	if !a.Equal(Money{Cents: 150}) {
		t.Fatalf("empty currency should compare equal to BRL")
	}
	if a.Equal(Money{Cents: 150, Currency: "USD"}) {
		t.Fatalf("different currencies must not compare equal")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := BRL(1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := BRL(0).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := BRL(-5).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}
