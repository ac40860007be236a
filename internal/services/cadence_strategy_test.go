package services

import (
	"testing"

	"parcelas/internal/core"
)

func TestMonthlyStepper(t *testing.T) {
	stepper := MonthlyStepper{}
	start := core.NewDate(2024, 1, 31)

	tests := []struct {
		name string
		k    int
		want core.Date
	}{
		{"one month clamps to leap feb", 1, core.NewDate(2024, 2, 29)},
		{"two months returns to the 31st", 2, core.NewDate(2024, 3, 31)},
		{"three months clamps to april 30", 3, core.NewDate(2024, 4, 30)},
		{"twelve months", 12, core.NewDate(2025, 1, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stepper.Next(start, tt.k)
			if !got.Equal(tt.want.Time) {
				t.Errorf("Next(%d) = %v, want %v", tt.k, got, tt.want)
			}
		})
	}
}

func TestWeeklyAndBiweeklySteppers(t *testing.T) {
	start := core.NewDate(2024, 6, 3)

	if got := (WeeklyStepper{}).Next(start, 2); !got.Equal(core.NewDate(2024, 6, 17).Time) {
		t.Errorf("weekly Next(2) = %v", got)
	}
	if got := (BiweeklyStepper{}).Next(start, 1); !got.Equal(core.NewDate(2024, 6, 17).Time) {
		t.Errorf("biweekly Next(1) = %v", got)
	}
}

func TestYearlyStepperClampsLeapDay(t *testing.T) {
	start := core.NewDate(2024, 2, 29)
	if got := (YearlyStepper{}).Next(start, 1); !got.Equal(core.NewDate(2025, 2, 28).Time) {
		t.Errorf("yearly Next(1) = %v, want 2025-02-28", got)
	}
}

func TestGetStepper(t *testing.T) {
	if _, err := GetStepper(Monthly); err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if _, err := GetStepper(""); err != nil {
		t.Fatalf("empty cadence should default to monthly: %v", err)
	}
	if _, err := GetStepper("hourly"); err == nil {
		t.Fatalf("expected error for unknown cadence")
	}
}

func TestStepFuncForFeedsScheduler(t *testing.T) {
	step, err := StepFuncFor(Weekly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	schedule, err := core.EqualSplit(core.EqualSplitParams{
		Total: core.BRL(300),
		Count: 3,
		Start: core.NewDate(2024, 6, 3),
		Step:  step,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !schedule[2].DueDate.Equal(core.NewDate(2024, 6, 17).Time) {
		t.Fatalf("third installment due %v, want 2024-06-17", schedule[2].DueDate)
	}
}
