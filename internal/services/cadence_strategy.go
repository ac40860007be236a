// Package services provides business logic and orchestration on top of
// the pure core.
//
// This file implements the Strategy Pattern for installment due-date
// cadence. Each cadence owns the algorithm that places installment k+1
// relative to the schedule start date.
package services

import (
	"fmt"

	"parcelas/internal/core"
)

const (
	Monthly  Cadence = "monthly"
	Biweekly Cadence = "biweekly"
	Weekly   Cadence = "weekly"
	Yearly   Cadence = "yearly"
)

type Cadence string

// DueDateStepper is the strategy interface for cadence stepping.
type DueDateStepper interface {
	// Next returns the due date of installment k+1 for k >= 1.
	Next(start core.Date, k int) core.Date
}

// MonthlyStepper advances one calendar month per installment, clamping
// the day so a schedule started on the 31st lands on Feb 28/29 instead
// of drifting into March.
type MonthlyStepper struct{}

func (MonthlyStepper) Next(start core.Date, k int) core.Date {
	return start.AddMonthsClamped(k)
}

// BiweeklyStepper advances 14 days per installment.
type BiweeklyStepper struct{}

func (BiweeklyStepper) Next(start core.Date, k int) core.Date {
	return core.Date{Time: start.AddDate(0, 0, 14*k)}
}

// WeeklyStepper advances 7 days per installment.
type WeeklyStepper struct{}

func (WeeklyStepper) Next(start core.Date, k int) core.Date {
	return core.Date{Time: start.AddDate(0, 0, 7*k)}
}

// YearlyStepper advances one year per installment, clamping Feb 29.
type YearlyStepper struct{}

func (YearlyStepper) Next(start core.Date, k int) core.Date {
	return start.AddMonthsClamped(12 * k)
}

// cadenceStrategies maps cadences to their steppers for O(1) lookup.
var cadenceStrategies = map[Cadence]DueDateStepper{
	Monthly:  MonthlyStepper{},
	Biweekly: BiweeklyStepper{},
	Weekly:   WeeklyStepper{},
	Yearly:   YearlyStepper{},
}

// GetStepper returns the stepper for a cadence, or an error for an
// unknown one. An empty cadence means monthly, the contract default.
func GetStepper(c Cadence) (DueDateStepper, error) {
	if c == "" {
		c = Monthly
	}
	stepper, ok := cadenceStrategies[c]
	if !ok {
		return nil, fmt.Errorf("unknown cadence: %s", c)
	}
	return stepper, nil
}

// StepFuncFor adapts a cadence to the core scheduler's StepFunc.
func StepFuncFor(c Cadence) (core.StepFunc, error) {
	stepper, err := GetStepper(c)
	if err != nil {
		return nil, err
	}
	return stepper.Next, nil
}
