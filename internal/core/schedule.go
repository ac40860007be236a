package core

import "fmt"

// FirstInstallmentLabel is the conventional note on the down payment.
const FirstInstallmentLabel = "Entrada"

// StepFunc returns the due date of installment k+1 given the schedule
// start date, for k >= 1. EqualSplit uses a monthly step when nil.
type StepFunc func(start Date, k int) Date

// MonthlyStep is the default cadence: installment k+1 falls due k
// months after the start date, day clamped to shorter months.
func MonthlyStep(start Date, k int) Date {
	return start.AddMonthsClamped(k)
}

// EqualSplitParams configures EqualSplit. Zero-value Method and
// FirstLabel fall back to Pix and FirstInstallmentLabel.
type EqualSplitParams struct {
	Total      Money
	Count      int
	Start      Date
	Step       StepFunc
	Method     PaymentMethod
	FirstLabel string
}

// EqualSplit decomposes a contract total into Count installments.
//
// Each installment gets floor(total/count) cents; the division
// remainder is folded into installment 1 so the visible down payment
// absorbs the rounding dust. The schedule therefore always sums to the
// contract total exactly. Installment 1 is due on the start date, the
// rest follow the cadence step.
func EqualSplit(p EqualSplitParams) ([]InstallmentSpec, error) {
	if p.Count < 1 {
		return nil, ErrInvalidCount
	}
	share, remainder, err := p.Total.SplitEvenly(p.Count)
	if err != nil {
		return nil, err
	}
	if err := p.Start.Validate(); err != nil {
		return nil, err
	}
	method := p.Method
	if method == "" {
		method = Pix
	}
	if !method.Valid() {
		return nil, ErrInvalidMethod
	}
	firstLabel := p.FirstLabel
	if firstLabel == "" {
		firstLabel = FirstInstallmentLabel
	}
	step := p.Step
	if step == nil {
		step = MonthlyStep
	}

	schedule := make([]InstallmentSpec, p.Count)
	for i := range schedule {
		inst := InstallmentSpec{
			Amount:   share,
			Method:   method,
			Received: false,
		}
		if i == 0 {
			inst.Amount = share.Add(remainder)
			inst.DueDate = p.Start
			inst.Notes = firstLabel
		} else {
			inst.DueDate = step(p.Start, i)
			inst.Notes = fmt.Sprintf("Parcela %d", i+1)
		}
		schedule[i] = inst
	}
	return schedule, nil
}

// ManualSplit passes caller-edited entries through untouched so the
// operator keeps full control of amounts, dates and labels. The copy
// protects the caller's slice from later stamping.
func ManualSplit(entries []InstallmentSpec) []InstallmentSpec {
	out := make([]InstallmentSpec, len(entries))
	copy(out, entries)
	return out
}
