package core

// DefaultToleranceCents is one minor unit of rounding slack allowed
// between a schedule's sum and the contract total.
const DefaultToleranceCents = 1

// ValidateSchedule checks that a candidate schedule reconciles with the
// contract total. It never corrects the schedule; fixing a mismatch is
// the operator's call, which keeps money allocation auditable.
//
// Errors: ErrEmptySchedule for zero entries, ErrCurrencyMismatch when
// any entry disagrees with the contract currency, ErrInvalidAmount for
// a non-positive entry, and *ScheduleMismatchError carrying the signed
// difference when the sum is off by more than toleranceCents.
func ValidateSchedule(schedule []InstallmentSpec, contractTotal Money, toleranceCents int64) error {
	if len(schedule) == 0 {
		return ErrEmptySchedule
	}
	if toleranceCents < 0 {
		toleranceCents = 0
	}
	var sum int64
	for _, inst := range schedule {
		if !inst.Amount.SameCurrency(contractTotal) {
			return ErrCurrencyMismatch
		}
		if inst.Amount.Cents <= 0 {
			return ErrInvalidAmount
		}
		sum += inst.Amount.Cents
	}
	delta := contractTotal.Cents - sum
	if delta > toleranceCents || delta < -toleranceCents {
		return &ScheduleMismatchError{DeltaCents: delta, Currency: normCurrency(contractTotal.Currency)}
	}
	return nil
}
