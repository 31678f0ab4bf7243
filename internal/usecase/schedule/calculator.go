package schedule

import (
	"fmt"
	"math"

	domainLoan "pawnshop-backend/internal/domain/loan"
	domain "pawnshop-backend/internal/domain/schedule"
)

const (
	// maxPeriods is a safety valve against schedules that would never
	// amortize; hitting it is reported, never silently truncated.
	maxPeriods = 200
	// balanceTolerance is the residual below which the balance counts as zero.
	balanceTolerance = 0.01
	daysPerYear      = 365.0
)

// Band is the allowed payment-percentage range for one frequency.
type Band struct {
	Min float64
	Max float64
}

type Bands map[domainLoan.Frequency]Band

// DefaultBands returns the per-frequency payment-percentage limits the
// business operates with.
func DefaultBands() Bands {
	return Bands{
		domainLoan.FrequencyWeekly:   {Min: 5, Max: 25},
		domainLoan.FrequencyBiweekly: {Min: 10, Max: 40},
		domainLoan.FrequencyMonthly:  {Min: 20, Max: 60},
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// ValidateTerms checks origination inputs against the configured bands.
func ValidateTerms(t domainLoan.Terms, bands Bands) error {
	if t.Principal <= 0 {
		return fmt.Errorf("%w: principal must be positive, got %.2f", domainLoan.ErrInvalidInput, t.Principal)
	}
	if !t.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", domainLoan.ErrInvalidInput, t.Frequency)
	}
	band, ok := bands[t.Frequency]
	if !ok {
		return fmt.Errorf("%w: no payment band configured for frequency %q", domainLoan.ErrInvalidInput, t.Frequency)
	}
	if t.PaymentPct < band.Min || t.PaymentPct > band.Max {
		return fmt.Errorf("%w: payment pct %.2f outside %s band [%.0f, %.0f]",
			domainLoan.ErrInvalidInput, t.PaymentPct, t.Frequency, band.Min, band.Max)
	}
	if t.AnnualRatePct < 0 {
		return fmt.Errorf("%w: annual rate must be >= 0, got %.2f", domainLoan.ErrInvalidInput, t.AnnualRatePct)
	}
	if t.OriginationDate.IsZero() {
		return fmt.Errorf("%w: origination date is required", domainLoan.ErrInvalidInput)
	}
	return nil
}

// GenerateSchedule builds the declining-balance repayment schedule for the
// given terms. The installment amount is a flat percentage of the original
// principal; interest accrues each period on the remaining balance, so the
// principal portion grows as the loan winds down. The final installment
// carries the exact remainder and may total less than the nominal amount.
//
// The annual rate is apportioned by the fraction of a year each period
// represents (365 / frequency days), so changing frequency does not change
// the effective annual rate.
//
// Identical inputs always produce identical output; the only date involved
// is the caller-supplied origination date.
func GenerateSchedule(t domainLoan.Terms, bands Bands) ([]domain.Installment, error) {
	if err := ValidateTerms(t, bands); err != nil {
		return nil, err
	}

	freqDays := t.Frequency.Days()
	periodRate := t.AnnualRatePct / 100 / (daysPerYear / float64(freqDays))
	installmentAmount := round2(t.Principal * t.PaymentPct / 100)

	balance := round2(t.Principal)
	out := make([]domain.Installment, 0, 16)

	for seq := 1; balance >= balanceTolerance; seq++ {
		if seq > maxPeriods {
			return nil, fmt.Errorf("%w: balance %.2f still outstanding after %d periods",
				domain.ErrNonAmortizing, balance, maxPeriods)
		}

		interest := round2(balance * periodRate)
		if installmentAmount <= interest {
			return nil, fmt.Errorf("%w: installment %.2f does not cover period interest %.2f",
				domain.ErrNonAmortizing, installmentAmount, interest)
		}

		capital := round2(installmentAmount - interest)
		if capital > balance {
			capital = balance
		}
		balance = round2(balance - capital)

		out = append(out, domain.Installment{
			Seq:              seq,
			DueDate:          t.OriginationDate.AddDate(0, 0, seq*freqDays),
			Amount:           round2(capital + interest),
			PrincipalPortion: capital,
			InterestPortion:  interest,
			BalanceAfter:     balance,
			Status:           domain.StatusPending,
		})
	}
	return out, nil
}
