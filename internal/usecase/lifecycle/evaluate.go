package lifecycle

import (
	"time"

	domainLoan "pawnshop-backend/internal/domain/loan"
	domainSched "pawnshop-backend/internal/domain/schedule"
	scheduc "pawnshop-backend/internal/usecase/schedule"
)

// DefaultGraceDays is the business default window between a missed due
// date and liquidation eligibility. Configurable per loan within [1, 30].
const (
	DefaultGraceDays = 7
	MinGraceDays     = 1
	MaxGraceDays     = 30
)

type GraceConfig struct {
	Days int
	// Extended marks an audited operator override of the default window.
	Extended bool
}

// Evaluation is the derived lifecycle standing of a loan at one instant.
// It is a pure function of the installment set, the grace config and the
// evaluation date; nothing here is authoritative stored state.
type Evaluation struct {
	State domainLoan.State
	// EarliestUnpaidSeq is the sequence anchoring the grace timer, 0 when
	// nothing is overdue.
	EarliestUnpaidSeq int
	DaysOverdue       int
	// DaysRemaining is the grace left before liquidation eligibility,
	// meaningful only in the in_grace state.
	DaysRemaining int
}

// Evaluate derives the lifecycle state. First match wins:
//
//  1. fully paid            -> resolved
//  2. liquidation open      -> in_auction
//  3. nothing overdue       -> current
//  4. within grace window   -> in_grace
//  5. otherwise             -> eligible_for_liquidation
//
// The grace timer is anchored to the earliest still-unpaid installment's
// original due date; a partial payment against a later installment never
// resets it. An installment overdue by exactly the grace window is still
// in grace; one more day makes the loan eligible.
func Evaluate(items []domainSched.Installment, grace GraceConfig, asOf time.Time, liquidationOpen, fullyPaid bool) Evaluation {
	if fullyPaid {
		return Evaluation{State: domainLoan.StateResolved}
	}
	if liquidationOpen {
		return Evaluation{State: domainLoan.StateInAuction}
	}

	var earliest *scheduc.InstallmentView
	views := scheduc.StatusAsOf(items, asOf)
	for i := range views {
		if views[i].Overdue {
			earliest = &views[i]
			break
		}
	}
	if earliest == nil {
		return Evaluation{State: domainLoan.StateCurrent}
	}

	ev := Evaluation{
		EarliestUnpaidSeq: earliest.Seq,
		DaysOverdue:       earliest.DaysOverdue,
	}
	if earliest.DaysOverdue <= grace.Days {
		ev.State = domainLoan.StateInGrace
		ev.DaysRemaining = grace.Days - earliest.DaysOverdue
		return ev
	}
	ev.State = domainLoan.StateEligible
	return ev
}

// EvaluateLoan is the convenience wrapper the usecases call: grace config
// from the loan row, fully-paid derived from the installment set.
func EvaluateLoan(l *domainLoan.Loan, items []domainSched.Installment, asOf time.Time, liquidationOpen bool) Evaluation {
	grace := GraceConfig{Days: l.GraceDays, Extended: l.GraceExtended}
	return Evaluate(items, grace, asOf, liquidationOpen, scheduc.FullyPaid(items))
}
