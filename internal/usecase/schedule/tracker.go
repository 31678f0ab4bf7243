package schedule

import (
	"fmt"
	"time"

	domain "pawnshop-backend/internal/domain/schedule"
)

// InstallmentView is an installment plus its derived overdue standing at a
// given evaluation date. Nothing here is ever persisted.
type InstallmentView struct {
	domain.Installment
	Overdue     bool `json:"overdue"`
	DaysOverdue int  `json:"days_overdue"`
}

// ApplyPayment returns a copy of the installment set with a payment applied
// to one installment. The stored rows are never rewritten destructively:
// the caller records the event separately and persists the derived
// paid-amount/status.
func ApplyPayment(items []domain.Installment, seq int, amount float64, paidAt, origination time.Time) ([]domain.Installment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %.2f", domain.ErrPaymentOutOfRange, amount)
	}
	if paidAt.Before(origination) {
		return nil, fmt.Errorf("%w: payment dated %s precedes origination %s",
			domain.ErrPaymentOutOfRange, paidAt.Format("2006-01-02"), origination.Format("2006-01-02"))
	}

	idx := -1
	for i := range items {
		if items[i].Seq == seq {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: sequence %d", domain.ErrUnknownInstallment, seq)
	}

	out := make([]domain.Installment, len(items))
	copy(out, items)

	it := &out[idx]
	it.PaidAmount = round2(it.PaidAmount + amount)
	if it.PaidAmount >= it.Amount {
		it.Status = domain.StatusPaid
	} else {
		it.Status = domain.StatusPartial
	}
	t := paidAt
	it.PaidAt = &t
	return out, nil
}

// StatusAsOf derives, without mutating anything, which installments are
// overdue as of the given date: due date passed and cumulative paid short
// of the due amount. Re-evaluable at any past or future date.
func StatusAsOf(items []domain.Installment, asOf time.Time) []InstallmentView {
	views := make([]InstallmentView, 0, len(items))
	for _, it := range items {
		v := InstallmentView{Installment: it}
		if it.DueDate.Before(asOf) && it.PaidAmount < it.Amount {
			v.Overdue = true
			v.DaysOverdue = int(asOf.Sub(it.DueDate).Hours() / 24)
			v.Status = domain.StatusOverdue
		}
		views = append(views, v)
	}
	return views
}

// FullyPaid reports whether every installment has been covered in full.
func FullyPaid(items []domain.Installment) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if it.PaidAmount < it.Amount {
			return false
		}
	}
	return true
}
