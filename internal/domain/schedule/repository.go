package schedule

import "context"

type Repository interface {
	CreateBatch(ctx context.Context, items []Installment) error
	// ListByLoanID returns installments ordered by sequence number.
	ListByLoanID(ctx context.Context, loanID uint64) ([]Installment, error)
	Save(ctx context.Context, it *Installment) error
	AppendEvent(ctx context.Context, ev *PaymentEvent) error
	ListEventsByLoanID(ctx context.Context, loanID uint64) ([]PaymentEvent, error)
}
