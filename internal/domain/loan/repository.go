package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the row for the duration of the
	// surrounding transaction (SELECT ... FOR UPDATE).
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	ListByState(ctx context.Context, s State) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
}
