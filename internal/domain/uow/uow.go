package uow

import (
	"context"

	"pawnshop-backend/internal/domain/liquidation"
	"pawnshop-backend/internal/domain/loan"
	"pawnshop-backend/internal/domain/schedule"
)

type Repos struct {
	Loans        loan.Repository
	Installments schedule.Repository
	Liquidations liquidation.Repository
	Offers       liquidation.OfferRepository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the loan row first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
