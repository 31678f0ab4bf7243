package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainLiq "pawnshop-backend/internal/domain/liquidation"
	domain "pawnshop-backend/internal/domain/loan"
	domainSched "pawnshop-backend/internal/domain/schedule"
	"pawnshop-backend/internal/domain/uow"
	"pawnshop-backend/internal/usecase/lifecycle"
	scheduc "pawnshop-backend/internal/usecase/schedule"
	"pawnshop-backend/pkg/id"

	"gorm.io/gorm"
)

type Usecase struct {
	repo      domain.Repository
	uow       uow.UnitOfWork
	bands     scheduc.Bands
	graceDays int
}

func NewUsecase(r domain.Repository, tx uow.UnitOfWork, bands scheduc.Bands, graceDays int) *Usecase {
	if bands == nil {
		bands = scheduc.DefaultBands()
	}
	if graceDays < lifecycle.MinGraceDays || graceDays > lifecycle.MaxGraceDays {
		graceDays = lifecycle.DefaultGraceDays
	}
	return &Usecase{repo: r, uow: tx, bands: bands, graceDays: graceDays}
}

type OriginateInput struct {
	BorrowerID      string    `json:"borrower_id"`
	CollateralRef   string    `json:"collateral_ref"`
	CollateralValue float64   `json:"collateral_value"`
	Principal       float64   `json:"principal"`
	PaymentPct      float64   `json:"payment_pct"`
	AnnualRatePct   float64   `json:"annual_rate_pct"`
	Frequency       string    `json:"frequency"`
	OriginationDate time.Time `json:"origination_date"`
}

type LoanDTO struct {
	LoanID          string    `json:"loan_id"`
	BorrowerID      string    `json:"borrower_id"`
	CollateralRef   string    `json:"collateral_ref"`
	CollateralValue float64   `json:"collateral_value"`
	Principal       float64   `json:"principal"`
	PaymentPct      float64   `json:"payment_pct"`
	AnnualRatePct   float64   `json:"annual_rate_pct"`
	Frequency       string    `json:"frequency"`
	OriginationDate time.Time `json:"origination_date"`
	GraceDays       int       `json:"grace_days"`
	GraceExtended   bool      `json:"grace_extended"`
	State           string    `json:"state"`
	CreatedAt       time.Time `json:"created_at"`
}

type LoanDetailDTO struct {
	LoanDTO
	Installments  []scheduc.InstallmentView `json:"installments"`
	DaysOverdue   int                       `json:"days_overdue"`
	DaysRemaining int                       `json:"grace_days_remaining"`
}

type PaymentInput struct {
	Seq    int       `json:"seq"`
	Amount float64   `json:"amount"`
	PaidAt time.Time `json:"paid_at"`
}

type PaymentDTO struct {
	EventID string  `json:"event_id"`
	LoanID  string  `json:"loan_id"`
	Seq     int     `json:"seq"`
	Amount  float64 `json:"amount"`
	Status  string  `json:"installment_status"`
	State   string  `json:"loan_state"`
}

func toDTO(l *domain.Loan) LoanDTO {
	return LoanDTO{
		LoanID:          l.LoanID,
		BorrowerID:      l.BorrowerID,
		CollateralRef:   l.CollateralRef,
		CollateralValue: l.CollateralValue,
		Principal:       l.Principal,
		PaymentPct:      l.PaymentPct,
		AnnualRatePct:   l.AnnualRatePct,
		Frequency:       string(l.Frequency),
		OriginationDate: l.OriginationDate,
		GraceDays:       l.GraceDays,
		GraceExtended:   l.GraceExtended,
		State:           string(l.State),
		CreatedAt:       l.CreatedAt,
	}
}

// Originate validates the terms, generates the full repayment schedule and
// persists loan plus installments in one transaction.
func (u *Usecase) Originate(ctx context.Context, in OriginateInput) (*LoanDTO, error) {
	if in.BorrowerID == "" || len(in.BorrowerID) != 32 {
		return nil, fmt.Errorf("%w: borrower_id must be 32-char hex", domain.ErrInvalidInput)
	}
	if in.CollateralValue <= 0 {
		return nil, fmt.Errorf("%w: collateral_value must be positive", domain.ErrInvalidInput)
	}

	terms := domain.Terms{
		Principal:       in.Principal,
		PaymentPct:      in.PaymentPct,
		AnnualRatePct:   in.AnnualRatePct,
		Frequency:       domain.Frequency(in.Frequency),
		OriginationDate: in.OriginationDate.UTC(),
	}
	items, err := scheduc.GenerateSchedule(terms, u.bands)
	if err != nil {
		return nil, err
	}

	l := &domain.Loan{
		LoanID:          id.NewID32(),
		BorrowerID:      in.BorrowerID,
		CollateralRef:   in.CollateralRef,
		CollateralValue: in.CollateralValue,
		Principal:       in.Principal,
		PaymentPct:      in.PaymentPct,
		AnnualRatePct:   in.AnnualRatePct,
		Frequency:       terms.Frequency,
		OriginationDate: terms.OriginationDate,
		GraceDays:       u.graceDays,
		State:           domain.StateCurrent,
		StateUpdatedAt:  time.Now().UTC(),
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		for i := range items {
			items[i].LoanID = l.ID
		}
		return r.Installments.CreateBatch(ctx, items)
	})
	if err != nil {
		return nil, err
	}

	dto := toDTO(l)
	return &dto, nil
}

// Simulate generates a schedule preview without persisting anything.
func (u *Usecase) Simulate(ctx context.Context, terms domain.Terms) ([]domainSched.Installment, error) {
	return scheduc.GenerateSchedule(terms, u.bands)
}

// Get returns the loan with its schedule and the lifecycle evaluation as
// of the given date (zero value means "now").
func (u *Usecase) Get(ctx context.Context, loanID string, asOf time.Time) (*LoanDetailDTO, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	var out *LoanDetailDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		items, err := r.Installments.ListByLoanID(ctx, l.ID)
		if err != nil {
			return err
		}
		open, err := openLiquidation(ctx, r, l.ID)
		if err != nil {
			return err
		}

		ev := lifecycle.EvaluateLoan(l, items, asOf, open)
		dto := toDTO(l)
		dto.State = string(ev.State)
		out = &LoanDetailDTO{
			LoanDTO:       dto,
			Installments:  scheduc.StatusAsOf(items, asOf),
			DaysOverdue:   ev.DaysOverdue,
			DaysRemaining: ev.DaysRemaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByState lists loans by their lifecycle snapshot (delinquency views).
func (u *Usecase) ListByState(ctx context.Context, state string) ([]LoanDTO, error) {
	s := domain.State(state)
	switch s {
	case domain.StateCurrent, domain.StateInGrace, domain.StateEligible, domain.StateInAuction, domain.StateResolved:
	default:
		return nil, fmt.Errorf("%w: unknown state %q", domain.ErrInvalidInput, state)
	}
	loans, err := u.repo.ListByState(ctx, s)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(loans))
	for i := range loans {
		out = append(out, toDTO(&loans[i]))
	}
	return out, nil
}

// RecordPayment appends a payment event and updates the target installment
// and the loan's lifecycle snapshot, all within one transaction that holds
// the loan row lock.
func (u *Usecase) RecordPayment(ctx context.Context, loanID string, in PaymentInput) (*PaymentDTO, error) {
	var dto *PaymentDTO

	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		items, err := r.Installments.ListByLoanID(ctx, l.ID)
		if err != nil {
			return err
		}

		updated, err := scheduc.ApplyPayment(items, in.Seq, in.Amount, in.PaidAt.UTC(), l.OriginationDate)
		if err != nil {
			return err
		}

		ev := &domainSched.PaymentEvent{
			EventID: id.NewID32(),
			LoanID:  l.ID,
			Seq:     in.Seq,
			Amount:  in.Amount,
			PaidAt:  in.PaidAt.UTC(),
		}
		if err := r.Installments.AppendEvent(ctx, ev); err != nil {
			return err
		}

		var changed *domainSched.Installment
		for i := range updated {
			if updated[i].Seq == in.Seq {
				changed = &updated[i]
				break
			}
		}
		if err := r.Installments.Save(ctx, changed); err != nil {
			return err
		}

		open, err := openLiquidation(ctx, r, l.ID)
		if err != nil {
			return err
		}
		state := lifecycle.EvaluateLoan(l, updated, time.Now().UTC(), open).State
		if state != l.State {
			l.State = state
			l.StateUpdatedAt = time.Now().UTC()
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		dto = &PaymentDTO{
			EventID: ev.EventID,
			LoanID:  l.LoanID,
			Seq:     in.Seq,
			Amount:  in.Amount,
			Status:  string(changed.Status),
			State:   string(l.State),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return dto, nil
}

// ExtendGrace grants extra grace days to a loan (audited operator
// override). The same Evaluate function re-applied with the new config
// drives every later decision; there is no hidden exception path.
func (u *Usecase) ExtendGrace(ctx context.Context, loanID string, extraDays int) (*LoanDTO, error) {
	if extraDays <= 0 {
		return nil, fmt.Errorf("%w: extension must be positive, got %d", domain.ErrInvalidInput, extraDays)
	}

	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		next := l.GraceDays + extraDays
		if next > lifecycle.MaxGraceDays {
			return fmt.Errorf("%w: grace days %d would exceed maximum %d",
				domain.ErrInvalidInput, next, lifecycle.MaxGraceDays)
		}
		if l.State == domain.StateResolved || l.State == domain.StateInAuction {
			return domain.ErrInvalidTransition
		}

		items, err := r.Installments.ListByLoanID(ctx, l.ID)
		if err != nil {
			return err
		}

		l.GraceDays = next
		l.GraceExtended = true
		l.State = lifecycle.EvaluateLoan(l, items, time.Now().UTC(), false).State
		l.StateUpdatedAt = time.Now().UTC()
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		d := toDTO(l)
		dto = &d
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return dto, nil
}

// openLiquidation reports whether the loan has an open liquidation,
// treating "no row" as false.
func openLiquidation(ctx context.Context, r uow.Repos, loanID uint64) (bool, error) {
	_, err := r.Liquidations.GetOpenByLoanID(ctx, loanID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, domainLiq.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
