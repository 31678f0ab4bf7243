// Package memstore provides an in-memory implementation of the domain
// repositories and unit of work for usecase tests. Every WithinTx call
// holds one store-wide mutex, which mirrors the per-row serialization the
// real gorm transactions provide.
package memstore

import (
	"context"
	"sync"

	liqDomain "pawnshop-backend/internal/domain/liquidation"
	loanDomain "pawnshop-backend/internal/domain/loan"
	schedDomain "pawnshop-backend/internal/domain/schedule"
	"pawnshop-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type Store struct {
	mu     sync.Mutex
	nextID uint64

	loans        []loanDomain.Loan
	installments []schedDomain.Installment
	events       []schedDomain.PaymentEvent
	liquidations []liqDomain.Liquidation
	offers       []liqDomain.Offer
}

func New() *Store { return &Store{} }

func (s *Store) id() uint64 { s.nextID++; return s.nextID }

// UoW returns a uow.UnitOfWork backed by this store.
func (s *Store) UoW() uow.UnitOfWork { return &memUoW{s: s} }

// Repos returns unsynchronized repositories for direct seeding/asserting
// in single-goroutine test code.
func (s *Store) Repos() uow.Repos {
	return uow.Repos{
		Loans:        &loanRepo{s: s},
		Installments: &installmentRepo{s: s},
		Liquidations: &liquidationRepo{s: s},
		Offers:       &offerRepo{s: s},
	}
}

type memUoW struct{ s *Store }

func (u *memUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	return fn(u.s.Repos())
}

func (u *memUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loanDomain.Loan) error) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	r := u.s.Repos()
	l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
	if err != nil {
		return err
	}
	return fn(r, l)
}

// ---- loan repository ----

type loanRepo struct{ s *Store }

func (r *loanRepo) Create(ctx context.Context, l *loanDomain.Loan) error {
	l.ID = r.s.id()
	r.s.loans = append(r.s.loans, *l)
	return nil
}

func (r *loanRepo) Save(ctx context.Context, l *loanDomain.Loan) error {
	for i := range r.s.loans {
		if r.s.loans[i].ID == l.ID {
			r.s.loans[i] = *l
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *loanRepo) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	for i := range r.s.loans {
		if r.s.loans[i].LoanID == loanID {
			out := r.s.loans[i]
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *loanRepo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	return r.GetByLoanID(ctx, loanID)
}

func (r *loanRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	for i := range r.s.loans {
		if r.s.loans[i].ID == id {
			out := r.s.loans[i]
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *loanRepo) ListByState(ctx context.Context, st loanDomain.State) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	for i := range r.s.loans {
		if r.s.loans[i].State == st {
			out = append(out, r.s.loans[i])
		}
	}
	return out, nil
}

// ---- installment repository ----

type installmentRepo struct{ s *Store }

func (r *installmentRepo) CreateBatch(ctx context.Context, items []schedDomain.Installment) error {
	for i := range items {
		items[i].ID = r.s.id()
		r.s.installments = append(r.s.installments, items[i])
	}
	return nil
}

func (r *installmentRepo) ListByLoanID(ctx context.Context, loanID uint64) ([]schedDomain.Installment, error) {
	var out []schedDomain.Installment
	for i := range r.s.installments {
		if r.s.installments[i].LoanID == loanID {
			out = append(out, r.s.installments[i])
		}
	}
	return out, nil
}

func (r *installmentRepo) Save(ctx context.Context, it *schedDomain.Installment) error {
	for i := range r.s.installments {
		if r.s.installments[i].LoanID == it.LoanID && r.s.installments[i].Seq == it.Seq {
			r.s.installments[i] = *it
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *installmentRepo) AppendEvent(ctx context.Context, ev *schedDomain.PaymentEvent) error {
	ev.ID = r.s.id()
	r.s.events = append(r.s.events, *ev)
	return nil
}

func (r *installmentRepo) ListEventsByLoanID(ctx context.Context, loanID uint64) ([]schedDomain.PaymentEvent, error) {
	var out []schedDomain.PaymentEvent
	for i := range r.s.events {
		if r.s.events[i].LoanID == loanID {
			out = append(out, r.s.events[i])
		}
	}
	return out, nil
}

// ---- liquidation repositories ----

type liquidationRepo struct{ s *Store }

func (r *liquidationRepo) Create(ctx context.Context, l *liqDomain.Liquidation) error {
	l.ID = r.s.id()
	r.s.liquidations = append(r.s.liquidations, *l)
	return nil
}

func (r *liquidationRepo) Save(ctx context.Context, l *liqDomain.Liquidation) error {
	for i := range r.s.liquidations {
		if r.s.liquidations[i].ID == l.ID {
			r.s.liquidations[i] = *l
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *liquidationRepo) GetByLiquidationID(ctx context.Context, liquidationID string) (*liqDomain.Liquidation, error) {
	for i := range r.s.liquidations {
		if r.s.liquidations[i].LiquidationID == liquidationID {
			out := r.s.liquidations[i]
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *liquidationRepo) GetByLiquidationIDForUpdate(ctx context.Context, liquidationID string) (*liqDomain.Liquidation, error) {
	return r.GetByLiquidationID(ctx, liquidationID)
}

func (r *liquidationRepo) GetOpenByLoanID(ctx context.Context, loanID uint64) (*liqDomain.Liquidation, error) {
	for i := range r.s.liquidations {
		if r.s.liquidations[i].LoanID == loanID && r.s.liquidations[i].IsOpen {
			out := r.s.liquidations[i]
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type offerRepo struct{ s *Store }

func (r *offerRepo) Create(ctx context.Context, o *liqDomain.Offer) error {
	o.ID = r.s.id()
	r.s.offers = append(r.s.offers, *o)
	return nil
}

func (r *offerRepo) Save(ctx context.Context, o *liqDomain.Offer) error {
	for i := range r.s.offers {
		if r.s.offers[i].ID == o.ID {
			r.s.offers[i] = *o
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *offerRepo) GetByOfferID(ctx context.Context, offerID string) (*liqDomain.Offer, error) {
	for i := range r.s.offers {
		if r.s.offers[i].OfferID == offerID {
			out := r.s.offers[i]
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *offerRepo) ListByLiquidationID(ctx context.Context, liquidationID uint64) ([]liqDomain.Offer, error) {
	var out []liqDomain.Offer
	for i := range r.s.offers {
		if r.s.offers[i].LiquidationID == liquidationID {
			out = append(out, r.s.offers[i])
		}
	}
	return out, nil
}

func (r *offerRepo) RejectPendingExcept(ctx context.Context, liquidationID, exceptOfferID uint64) error {
	for i := range r.s.offers {
		o := &r.s.offers[i]
		if o.LiquidationID == liquidationID && o.ID != exceptOfferID && o.Status == liqDomain.OfferPending {
			o.Status = liqDomain.OfferRejected
		}
	}
	return nil
}
