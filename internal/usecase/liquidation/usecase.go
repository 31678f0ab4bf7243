package liquidation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	domain "pawnshop-backend/internal/domain/liquidation"
	domainLoan "pawnshop-backend/internal/domain/loan"
	"pawnshop-backend/internal/domain/uow"
	"pawnshop-backend/internal/usecase/lifecycle"
	"pawnshop-backend/pkg/id"

	"gorm.io/gorm"
)

// Config carries the auction defaults the host environment supplies.
type Config struct {
	BasePricePct      float64 // percent of appraised collateral value
	MinIncrementPct   float64 // percent of the current floor
	MinIncrementFloor float64 // flat currency-unit floor
}

func DefaultConfig() Config {
	return Config{BasePricePct: 70, MinIncrementPct: 5, MinIncrementFloor: 50}
}

type Usecase struct {
	repo   domain.Repository
	offers domain.OfferRepository
	uow    uow.UnitOfWork
	cfg    Config
}

func NewUsecase(r domain.Repository, offers domain.OfferRepository, tx uow.UnitOfWork, cfg Config) *Usecase {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Usecase{repo: r, offers: offers, uow: tx, cfg: cfg}
}

type OpenInput struct {
	LoanID string `json:"loan_id"`
	// BasePricePct overrides the configured default when positive.
	BasePricePct float64 `json:"base_price_pct"`
}

type OfferInput struct {
	BidderID   string  `json:"bidder_id"`
	BidderName string  `json:"bidder_name"`
	Amount     float64 `json:"amount"`
}

type OfferDTO struct {
	OfferID    string    `json:"offer_id"`
	BidderID   string    `json:"bidder_id"`
	BidderName string    `json:"bidder_name"`
	Amount     float64   `json:"amount"`
	OfferedAt  time.Time `json:"offered_at"`
	Status     string    `json:"status"`
}

type LiquidationDTO struct {
	LiquidationID  string     `json:"liquidation_id"`
	LoanID         string     `json:"loan_id"`
	CollateralRef  string     `json:"collateral_ref"`
	BasePrice      float64    `json:"base_price"`
	MinIncrement   float64    `json:"min_increment"`
	IsOpen         bool       `json:"is_open"`
	MinimumNextBid float64    `json:"minimum_next_bid"`
	WinningOffer   *OfferDTO  `json:"winning_offer,omitempty"`
	Offers         []OfferDTO `json:"offers,omitempty"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// MinimumAcceptable is the lowest bid the protocol admits: the current
// floor (highest standing offer, or the base price when none) plus the
// larger of the flat and percentage increments. The flat floor keeps
// increments from degenerating near zero on low-value collateral.
func MinimumAcceptable(basePrice, highest, flatIncrement, incrementPct float64) float64 {
	floor := math.Max(highest, basePrice)
	inc := math.Max(flatIncrement, round2(floor*incrementPct/100))
	return round2(floor + inc)
}

// RankOffers orders offers for display and operator selection: amount
// descending, ties broken by earliest timestamp. Stable and pure.
func RankOffers(offers []domain.Offer) []domain.Offer {
	out := make([]domain.Offer, len(offers))
	copy(out, offers)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].OfferedAt.Before(out[j].OfferedAt)
	})
	return out
}

// highestStanding returns the top non-rejected amount, 0 when none.
func highestStanding(offers []domain.Offer) float64 {
	var top float64
	for _, o := range offers {
		if o.Status == domain.OfferRejected {
			continue
		}
		if o.Amount > top {
			top = o.Amount
		}
	}
	return top
}

// Open creates the auction for a loan that has exhausted its grace period.
// Base price is a percentage of the appraised collateral value.
func (u *Usecase) Open(ctx context.Context, in OpenInput) (*LiquidationDTO, error) {
	pct := u.cfg.BasePricePct
	if in.BasePricePct > 0 {
		pct = in.BasePricePct
	}
	if pct <= 0 || pct > 100 {
		return nil, fmt.Errorf("%w: base price pct %.2f outside (0, 100]", domainLoan.ErrInvalidInput, pct)
	}

	var dto *LiquidationDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if _, err := r.Liquidations.GetOpenByLoanID(ctx, l.ID); err == nil {
			return domainLoan.ErrInvalidTransition
		} else if !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		items, err := r.Installments.ListByLoanID(ctx, l.ID)
		if err != nil {
			return err
		}
		ev := lifecycle.EvaluateLoan(l, items, time.Now().UTC(), false)
		if ev.State != domainLoan.StateEligible {
			return fmt.Errorf("%w: loan is %s, not %s", domainLoan.ErrInvalidTransition, ev.State, domainLoan.StateEligible)
		}

		liq := &domain.Liquidation{
			LiquidationID:   id.NewID32(),
			LoanID:          l.ID,
			CollateralRef:   l.CollateralRef,
			BasePrice:       round2(l.CollateralValue * pct / 100),
			MinIncrement:    u.cfg.MinIncrementFloor,
			MinIncrementPct: u.cfg.MinIncrementPct,
			IsOpen:          true,
		}
		if err := r.Liquidations.Create(ctx, liq); err != nil {
			return err
		}

		l.State = domainLoan.StateInAuction
		l.StateUpdatedAt = time.Now().UTC()
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		dto = &LiquidationDTO{
			LiquidationID:  liq.LiquidationID,
			LoanID:         l.LoanID,
			CollateralRef:  liq.CollateralRef,
			BasePrice:      liq.BasePrice,
			MinIncrement:   liq.MinIncrement,
			IsOpen:         true,
			MinimumNextBid: MinimumAcceptable(liq.BasePrice, 0, liq.MinIncrement, liq.MinIncrementPct),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainLoan.ErrNotFound
		}
		return nil, err
	}
	return dto, nil
}

// SubmitOffer records a bid. The minimum-acceptable check and the insert
// run under the liquidation row lock, so two borderline bids at the same
// amount cannot both clear: whichever transaction commits first raises the
// floor for the other.
func (u *Usecase) SubmitOffer(ctx context.Context, liquidationID string, in OfferInput) (*OfferDTO, error) {
	if in.BidderID == "" || in.Amount <= 0 {
		return nil, fmt.Errorf("%w: bidder_id and positive amount required", domainLoan.ErrInvalidInput)
	}

	var dto *OfferDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		liq, err := r.Liquidations.GetByLiquidationIDForUpdate(ctx, liquidationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if !liq.IsOpen {
			return domain.ErrLiquidationClosed
		}

		existing, err := r.Offers.ListByLiquidationID(ctx, liq.ID)
		if err != nil {
			return err
		}
		min := MinimumAcceptable(liq.BasePrice, highestStanding(existing), liq.MinIncrement, liq.MinIncrementPct)
		if in.Amount < min {
			return fmt.Errorf("%w: minimum acceptable is %.2f", domain.ErrOfferTooLow, min)
		}

		o := &domain.Offer{
			OfferID:       id.NewID32(),
			LiquidationID: liq.ID,
			BidderID:      in.BidderID,
			BidderName:    in.BidderName,
			Amount:        in.Amount,
			OfferedAt:     time.Now().UTC(),
			Status:        domain.OfferPending,
		}
		if err := r.Offers.Create(ctx, o); err != nil {
			return err
		}
		dto = &OfferDTO{
			OfferID:    o.OfferID,
			BidderID:   o.BidderID,
			BidderName: o.BidderName,
			Amount:     o.Amount,
			OfferedAt:  o.OfferedAt,
			Status:     string(o.Status),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Accept resolves the auction atomically: the target offer is accepted,
// every sibling rejected, the liquidation closed and the loan moved to
// resolved — all inside one transaction holding the liquidation row lock.
// Of two concurrent acceptors exactly one commits; the other observes a
// closed liquidation or an already-resolved offer.
func (u *Usecase) Accept(ctx context.Context, liquidationID, offerID string) (*LiquidationDTO, error) {
	var dto *LiquidationDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		liq, err := r.Liquidations.GetByLiquidationIDForUpdate(ctx, liquidationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if !liq.IsOpen {
			return domain.ErrLiquidationClosed
		}

		o, err := r.Offers.GetByOfferID(ctx, offerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrOfferNotFound
			}
			return err
		}
		if o.LiquidationID != liq.ID {
			return domain.ErrOfferNotFound
		}
		if o.Status != domain.OfferPending {
			return domain.ErrOfferAlreadyResolved
		}

		o.Status = domain.OfferAccepted
		if err := r.Offers.Save(ctx, o); err != nil {
			return err
		}
		if err := r.Offers.RejectPendingExcept(ctx, liq.ID, o.ID); err != nil {
			return err
		}

		liq.IsOpen = false
		liq.WinningOfferID = &o.ID
		if err := r.Liquidations.Save(ctx, liq); err != nil {
			return err
		}

		l, err := r.Loans.GetByIDForUpdate(ctx, liq.LoanID)
		if err != nil {
			return err
		}
		l.State = domainLoan.StateResolved
		l.StateUpdatedAt = time.Now().UTC()
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		dto = &LiquidationDTO{
			LiquidationID: liq.LiquidationID,
			LoanID:        l.LoanID,
			CollateralRef: liq.CollateralRef,
			BasePrice:     liq.BasePrice,
			MinIncrement:  liq.MinIncrement,
			IsOpen:        false,
			WinningOffer: &OfferDTO{
				OfferID:    o.OfferID,
				BidderID:   o.BidderID,
				BidderName: o.BidderName,
				Amount:     o.Amount,
				OfferedAt:  o.OfferedAt,
				Status:     string(o.Status),
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Reject declines a single pending offer without closing the auction.
func (u *Usecase) Reject(ctx context.Context, liquidationID, offerID string) error {
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		liq, err := r.Liquidations.GetByLiquidationIDForUpdate(ctx, liquidationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		o, err := r.Offers.GetByOfferID(ctx, offerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrOfferNotFound
			}
			return err
		}
		if o.LiquidationID != liq.ID {
			return domain.ErrOfferNotFound
		}
		if o.Status != domain.OfferPending {
			return domain.ErrOfferAlreadyResolved
		}
		o.Status = domain.OfferRejected
		return r.Offers.Save(ctx, o)
	})
}

// Get returns the liquidation with its ranked offers.
func (u *Usecase) Get(ctx context.Context, liquidationID string) (*LiquidationDTO, error) {
	liq, err := u.repo.GetByLiquidationID(ctx, liquidationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	offers, err := u.offers.ListByLiquidationID(ctx, liq.ID)
	if err != nil {
		return nil, err
	}

	ranked := RankOffers(offers)
	dto := &LiquidationDTO{
		LiquidationID:  liq.LiquidationID,
		CollateralRef:  liq.CollateralRef,
		BasePrice:      liq.BasePrice,
		MinIncrement:   liq.MinIncrement,
		IsOpen:         liq.IsOpen,
		MinimumNextBid: MinimumAcceptable(liq.BasePrice, highestStanding(offers), liq.MinIncrement, liq.MinIncrementPct),
		Offers:         make([]OfferDTO, 0, len(ranked)),
	}
	for _, o := range ranked {
		od := OfferDTO{
			OfferID:    o.OfferID,
			BidderID:   o.BidderID,
			BidderName: o.BidderName,
			Amount:     o.Amount,
			OfferedAt:  o.OfferedAt,
			Status:     string(o.Status),
		}
		dto.Offers = append(dto.Offers, od)
		if liq.WinningOfferID != nil && o.ID == *liq.WinningOfferID {
			w := od
			dto.WinningOffer = &w
		}
	}
	return dto, nil
}
