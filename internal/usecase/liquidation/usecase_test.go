package liquidation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	domain "pawnshop-backend/internal/domain/liquidation"
	domainLoan "pawnshop-backend/internal/domain/loan"
	"pawnshop-backend/internal/testutil/memstore"
	scheduc "pawnshop-backend/internal/usecase/schedule"
	"pawnshop-backend/pkg/id"
)

var origin = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// seedDelinquentLoan creates a loan with a generated schedule whose first
// installment has been overdue past the grace window for months.
func seedDelinquentLoan(t *testing.T, s *memstore.Store) *domainLoan.Loan {
	t.Helper()
	ctx := context.Background()

	l := &domainLoan.Loan{
		LoanID:          id.NewID32(),
		BorrowerID:      strings.Repeat("b", 32),
		CollateralRef:   strings.Repeat("c", 32),
		CollateralValue: 1000,
		Principal:       5000,
		PaymentPct:      10,
		AnnualRatePct:   36,
		Frequency:       domainLoan.FrequencyWeekly,
		OriginationDate: origin.AddDate(-1, 0, 0),
		GraceDays:       7,
		State:           domainLoan.StateEligible,
	}
	if err := s.Repos().Loans.Create(ctx, l); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	items, err := scheduc.GenerateSchedule(l.Terms(), scheduc.DefaultBands())
	if err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	for i := range items {
		items[i].LoanID = l.ID
	}
	if err := s.Repos().Installments.CreateBatch(ctx, items); err != nil {
		t.Fatalf("seed installments: %v", err)
	}
	return l
}

func newTestUsecase(s *memstore.Store) *Usecase {
	r := s.Repos()
	return NewUsecase(r.Liquidations, r.Offers, s.UoW(), Config{
		BasePricePct:      70,
		MinIncrementPct:   0,
		MinIncrementFloor: 50,
	})
}

func openAuction(t *testing.T, uc *Usecase, l *domainLoan.Loan) *LiquidationDTO {
	t.Helper()
	dto, err := uc.Open(context.Background(), OpenInput{LoanID: l.LoanID})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return dto
}

func TestMinimumAcceptable(t *testing.T) {
	cases := []struct {
		name                          string
		base, highest, flat, pct, want float64
	}{
		{"no offers, flat only", 700, 0, 50, 0, 750},
		{"no offers, pct wins", 10000, 0, 50, 5, 10500},
		{"no offers, flat wins on low value", 700, 0, 50, 5, 750},
		{"standing offer raises floor", 700, 900, 50, 0, 950},
		{"offer below base ignored as floor", 700, 0, 50, 0, 750},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MinimumAcceptable(tc.base, tc.highest, tc.flat, tc.pct); got != tc.want {
				t.Fatalf("MinimumAcceptable = %.2f, want %.2f", got, tc.want)
			}
		})
	}
}

func TestOpen_SetsBasePriceFromCollateral(t *testing.T) {
	s := memstore.New()
	uc := newTestUsecase(s)
	l := seedDelinquentLoan(t, s)

	dto := openAuction(t, uc, l)
	if dto.BasePrice != 700 { // 1000 × 70%
		t.Fatalf("base price = %.2f, want 700", dto.BasePrice)
	}
	if !dto.IsOpen {
		t.Fatal("liquidation not open")
	}
	if dto.MinimumNextBid != 750 {
		t.Fatalf("minimum next bid = %.2f, want 750", dto.MinimumNextBid)
	}

	// loan snapshot moved to in_auction
	got, _ := s.Repos().Loans.GetByLoanID(context.Background(), l.LoanID)
	if got.State != domainLoan.StateInAuction {
		t.Fatalf("loan state = %s, want in_auction", got.State)
	}
}

func TestOpen_RequiresEligibleLoan(t *testing.T) {
	s := memstore.New()
	uc := newTestUsecase(s)
	ctx := context.Background()

	// freshly originated loan, nothing overdue yet
	l := &domainLoan.Loan{
		LoanID:          id.NewID32(),
		BorrowerID:      strings.Repeat("b", 32),
		CollateralRef:   strings.Repeat("c", 32),
		CollateralValue: 1000,
		Principal:       5000,
		PaymentPct:      10,
		AnnualRatePct:   36,
		Frequency:       domainLoan.FrequencyWeekly,
		OriginationDate: time.Now().UTC(),
		GraceDays:       7,
		State:           domainLoan.StateCurrent,
	}
	if err := s.Repos().Loans.Create(ctx, l); err != nil {
		t.Fatal(err)
	}
	items, err := scheduc.GenerateSchedule(l.Terms(), scheduc.DefaultBands())
	if err != nil {
		t.Fatal(err)
	}
	for i := range items {
		items[i].LoanID = l.ID
	}
	if err := s.Repos().Installments.CreateBatch(ctx, items); err != nil {
		t.Fatal(err)
	}

	if _, err := uc.Open(ctx, OpenInput{LoanID: l.LoanID}); !errors.Is(err, domainLoan.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestOpen_RejectsSecondAuction(t *testing.T) {
	s := memstore.New()
	uc := newTestUsecase(s)
	l := seedDelinquentLoan(t, s)

	openAuction(t, uc, l)
	if _, err := uc.Open(context.Background(), OpenInput{LoanID: l.LoanID}); !errors.Is(err, domainLoan.ErrInvalidTransition) {
		t.Fatalf("second open err = %v, want ErrInvalidTransition", err)
	}
}

func TestSubmitOffer_MinimumEnforced(t *testing.T) {
	s := memstore.New()
	uc := newTestUsecase(s)
	l := seedDelinquentLoan(t, s)
	dto := openAuction(t, uc, l)
	ctx := context.Background()
	bidder := strings.Repeat("1", 32)

	// exactly the base price is below base + increment
	if _, err := uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: bidder, Amount: 700}); !errors.Is(err, domain.ErrOfferTooLow) {
		t.Fatalf("base-price bid err = %v, want ErrOfferTooLow", err)
	}
	// base + increment clears
	o, err := uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: bidder, Amount: 750})
	if err != nil {
		t.Fatalf("base+increment bid: %v", err)
	}
	if o.Status != string(domain.OfferPending) {
		t.Fatalf("offer status = %s, want pending", o.Status)
	}

	// next bid must beat the new floor
	if _, err := uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: bidder, Amount: 760}); !errors.Is(err, domain.ErrOfferTooLow) {
		t.Fatalf("sub-increment bid err = %v, want ErrOfferTooLow", err)
	}
	if _, err := uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: bidder, Amount: 800}); err != nil {
		t.Fatalf("valid raise: %v", err)
	}
}

func TestSubmitOffer_ConcurrentBorderlineBids(t *testing.T) {
	s := memstore.New()
	uc := newTestUsecase(s)
	l := seedDelinquentLoan(t, s)
	dto := openAuction(t, uc, l)
	ctx := context.Background()

	// two bidders race with the same borderline amount; the floor moves as
	// soon as one insert commits, so exactly one can succeed
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{
				BidderID: strings.Repeat("a", 32),
				Amount:   750,
			})
		}(i)
	}
	wg.Wait()

	var ok, tooLow int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrOfferTooLow):
			tooLow++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || tooLow != 1 {
		t.Fatalf("accepted=%d tooLow=%d, want exactly one of each", ok, tooLow)
	}
}

func TestAccept_CascadeIsAtomicAndExclusive(t *testing.T) {
	s := memstore.New()
	uc := newTestUsecase(s)
	l := seedDelinquentLoan(t, s)
	dto := openAuction(t, uc, l)
	ctx := context.Background()

	o1, err := uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: strings.Repeat("1", 32), Amount: 750})
	if err != nil {
		t.Fatal(err)
	}
	o2, err := uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: strings.Repeat("2", 32), Amount: 850})
	if err != nil {
		t.Fatal(err)
	}

	res, err := uc.Accept(ctx, dto.LiquidationID, o1.OfferID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if res.IsOpen {
		t.Fatal("liquidation still open after acceptance")
	}
	if res.WinningOffer == nil || res.WinningOffer.OfferID != o1.OfferID {
		t.Fatalf("winning offer = %+v, want %s", res.WinningOffer, o1.OfferID)
	}

	// exactly one accepted, all siblings rejected
	liq, _ := s.Repos().Liquidations.GetByLiquidationID(ctx, dto.LiquidationID)
	offers, _ := s.Repos().Offers.ListByLiquidationID(ctx, liq.ID)
	var accepted, rejected int
	for _, o := range offers {
		switch o.Status {
		case domain.OfferAccepted:
			accepted++
		case domain.OfferRejected:
			rejected++
		default:
			t.Fatalf("offer %s left %s", o.OfferID, o.Status)
		}
	}
	if accepted != 1 || rejected != 1 {
		t.Fatalf("accepted=%d rejected=%d, want 1/1", accepted, rejected)
	}

	// loan resolved
	got, _ := s.Repos().Loans.GetByLoanID(ctx, l.LoanID)
	if got.State != domainLoan.StateResolved {
		t.Fatalf("loan state = %s, want resolved", got.State)
	}

	// the loser cannot be accepted afterwards
	if _, err := uc.Accept(ctx, dto.LiquidationID, o2.OfferID); !errors.Is(err, domain.ErrLiquidationClosed) {
		t.Fatalf("post-close accept err = %v, want ErrLiquidationClosed", err)
	}

	// no further bids either
	if _, err := uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: strings.Repeat("3", 32), Amount: 5000}); !errors.Is(err, domain.ErrLiquidationClosed) {
		t.Fatalf("post-close bid err = %v, want ErrLiquidationClosed", err)
	}
}

func TestAccept_ConcurrentAcceptors(t *testing.T) {
	s := memstore.New()
	uc := newTestUsecase(s)
	l := seedDelinquentLoan(t, s)
	dto := openAuction(t, uc, l)
	ctx := context.Background()

	o1, _ := uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: strings.Repeat("1", 32), Amount: 750})
	o2, _ := uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: strings.Repeat("2", 32), Amount: 850})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	targets := []string{o1.OfferID, o2.OfferID}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Accept(ctx, dto.LiquidationID, targets[i])
		}(i)
	}
	wg.Wait()

	var ok, closed int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrLiquidationClosed), errors.Is(err, domain.ErrOfferAlreadyResolved):
			closed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || closed != 1 {
		t.Fatalf("success=%d closed=%d, want exactly one winner", ok, closed)
	}
}

func TestReject_SingleOffer(t *testing.T) {
	s := memstore.New()
	uc := newTestUsecase(s)
	l := seedDelinquentLoan(t, s)
	dto := openAuction(t, uc, l)
	ctx := context.Background()

	o, _ := uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: strings.Repeat("1", 32), Amount: 750})
	if err := uc.Reject(ctx, dto.LiquidationID, o.OfferID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if err := uc.Reject(ctx, dto.LiquidationID, o.OfferID); !errors.Is(err, domain.ErrOfferAlreadyResolved) {
		t.Fatalf("double reject err = %v, want ErrOfferAlreadyResolved", err)
	}

	// auction stays open; a rejected offer no longer holds the floor
	if _, err := uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: strings.Repeat("2", 32), Amount: 750}); err != nil {
		t.Fatalf("re-bid after reject: %v", err)
	}
}

func TestRankOffers(t *testing.T) {
	t0 := origin
	offers := []domain.Offer{
		{OfferID: "a", Amount: 750, OfferedAt: t0},
		{OfferID: "b", Amount: 900, OfferedAt: t0.Add(2 * time.Minute)},
		{OfferID: "c", Amount: 900, OfferedAt: t0.Add(1 * time.Minute)},
		{OfferID: "d", Amount: 800, OfferedAt: t0.Add(3 * time.Minute)},
	}
	ranked := RankOffers(offers)

	wantOrder := []string{"c", "b", "d", "a"} // amount desc, ties by earliest
	for i, want := range wantOrder {
		if ranked[i].OfferID != want {
			t.Fatalf("rank[%d] = %s, want %s", i, ranked[i].OfferID, want)
		}
	}
	// input untouched
	if offers[0].OfferID != "a" || offers[1].OfferID != "b" {
		t.Fatal("RankOffers mutated its input")
	}
}

func TestGet_RanksOffersAndExposesFloor(t *testing.T) {
	s := memstore.New()
	uc := newTestUsecase(s)
	l := seedDelinquentLoan(t, s)
	dto := openAuction(t, uc, l)
	ctx := context.Background()

	uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: strings.Repeat("1", 32), Amount: 750})
	uc.SubmitOffer(ctx, dto.LiquidationID, OfferInput{BidderID: strings.Repeat("2", 32), Amount: 820})

	got, err := uc.Get(ctx, dto.LiquidationID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Offers) != 2 {
		t.Fatalf("offers = %d, want 2", len(got.Offers))
	}
	if got.Offers[0].Amount != 820 {
		t.Fatalf("top ranked amount = %.2f, want 820", got.Offers[0].Amount)
	}
	if got.MinimumNextBid != 870 {
		t.Fatalf("minimum next bid = %.2f, want 870", got.MinimumNextBid)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := memstore.New()
	uc := newTestUsecase(s)
	if _, err := uc.Get(context.Background(), strings.Repeat("0", 32)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
