package liquidation

import "context"

type Repository interface {
	Create(ctx context.Context, l *Liquidation) error
	GetByLiquidationID(ctx context.Context, liquidationID string) (*Liquidation, error)
	// GetByLiquidationIDForUpdate locks the row for the duration of the
	// surrounding transaction. All bid/accept races serialize on this lock.
	GetByLiquidationIDForUpdate(ctx context.Context, liquidationID string) (*Liquidation, error)
	GetOpenByLoanID(ctx context.Context, loanID uint64) (*Liquidation, error)
	Save(ctx context.Context, l *Liquidation) error
}

type OfferRepository interface {
	Create(ctx context.Context, o *Offer) error
	GetByOfferID(ctx context.Context, offerID string) (*Offer, error)
	// ListByLiquidationID returns offers in insertion order.
	ListByLiquidationID(ctx context.Context, liquidationID uint64) ([]Offer, error)
	Save(ctx context.Context, o *Offer) error
	// RejectPendingExcept flips every still-pending sibling offer to
	// rejected in a single statement.
	RejectPendingExcept(ctx context.Context, liquidationID, exceptOfferID uint64) error
}
