package mysql

import (
	"context"

	liqDomain "pawnshop-backend/internal/domain/liquidation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LiquidationRepository struct{ db *gorm.DB }

func NewLiquidationRepository(db *gorm.DB) *LiquidationRepository {
	return &LiquidationRepository{db: db}
}

func (r *LiquidationRepository) Create(ctx context.Context, l *liqDomain.Liquidation) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LiquidationRepository) Save(ctx context.Context, l *liqDomain.Liquidation) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LiquidationRepository) GetByLiquidationID(ctx context.Context, liquidationID string) (*liqDomain.Liquidation, error) {
	var out liqDomain.Liquidation
	res := r.db.WithContext(ctx).Where("liquidation_id = ?", liquidationID).First(&out)
	return &out, res.Error
}

func (r *LiquidationRepository) GetByLiquidationIDForUpdate(ctx context.Context, liquidationID string) (*liqDomain.Liquidation, error) {
	var out liqDomain.Liquidation
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("liquidation_id = ?", liquidationID).
		First(&out)
	return &out, res.Error
}

func (r *LiquidationRepository) GetOpenByLoanID(ctx context.Context, loanID uint64) (*liqDomain.Liquidation, error) {
	var out liqDomain.Liquidation
	res := r.db.WithContext(ctx).
		Where("loan_id = ? AND is_open = ?", loanID, true).
		Order("id DESC").
		First(&out)
	return &out, res.Error
}

type OfferRepository struct{ db *gorm.DB }

func NewOfferRepository(db *gorm.DB) *OfferRepository { return &OfferRepository{db: db} }

func (r *OfferRepository) Create(ctx context.Context, o *liqDomain.Offer) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OfferRepository) Save(ctx context.Context, o *liqDomain.Offer) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *OfferRepository) GetByOfferID(ctx context.Context, offerID string) (*liqDomain.Offer, error) {
	var out liqDomain.Offer
	res := r.db.WithContext(ctx).Where("offer_id = ?", offerID).First(&out)
	return &out, res.Error
}

func (r *OfferRepository) ListByLiquidationID(ctx context.Context, liquidationID uint64) ([]liqDomain.Offer, error) {
	var out []liqDomain.Offer
	res := r.db.WithContext(ctx).
		Where("liquidation_id = ?", liquidationID).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *OfferRepository) RejectPendingExcept(ctx context.Context, liquidationID, exceptOfferID uint64) error {
	return r.db.WithContext(ctx).
		Model(&liqDomain.Offer{}).
		Where("liquidation_id = ? AND id <> ? AND status = ?", liquidationID, exceptOfferID, liqDomain.OfferPending).
		Update("status", liqDomain.OfferRejected).Error
}
