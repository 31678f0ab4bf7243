package mysql

import (
	"context"

	schedDomain "pawnshop-backend/internal/domain/schedule"

	"gorm.io/gorm"
)

type InstallmentRepository struct{ db *gorm.DB }

func NewInstallmentRepository(db *gorm.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

func (r *InstallmentRepository) CreateBatch(ctx context.Context, items []schedDomain.Installment) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *InstallmentRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]schedDomain.Installment, error) {
	var out []schedDomain.Installment
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("seq ASC").
		Find(&out)
	return out, res.Error
}

func (r *InstallmentRepository) Save(ctx context.Context, it *schedDomain.Installment) error {
	return r.db.WithContext(ctx).Save(it).Error
}

func (r *InstallmentRepository) AppendEvent(ctx context.Context, ev *schedDomain.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *InstallmentRepository) ListEventsByLoanID(ctx context.Context, loanID uint64) ([]schedDomain.PaymentEvent, error) {
	var out []schedDomain.PaymentEvent
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}
