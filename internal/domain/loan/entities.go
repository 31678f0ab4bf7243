package loan

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Frequency is the spacing between installments of a flexible schedule.
type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// Days returns the calendar days between installments, or 0 for an
// unknown frequency.
func (f Frequency) Days() int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyBiweekly:
		return 15
	case FrequencyMonthly:
		return 30
	}
	return 0
}

func (f Frequency) Valid() bool { return f.Days() != 0 }

// State is the loan lifecycle state. The authoritative value is always
// recomputed from the installment set (see usecase/lifecycle); the column
// on Loan is a snapshot kept for listing/filtering.
type State string

const (
	StateCurrent   State = "current"
	StateInGrace   State = "in_grace"
	StateEligible  State = "eligible_for_liquidation"
	StateInAuction State = "in_auction"
	StateResolved  State = "resolved"
)

var (
	ErrNotFound          = errors.New("loan not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid state transition")
)

type Loan struct {
	ID              uint64         `gorm:"primaryKey;column:id" json:"-"`
	LoanID          string         `gorm:"size:32;uniqueIndex:ux_loans_loan_id_active" json:"loan_id"`
	BorrowerID      string         `gorm:"size:32;index:idx_loans_borrower_active" json:"borrower_id"`
	CollateralRef   string         `gorm:"size:32;index" json:"collateral_ref"`
	CollateralValue float64        `gorm:"type:decimal(18,2)" json:"collateral_value"`
	Principal       float64        `gorm:"type:decimal(18,2)" json:"principal"`
	PaymentPct      float64        `gorm:"type:decimal(6,2)" json:"payment_pct"`
	AnnualRatePct   float64        `gorm:"type:decimal(6,2)" json:"annual_rate_pct"`
	Frequency       Frequency      `gorm:"type:enum('weekly','biweekly','monthly')" json:"frequency"`
	OriginationDate time.Time      `gorm:"type:date" json:"origination_date"`
	GraceDays       int            `gorm:"default:7" json:"grace_days"`
	GraceExtended   bool           `gorm:"default:false" json:"grace_extended"`
	State           State          `gorm:"type:enum('current','in_grace','eligible_for_liquidation','in_auction','resolved');default:'current'" json:"state"`
	StateUpdatedAt  time.Time      `gorm:"autoCreateTime" json:"state_updated_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy       string         `gorm:"size:32" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Terms are the immutable origination inputs a schedule is generated from.
type Terms struct {
	Principal       float64
	PaymentPct      float64
	AnnualRatePct   float64
	Frequency       Frequency
	OriginationDate time.Time
}

func (l *Loan) Terms() Terms {
	return Terms{
		Principal:       l.Principal,
		PaymentPct:      l.PaymentPct,
		AnnualRatePct:   l.AnnualRatePct,
		Frequency:       l.Frequency,
		OriginationDate: l.OriginationDate,
	}
}
