package schedule

import (
	"errors"
	"time"
)

// Status of a single installment. "overdue" is never stored; it is derived
// from the due date and paid amount at evaluation time.
type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

var (
	ErrNonAmortizing      = errors.New("non-amortizing schedule")
	ErrUnknownInstallment = errors.New("unknown installment")
	ErrPaymentOutOfRange  = errors.New("payment out of range")
)

// Installment is one row of a generated repayment schedule. Rows are
// created in a batch at origination and mutated only by payment events.
type Installment struct {
	ID               uint64     `gorm:"primaryKey;column:id" json:"-"`
	LoanID           uint64     `gorm:"index:idx_installments_loan;uniqueIndex:ux_installments_loan_seq" json:"-"`
	Seq              int        `gorm:"uniqueIndex:ux_installments_loan_seq" json:"seq"`
	DueDate          time.Time  `gorm:"type:date" json:"due_date"`
	Amount           float64    `gorm:"type:decimal(18,2)" json:"amount"`
	PrincipalPortion float64    `gorm:"type:decimal(18,2)" json:"principal_portion"`
	InterestPortion  float64    `gorm:"type:decimal(18,2)" json:"interest_portion"`
	BalanceAfter     float64    `gorm:"type:decimal(18,2)" json:"balance_after"`
	Status           Status     `gorm:"type:enum('pending','partial','paid');default:'pending'" json:"status"`
	PaidAmount       float64    `gorm:"type:decimal(18,2);default:0" json:"paid_amount"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"-"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"-"`
}

func (Installment) TableName() string { return "installments" }

// PaymentEvent is the append-only payment history. A corrected payment
// appends a new event; rows are never rewritten or deleted.
type PaymentEvent struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	EventID   string    `gorm:"size:32;uniqueIndex" json:"event_id"`
	LoanID    uint64    `gorm:"index:idx_payment_events_loan" json:"-"`
	Seq       int       `json:"seq"`
	Amount    float64   `gorm:"type:decimal(18,2)" json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PaymentEvent) TableName() string { return "payment_events" }
