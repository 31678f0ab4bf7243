package mysql

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// --- SQLite-friendly schemas only for tests (no ENUM) ---

type loanSQLite struct {
	ID              uint64         `gorm:"primaryKey;column:id"`
	LoanID          string         `gorm:"size:32;column:loan_id"`
	BorrowerID      string         `gorm:"size:32;column:borrower_id"`
	CollateralRef   string         `gorm:"size:32;column:collateral_ref"`
	CollateralValue float64        `gorm:"column:collateral_value"`
	Principal       float64        `gorm:"column:principal"`
	PaymentPct      float64        `gorm:"column:payment_pct"`
	AnnualRatePct   float64        `gorm:"column:annual_rate_pct"`
	Frequency       string         `gorm:"type:text;column:frequency"` // ← no enum
	OriginationDate time.Time      `gorm:"column:origination_date"`
	GraceDays       int            `gorm:"column:grace_days"`
	GraceExtended   bool           `gorm:"column:grace_extended"`
	State           string         `gorm:"type:text;column:state"` // ← no enum
	StateUpdatedAt  time.Time      `gorm:"column:state_updated_at"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at"`
	DeletedBy       string         `gorm:"column:deleted_by"`
}

func (loanSQLite) TableName() string { return "loans" }

type installmentSQLite struct {
	ID               uint64    `gorm:"primaryKey;column:id"`
	LoanID           uint64    `gorm:"column:loan_id"`
	Seq              int       `gorm:"column:seq"`
	DueDate          time.Time `gorm:"column:due_date"`
	Amount           float64   `gorm:"column:amount"`
	PrincipalPortion float64   `gorm:"column:principal_portion"`
	InterestPortion  float64   `gorm:"column:interest_portion"`
	BalanceAfter     float64   `gorm:"column:balance_after"`
	Status           string    `gorm:"type:text;column:status"` // ← no enum
	PaidAmount       float64   `gorm:"column:paid_amount"`
	PaidAt           *time.Time `gorm:"column:paid_at"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (installmentSQLite) TableName() string { return "installments" }

type paymentEventSQLite struct {
	ID        uint64    `gorm:"primaryKey;column:id"`
	EventID   string    `gorm:"size:32;column:event_id"`
	LoanID    uint64    `gorm:"column:loan_id"`
	Seq       int       `gorm:"column:seq"`
	Amount    float64   `gorm:"column:amount"`
	PaidAt    time.Time `gorm:"column:paid_at"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (paymentEventSQLite) TableName() string { return "payment_events" }

type liquidationSQLite struct {
	ID              uint64         `gorm:"primaryKey;column:id"`
	LiquidationID   string         `gorm:"size:32;column:liquidation_id"`
	LoanID          uint64         `gorm:"column:loan_id"`
	CollateralRef   string         `gorm:"size:32;column:collateral_ref"`
	BasePrice       float64        `gorm:"column:base_price"`
	MinIncrement    float64        `gorm:"column:min_increment"`
	MinIncrementPct float64        `gorm:"column:min_increment_pct"`
	IsOpen          bool           `gorm:"column:is_open"`
	WinningOfferID  *uint64        `gorm:"column:winning_offer_id"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (liquidationSQLite) TableName() string { return "liquidations" }

type offerSQLite struct {
	ID            uint64    `gorm:"primaryKey;column:id"`
	OfferID       string    `gorm:"size:32;column:offer_id"`
	LiquidationID uint64    `gorm:"column:liquidation_id"`
	BidderID      string    `gorm:"size:32;column:bidder_id"`
	BidderName    string    `gorm:"size:128;column:bidder_name"`
	Amount        float64   `gorm:"column:amount"`
	OfferedAt     time.Time `gorm:"column:offered_at"`
	Status        string    `gorm:"type:text;column:status"` // ← no enum
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (offerSQLite) TableName() string { return "offers" }

// openTestDB creates an in-memory sqlite DB and migrates ONLY the sqlite-safe schemas.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// IMPORTANT: migrate the sqlite-safe models, NOT the domain models.
	if err := db.AutoMigrate(
		&loanSQLite{},
		&installmentSQLite{},
		&paymentEventSQLite{},
		&liquidationSQLite{},
		&offerSQLite{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}
