package liquidation

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

var (
	ErrNotFound             = errors.New("liquidation not found")
	ErrOfferNotFound        = errors.New("offer not found")
	ErrOfferTooLow          = errors.New("offer below minimum acceptable amount")
	ErrLiquidationClosed    = errors.New("liquidation is closed")
	ErrOfferAlreadyResolved = errors.New("offer already accepted or rejected")
)

// Liquidation is the collateral-sale auction opened once a loan exhausts
// its grace period. At most one may be open per loan.
type Liquidation struct {
	ID              uint64         `gorm:"primaryKey;column:id" json:"-"`
	LiquidationID   string         `gorm:"size:32;uniqueIndex:ux_liquidations_public_id" json:"liquidation_id"`
	LoanID          uint64         `gorm:"index:idx_liquidations_loan" json:"-"`
	CollateralRef   string         `gorm:"size:32" json:"collateral_ref"`
	BasePrice       float64        `gorm:"type:decimal(18,2)" json:"base_price"`
	MinIncrement    float64        `gorm:"type:decimal(18,2)" json:"min_increment"`
	MinIncrementPct float64        `gorm:"type:decimal(6,2)" json:"min_increment_pct"`
	IsOpen          bool           `gorm:"default:true;index" json:"is_open"`
	WinningOfferID  *uint64        `json:"-"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Liquidation) TableName() string { return "liquidations" }

// Offer is a competitive bid against an open Liquidation.
type Offer struct {
	ID            uint64      `gorm:"primaryKey;column:id" json:"-"`
	OfferID       string      `gorm:"size:32;uniqueIndex:ux_offers_public_id" json:"offer_id"`
	LiquidationID uint64      `gorm:"index:idx_offers_liquidation" json:"-"`
	BidderID      string      `gorm:"size:32" json:"bidder_id"`
	BidderName    string      `gorm:"size:128" json:"bidder_name"`
	Amount        float64     `gorm:"type:decimal(18,2)" json:"amount"`
	OfferedAt     time.Time   `json:"offered_at"`
	Status        OfferStatus `gorm:"type:enum('pending','accepted','rejected');default:'pending'" json:"status"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"-"`
	UpdatedAt     time.Time   `gorm:"autoUpdateTime" json:"-"`
}

func (Offer) TableName() string { return "offers" }
