package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CommissionStatus tracks a payment through checkout and payout.
//
//	pending          checkout session created, awaiting payment
//	transfer_pending payment received, helper payout not yet possible
//	transfer_failed  payout attempt failed, eligible for retry
//	completed        payment received and helper paid out
type CommissionStatus string

const (
	StatusPending         CommissionStatus = "pending"
	StatusTransferPending CommissionStatus = "transfer_pending"
	StatusTransferFailed  CommissionStatus = "transfer_failed"
	StatusCompleted       CommissionStatus = "completed"
)

// MaxTransferAttempts bounds automatic payout retries per commission.
const MaxTransferAttempts = 3

// Commission is the immutable ledger row for one payment. Need and
// offer references are nullable so the ledger survives need deletion.
type Commission struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	NeedID      *snowflake.ID `json:"need_id,omitempty"`
	HelpOfferID *snowflake.ID `json:"help_offer_id,omitempty"`
	PayerID     snowflake.ID  `gorm:"not null" json:"payer_id"`
	PayeeID     snowflake.ID  `gorm:"not null" json:"payee_id"`

	// Amounts are minor units of Currency. Amount = CommissionAmount + PayoutAmount.
	Amount           int64   `gorm:"not null" json:"amount"`
	CommissionAmount int64   `gorm:"not null" json:"commission_amount"`
	PayoutAmount     int64   `gorm:"not null" json:"payout_amount"`
	Currency         string  `gorm:"type:text;not null" json:"currency"`
	Rate             float64 `gorm:"not null" json:"rate"`

	Status            CommissionStatus `gorm:"type:text;not null" json:"status"`
	CheckoutSessionID string           `gorm:"uniqueIndex;not null" json:"checkout_session_id"`
	PaymentIntentID   string           `json:"payment_intent_id,omitempty"`
	TransferID        string           `json:"transfer_id,omitempty"`
	TransferAttempts  int              `gorm:"not null;default:0" json:"transfer_attempts"`

	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (Commission) TableName() string { return "commissions" }
