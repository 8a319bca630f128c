package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Notification is an append-only user-facing message. Only the read flag
// ever changes after creation, and only by the recipient.
type Notification struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	RecipientID snowflake.ID  `gorm:"not null;index" json:"recipient_id"`
	Title       string        `gorm:"not null" json:"title"`
	Message     string        `gorm:"type:text;not null" json:"message"`
	Read        bool          `gorm:"not null;default:false" json:"read"`
	NeedID      *snowflake.ID `gorm:"index" json:"need_id,omitempty"`
	HelpOfferID *snowflake.ID `json:"help_offer_id,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
