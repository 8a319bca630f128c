package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Profile is the locally stored slice of a user: display and contact
// details plus the connected payout account. Identity itself lives with
// the external identity provider; the profile row is keyed by its subject.
type Profile struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	DisplayName string       `gorm:"not null" json:"display_name"`
	Email       string       `gorm:"not null" json:"email"`
	Phone       string       `gorm:"type:text" json:"phone,omitempty"`

	// Connected payout account at the payment processor. PayoutsReady is
	// true only once the processor reports both details submitted and
	// payouts enabled.
	ProcessorAccountID string `gorm:"type:text" json:"-"`
	PayoutsReady       bool   `gorm:"not null;default:false" json:"payouts_ready"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// Contact is the subset disclosed to a counterparty after mutual approval.
type Contact struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
}

func (p Profile) Contact() Contact {
	return Contact{
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Phone:       p.Phone,
	}
}
