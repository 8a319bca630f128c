package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidSignature = errors.New("invalid_webhook_signature")
	ErrInvalidPayload   = errors.New("invalid_webhook_payload")
)

// ProcessorEvent is the dedup record for one delivered webhook event.
// The unique provider event id makes redelivery a no-op once the event
// is processed.
type ProcessorEvent struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	ProviderEventID string       `gorm:"uniqueIndex;not null" json:"provider_event_id"`
	EventType       string       `gorm:"not null" json:"event_type"`
	Processed       bool         `gorm:"not null;default:false" json:"processed"`
	ReceivedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"received_at"`
	ProcessedAt     *time.Time   `json:"processed_at,omitempty"`
}

func (ProcessorEvent) TableName() string { return "processor_events" }
