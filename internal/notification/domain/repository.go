package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, notification *Notification) error
	ListByRecipient(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, unreadOnly bool, limit int) ([]*Notification, error)

	// MarkRead flips the read flag for a notification owned by the
	// recipient. Returns true when a row was updated.
	MarkRead(ctx context.Context, db *gorm.DB, recipientID, id snowflake.ID) (bool, error)
}
