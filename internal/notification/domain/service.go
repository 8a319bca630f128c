package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Notifier is the fire-and-forget side of the service: Notify never
// returns an error because a failed notification must not roll back the
// state transition that triggered it.
type Notifier interface {
	Notify(ctx context.Context, recipientID snowflake.ID, title, message string, needID, offerID *snowflake.ID)
}

type ListNotificationRequest struct {
	UnreadOnly bool
	Limit      int32
}

type Service interface {
	Notifier

	List(ctx context.Context, req ListNotificationRequest) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
}

var (
	ErrInvalidCaller = errors.New("invalid_caller")
	ErrInvalidID     = errors.New("invalid_notification_id")
	ErrNotFound      = errors.New("notification_not_found")
)
