package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("commission_not_found")

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, commission *Commission) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Commission, error)
	FindByCheckoutSession(ctx context.Context, db *gorm.DB, sessionID string) (*Commission, error)
	ListByPayee(ctx context.Context, db *gorm.DB, payeeID snowflake.ID) ([]Commission, error)
	ListByOffer(ctx context.Context, db *gorm.DB, offerID snowflake.ID) ([]Commission, error)
	ListByStatus(ctx context.Context, db *gorm.DB, status CommissionStatus) ([]Commission, error)

	// UpdateStatus is a compare-and-set on the status column. Returns true
	// when the row moved.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, next CommissionStatus) (bool, error)

	MarkCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID, expected CommissionStatus, transferID string) (bool, error)
	RecordTransferFailure(ctx context.Context, db *gorm.DB, id snowflake.ID, expected CommissionStatus) (bool, error)
	SetPaymentIntent(ctx context.Context, db *gorm.DB, id snowflake.ID, paymentIntentID string) error
	DetachNeed(ctx context.Context, db *gorm.DB, needID snowflake.ID) error
}
