package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, offer *HelpOffer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*HelpOffer, error)
	ListByNeed(ctx context.Context, db *gorm.DB, needID snowflake.ID) ([]HelpOffer, error)
	ListByHelper(ctx context.Context, db *gorm.DB, helperID snowflake.ID) ([]HelpOffer, error)

	// UpdateState is a compare-and-set: the row moves to next only if it
	// still has the expected prior state. Returns true when the row moved.
	UpdateState(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, next OfferState) (bool, error)

	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
