package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, profile *Profile) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Profile, error)
	FindByAccountID(ctx context.Context, db *gorm.DB, accountID string) (*Profile, error)
	SetProcessorAccount(ctx context.Context, db *gorm.DB, id snowflake.ID, accountID string) error
	SetPayoutsReady(ctx context.Context, db *gorm.DB, id snowflake.ID, ready bool) error
}
