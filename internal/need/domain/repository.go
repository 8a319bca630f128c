package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/grannhjalp/grannhjalp/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListNeedFilter struct {
	Category Category
	Status   NeedStatus
	OwnerID  snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, need *Need) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Need, error)
	List(ctx context.Context, db *gorm.DB, filter ListNeedFilter, page pagination.Pagination) ([]*Need, error)
	Update(ctx context.Context, db *gorm.DB, need *Need) error

	// UpdateStatus is a compare-and-set: the row moves to next only if it
	// still has the expected prior status. Returns true when the row moved.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, next NeedStatus) (bool, error)

	// Delete removes the need and cascades its offers and notifications.
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
