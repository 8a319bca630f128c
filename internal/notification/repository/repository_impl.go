package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/grannhjalp/grannhjalp/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, notification *domain.Notification) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO notifications (id, recipient_id, title, message, read, need_id, help_offer_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		notification.ID,
		notification.RecipientID,
		notification.Title,
		notification.Message,
		notification.Read,
		notification.NeedID,
		notification.HelpOfferID,
		notification.CreatedAt,
	).Error
}

func (r *repo) ListByRecipient(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	query := db.WithContext(ctx).
		Table("notifications").
		Select("id, recipient_id, title, message, read, need_id, help_offer_id, created_at").
		Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	if limit <= 0 {
		limit = 50
	}

	var items []*domain.Notification
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, recipientID, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE notifications
		 SET read = ?
		 WHERE id = ? AND recipient_id = ?`,
		true,
		id,
		recipientID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
