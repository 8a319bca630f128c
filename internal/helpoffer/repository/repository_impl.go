package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/grannhjalp/grannhjalp/internal/helpoffer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const offerColumns = `id, need_id, helper_id, message, state, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, offer *domain.HelpOffer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO help_offers (`+offerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		offer.ID,
		offer.NeedID,
		offer.HelperID,
		offer.Message,
		offer.State,
		offer.CreatedAt,
		offer.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.HelpOffer, error) {
	var item domain.HelpOffer
	err := db.WithContext(ctx).Raw(
		`SELECT `+offerColumns+`
		 FROM help_offers
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByNeed(ctx context.Context, db *gorm.DB, needID snowflake.ID) ([]domain.HelpOffer, error) {
	var items []domain.HelpOffer
	err := db.WithContext(ctx).Raw(
		`SELECT `+offerColumns+`
		 FROM help_offers
		 WHERE need_id = ?
		 ORDER BY created_at ASC, id ASC`,
		needID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByHelper(ctx context.Context, db *gorm.DB, helperID snowflake.ID) ([]domain.HelpOffer, error) {
	var items []domain.HelpOffer
	err := db.WithContext(ctx).Raw(
		`SELECT `+offerColumns+`
		 FROM help_offers
		 WHERE helper_id = ?
		 ORDER BY created_at DESC, id DESC`,
		helperID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateState(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, next domain.OfferState) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE help_offers
		 SET state = ?, updated_at = ?
		 WHERE id = ? AND state = ?`,
		next,
		time.Now().UTC(),
		id,
		expected,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM notifications WHERE help_offer_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM help_offers WHERE id = ?`, id).Error
	})
}
