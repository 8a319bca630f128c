package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/grannhjalp/grannhjalp/internal/profile/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, profile *domain.Profile) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO profiles (id, display_name, email, phone, processor_account_id, payouts_ready, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email,
			phone = excluded.phone,
			updated_at = excluded.updated_at`,
		profile.ID,
		profile.DisplayName,
		profile.Email,
		profile.Phone,
		profile.ProcessorAccountID,
		profile.PayoutsReady,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Profile, error) {
	var item domain.Profile
	err := db.WithContext(ctx).Raw(
		`SELECT id, display_name, email, phone, processor_account_id, payouts_ready, created_at, updated_at
		 FROM profiles
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

func (r *repo) FindByAccountID(ctx context.Context, db *gorm.DB, accountID string) (*domain.Profile, error) {
	var item domain.Profile
	err := db.WithContext(ctx).Raw(
		`SELECT id, display_name, email, phone, processor_account_id, payouts_ready, created_at, updated_at
		 FROM profiles
		 WHERE processor_account_id = ?
		 LIMIT 1`,
		accountID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) SetProcessorAccount(ctx context.Context, db *gorm.DB, id snowflake.ID, accountID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE profiles
		 SET processor_account_id = ?, updated_at = ?
		 WHERE id = ?`,
		accountID,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) SetPayoutsReady(ctx context.Context, db *gorm.DB, id snowflake.ID, ready bool) error {
	return db.WithContext(ctx).Exec(
		`UPDATE profiles
		 SET payouts_ready = ?, updated_at = ?
		 WHERE id = ?`,
		ready,
		time.Now().UTC(),
		id,
	).Error
}
