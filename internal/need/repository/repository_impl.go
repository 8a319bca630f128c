package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/grannhjalp/grannhjalp/internal/need/domain"
	"github.com/grannhjalp/grannhjalp/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const needColumns = `id, owner_id, title, description, category, budget_amount, budget_currency,
	location, needed_by, status, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, need *domain.Need) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO needs (`+needColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		need.ID,
		need.OwnerID,
		need.Title,
		need.Description,
		need.Category,
		need.BudgetAmount,
		need.BudgetCurrency,
		need.Location,
		need.NeededBy,
		need.Status,
		need.CreatedAt,
		need.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Need, error) {
	var item domain.Need
	err := db.WithContext(ctx).Raw(
		`SELECT `+needColumns+`
		 FROM needs
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

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListNeedFilter, page pagination.Pagination) ([]*domain.Need, error) {
	query := db.WithContext(ctx).Table("needs").Select(needColumns)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OwnerID != 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}

	if strings.TrimSpace(page.PageToken) != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err == nil && cursor != nil && cursor.CreatedAt != "" {
			createdAt, parseErr := time.Parse(time.RFC3339, cursor.CreatedAt)
			if parseErr == nil {
				query = query.Where("(created_at, id) < (?, ?)", createdAt, cursor.ID)
			}
		}
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 20
	}

	var items []*domain.Need
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, need *domain.Need) error {
	return db.WithContext(ctx).Exec(
		`UPDATE needs
		 SET title = ?, description = ?, category = ?, budget_amount = ?, budget_currency = ?,
			location = ?, needed_by = ?, updated_at = ?
		 WHERE id = ?`,
		need.Title,
		need.Description,
		need.Category,
		need.BudgetAmount,
		need.BudgetCurrency,
		need.Location,
		need.NeededBy,
		need.UpdatedAt,
		need.ID,
	).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, next domain.NeedStatus) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE needs
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
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
		// Ledger rows outlive the need; drop the references only.
		if err := tx.Exec(`UPDATE commissions SET need_id = NULL, help_offer_id = NULL WHERE need_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM notifications WHERE need_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM help_offers WHERE need_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM needs WHERE id = ?`, id).Error
	})
}
