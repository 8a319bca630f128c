package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/grannhjalp/grannhjalp/internal/commission/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const commissionColumns = `id, need_id, help_offer_id, payer_id, payee_id,
	amount, commission_amount, payout_amount, currency, rate,
	status, checkout_session_id, payment_intent_id, transfer_id, transfer_attempts,
	created_at, updated_at, completed_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, commission *domain.Commission) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO commissions (`+commissionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		commission.ID,
		commission.NeedID,
		commission.HelpOfferID,
		commission.PayerID,
		commission.PayeeID,
		commission.Amount,
		commission.CommissionAmount,
		commission.PayoutAmount,
		commission.Currency,
		commission.Rate,
		commission.Status,
		commission.CheckoutSessionID,
		commission.PaymentIntentID,
		commission.TransferID,
		commission.TransferAttempts,
		commission.CreatedAt,
		commission.UpdatedAt,
		commission.CompletedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Commission, error) {
	var item domain.Commission
	err := db.WithContext(ctx).Raw(
		`SELECT `+commissionColumns+`
		 FROM commissions
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

func (r *repo) FindByCheckoutSession(ctx context.Context, db *gorm.DB, sessionID string) (*domain.Commission, error) {
	var item domain.Commission
	err := db.WithContext(ctx).Raw(
		`SELECT `+commissionColumns+`
		 FROM commissions
		 WHERE checkout_session_id = ?
		 LIMIT 1`,
		sessionID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByPayee(ctx context.Context, db *gorm.DB, payeeID snowflake.ID) ([]domain.Commission, error) {
	var items []domain.Commission
	err := db.WithContext(ctx).Raw(
		`SELECT `+commissionColumns+`
		 FROM commissions
		 WHERE payee_id = ?
		 ORDER BY created_at DESC, id DESC`,
		payeeID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByOffer(ctx context.Context, db *gorm.DB, offerID snowflake.ID) ([]domain.Commission, error) {
	var items []domain.Commission
	err := db.WithContext(ctx).Raw(
		`SELECT `+commissionColumns+`
		 FROM commissions
		 WHERE help_offer_id = ?
		 ORDER BY created_at DESC, id DESC`,
		offerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, status domain.CommissionStatus) ([]domain.Commission, error) {
	var items []domain.Commission
	err := db.WithContext(ctx).Raw(
		`SELECT `+commissionColumns+`
		 FROM commissions
		 WHERE status = ?
		 ORDER BY created_at ASC, id ASC`,
		status,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, next domain.CommissionStatus) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE commissions
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

func (r *repo) MarkCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID, expected domain.CommissionStatus, transferID string) (bool, error) {
	now := time.Now().UTC()
	res := db.WithContext(ctx).Exec(
		`UPDATE commissions
		 SET status = ?, transfer_id = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusCompleted,
		transferID,
		now,
		now,
		id,
		expected,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) RecordTransferFailure(ctx context.Context, db *gorm.DB, id snowflake.ID, expected domain.CommissionStatus) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE commissions
		 SET status = ?, transfer_attempts = transfer_attempts + 1, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusTransferFailed,
		time.Now().UTC(),
		id,
		expected,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) SetPaymentIntent(ctx context.Context, db *gorm.DB, id snowflake.ID, paymentIntentID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE commissions
		 SET payment_intent_id = ?, updated_at = ?
		 WHERE id = ?`,
		paymentIntentID,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) DetachNeed(ctx context.Context, db *gorm.DB, needID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE commissions
		 SET need_id = NULL, help_offer_id = NULL, updated_at = ?
		 WHERE need_id = ?`,
		time.Now().UTC(),
		needID,
	).Error
}
