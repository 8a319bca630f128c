package repository

import (
	"context"
	"time"

	"github.com/grannhjalp/grannhjalp/internal/webhook/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Claim(ctx context.Context, db *gorm.DB, event *domain.ProcessorEvent) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO processor_events (id, provider_event_id, event_type, processed, received_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (provider_event_id) DO NOTHING`,
		event.ID,
		event.ProviderEventID,
		event.EventType,
		false,
		event.ReceivedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	// Seen before; a prior delivery may still have failed mid-processing.
	var processed bool
	err := db.WithContext(ctx).Raw(
		`SELECT processed FROM processor_events WHERE provider_event_id = ? LIMIT 1`,
		event.ProviderEventID,
	).Scan(&processed).Error
	if err != nil {
		return false, err
	}
	return processed, nil
}

func (r *repo) MarkProcessed(ctx context.Context, db *gorm.DB, providerEventID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE processor_events
		 SET processed = ?, processed_at = ?
		 WHERE provider_event_id = ?`,
		true,
		time.Now().UTC(),
		providerEventID,
	).Error
}
