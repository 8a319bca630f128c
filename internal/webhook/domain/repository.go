package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Claim records the delivery if this provider event id has not been
	// seen, and reports whether the event was already fully processed.
	Claim(ctx context.Context, db *gorm.DB, event *ProcessorEvent) (alreadyProcessed bool, err error)

	MarkProcessed(ctx context.Context, db *gorm.DB, providerEventID string) error
}
