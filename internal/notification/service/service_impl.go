package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/grannhjalp/grannhjalp/internal/identity"
	"github.com/grannhjalp/grannhjalp/internal/notification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("notification.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Notify stores a notification for the recipient. Failures are logged
// and swallowed so the originating transition is never rolled back.
func (s *Service) Notify(ctx context.Context, recipientID snowflake.ID, title, message string, needID, offerID *snowflake.ID) {
	if recipientID == 0 {
		return
	}

	item := domain.Notification{
		ID:          s.genID.Generate(),
		RecipientID: recipientID,
		Title:       strings.TrimSpace(title),
		Message:     strings.TrimSpace(message),
		NeedID:      needID,
		HelpOfferID: offerID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &item); err != nil {
		s.log.Warn("failed to store notification",
			zap.String("recipient_id", recipientID.String()),
			zap.String("title", item.Title),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, req domain.ListNotificationRequest) ([]domain.Notification, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCaller
	}

	limit := int(req.Limit)
	if limit <= 0 {
		limit = 50
	}

	items, err := s.repo.ListByRecipient(ctx, s.db, callerID, req.UnreadOnly, limit)
	if err != nil {
		return nil, err
	}

	notifications := make([]domain.Notification, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		notifications = append(notifications, *item)
	}
	return notifications, nil
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidCaller
	}

	notificationID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || notificationID == 0 {
		return domain.ErrInvalidID
	}

	updated, err := s.repo.MarkRead(ctx, s.db, callerID, notificationID)
	if err != nil {
		return err
	}
	if !updated {
		return domain.ErrNotFound
	}
	return nil
}
