package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/grannhjalp/grannhjalp/internal/config"
	"github.com/grannhjalp/grannhjalp/internal/observability/metrics"
	settlementdomain "github.com/grannhjalp/grannhjalp/internal/settlement/domain"
	"github.com/grannhjalp/grannhjalp/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	eventCheckoutCompleted = "checkout.session.completed"
	eventAccountUpdated    = "account.updated"
)

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

type accountObject struct {
	ID               string `json:"id"`
	DetailsSubmitted bool   `json:"details_submitted"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
}

type Params struct {
	fx.In

	Config     config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Settlement settlementdomain.Service
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	settlement settlementdomain.Service
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		cfg:        p.Config,
		db:         p.DB,
		log:        p.Log.Named("webhook.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		settlement: p.Settlement,
		metrics:    p.Metrics,
	}
}

func (s *Service) HandleEvent(ctx context.Context, signatureHeader string, payload []byte) error {
	if err := domain.VerifySignature(s.cfg.ProcessorWebhookSecret, signatureHeader, payload, time.Now()); err != nil {
		s.metrics.RecordWebhookEvent("unknown", "rejected_signature")
		return err
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return domain.ErrInvalidPayload
	}
	if envelope.ID == "" || envelope.Type == "" {
		return domain.ErrInvalidPayload
	}

	alreadyProcessed, err := s.repo.Claim(ctx, s.db, &domain.ProcessorEvent{
		ID:              s.genID.Generate(),
		ProviderEventID: envelope.ID,
		EventType:       envelope.Type,
		ReceivedAt:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if alreadyProcessed {
		s.metrics.RecordWebhookEvent(envelope.Type, "duplicate")
		return nil
	}

	if err := s.dispatch(ctx, envelope); err != nil {
		s.metrics.RecordWebhookEvent(envelope.Type, "failed")
		return err
	}

	if err := s.repo.MarkProcessed(ctx, s.db, envelope.ID); err != nil {
		return err
	}
	s.metrics.RecordWebhookEvent(envelope.Type, "processed")
	return nil
}

func (s *Service) dispatch(ctx context.Context, envelope eventEnvelope) error {
	switch envelope.Type {
	case eventCheckoutCompleted:
		var session checkoutSessionObject
		if err := json.Unmarshal(envelope.Data.Object, &session); err != nil || session.ID == "" {
			return domain.ErrInvalidPayload
		}
		err := s.settlement.ReconcilePaymentCompleted(ctx, session.ID, session.PaymentIntent)
		if errors.Is(err, settlementdomain.ErrUnknownSession) {
			// Nothing of ours; acknowledge so the processor stops retrying.
			s.log.Warn("checkout completion for unknown session",
				zap.String("provider_event_id", envelope.ID),
				zap.String("checkout_session_id", session.ID))
			return nil
		}
		return err

	case eventAccountUpdated:
		var account accountObject
		if err := json.Unmarshal(envelope.Data.Object, &account); err != nil || account.ID == "" {
			return domain.ErrInvalidPayload
		}
		err := s.settlement.ReconcileAccountUpdated(ctx, account.ID, account.DetailsSubmitted, account.PayoutsEnabled)
		if errors.Is(err, settlementdomain.ErrUnknownAccount) {
			s.log.Warn("account update for unknown account",
				zap.String("provider_event_id", envelope.ID),
				zap.String("account_id", account.ID))
			return nil
		}
		return err

	default:
		s.log.Debug("ignoring webhook event type",
			zap.String("provider_event_id", envelope.ID),
			zap.String("event_type", envelope.Type))
		return nil
	}
}
