package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/grannhjalp/grannhjalp/internal/commission/domain"
	"github.com/grannhjalp/grannhjalp/internal/config"
	helpofferdomain "github.com/grannhjalp/grannhjalp/internal/helpoffer/domain"
	"github.com/grannhjalp/grannhjalp/internal/identity"
	"github.com/grannhjalp/grannhjalp/internal/locker"
	needdomain "github.com/grannhjalp/grannhjalp/internal/need/domain"
	notificationdomain "github.com/grannhjalp/grannhjalp/internal/notification/domain"
	"github.com/grannhjalp/grannhjalp/internal/observability/metrics"
	"github.com/grannhjalp/grannhjalp/internal/processor"
	profiledomain "github.com/grannhjalp/grannhjalp/internal/profile/domain"
	"github.com/grannhjalp/grannhjalp/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultCurrency   = "SEK"
	retrySweepLockTTL = 30 * time.Second
)

type Params struct {
	fx.In

	Config      config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Processor   processor.Client
	Commissions commissiondomain.Repository
	Offers      helpofferdomain.Repository
	Needs       needdomain.Repository
	Profiles    profiledomain.Repository
	Notifier    notificationdomain.Notifier
	Metrics     *metrics.Metrics `optional:"true"`
	Locker      *locker.Locker   `optional:"true"`
}

type Service struct {
	cfg         config.Config
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	processor   processor.Client
	commissions commissiondomain.Repository
	offers      helpofferdomain.Repository
	needs       needdomain.Repository
	profiles    profiledomain.Repository
	notifier    notificationdomain.Notifier
	metrics     *metrics.Metrics
	locker      *locker.Locker
}

func New(p Params) domain.Service {
	return &Service{
		cfg:         p.Config,
		db:          p.DB,
		log:         p.Log.Named("settlement.service"),
		genID:       p.GenID,
		processor:   p.Processor,
		commissions: p.Commissions,
		offers:      p.Offers,
		needs:       p.Needs,
		profiles:    p.Profiles,
		notifier:    p.Notifier,
		metrics:     p.Metrics,
		locker:      p.Locker,
	}
}

func (s *Service) InitiatePayment(ctx context.Context, req domain.InitiatePaymentRequest) (*domain.CheckoutIntent, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCaller
	}

	offerID, err := snowflake.ParseString(strings.TrimSpace(req.OfferID))
	if err != nil || offerID == 0 {
		return nil, domain.ErrInvalidOffer
	}

	offer, err := s.offers.FindByID(ctx, s.db, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, domain.ErrNotFound
	}

	need, err := s.needs.FindByID(ctx, s.db, offer.NeedID)
	if err != nil {
		return nil, err
	}
	if need == nil {
		return nil, domain.ErrNotFound
	}
	if need.OwnerID != callerID {
		return nil, domain.ErrNotPayer
	}
	if !offer.State.MutuallyApproved() {
		return nil, domain.ErrNotMutual
	}
	if need.Status == needdomain.NeedStatusCompleted || need.Status == needdomain.NeedStatusCancelled {
		return nil, domain.ErrNeedClosed
	}

	existing, err := s.commissions.ListByOffer(ctx, s.db, offer.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range existing {
		if c.Status != commissiondomain.StatusPending {
			return nil, domain.ErrAlreadySettled
		}
	}

	amount := req.Amount
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if amount == 0 && need.HasBudget() {
		amount = need.BudgetAmount
		if currency == "" {
			currency = need.BudgetCurrency
		}
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if currency == "" {
		currency = defaultCurrency
	}

	commissionAmount, payoutAmount, err := commissiondomain.Split(amount, s.cfg.CommissionRate)
	if err != nil {
		return nil, err
	}

	// The processor call comes first. If it fails, nothing was written
	// and the payer can simply retry.
	commissionID := s.genID.Generate()
	session, err := s.processor.CreateCheckoutSession(ctx, processor.CheckoutSessionParams{
		AmountMinor: amount,
		Currency:    currency,
		Description: "Grannhjälp: " + need.Title,
		SuccessURL:  s.cfg.CheckoutSuccessURL,
		CancelURL:   s.cfg.CheckoutCancelURL,
		Metadata: map[string]string{
			"commission_id": commissionID.String(),
			"need_id":       need.ID.String(),
			"offer_id":      offer.ID.String(),
			"payer_id":      callerID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	needID := need.ID
	offerRef := offer.ID
	commission := commissiondomain.Commission{
		ID:                commissionID,
		NeedID:            &needID,
		HelpOfferID:       &offerRef,
		PayerID:           callerID,
		PayeeID:           offer.HelperID,
		Amount:            amount,
		CommissionAmount:  commissionAmount,
		PayoutAmount:      payoutAmount,
		Currency:          currency,
		Rate:              s.cfg.CommissionRate,
		Status:            commissiondomain.StatusPending,
		CheckoutSessionID: session.ID,
		PaymentIntentID:   session.PaymentIntentID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.commissions.Insert(ctx, s.db, &commission); err != nil {
		return nil, err
	}

	s.log.Info("checkout session created",
		zap.String("commission_id", commission.ID.String()),
		zap.String("checkout_session_id", session.ID),
		zap.Int64("amount", amount),
		zap.String("currency", currency))

	return &domain.CheckoutIntent{
		CommissionID:      commission.ID.String(),
		CheckoutSessionID: session.ID,
		CheckoutURL:       session.URL,
		Amount:            amount,
		CommissionAmount:  commissionAmount,
		PayoutAmount:      payoutAmount,
		Currency:          currency,
	}, nil
}

func (s *Service) ReconcilePaymentCompleted(ctx context.Context, sessionID, paymentIntentID string) error {
	commission, err := s.commissions.FindByCheckoutSession(ctx, s.db, strings.TrimSpace(sessionID))
	if err != nil {
		return err
	}
	if commission == nil {
		return domain.ErrUnknownSession
	}
	if commission.Status == commissiondomain.StatusCompleted {
		return nil
	}

	if paymentIntentID != "" && commission.PaymentIntentID == "" {
		if err := s.commissions.SetPaymentIntent(ctx, s.db, commission.ID, paymentIntentID); err != nil {
			return err
		}
	}

	justParked := false
	if commission.Status == commissiondomain.StatusPending {
		moved, err := s.commissions.UpdateStatus(ctx, s.db, commission.ID,
			commissiondomain.StatusPending, commissiondomain.StatusTransferPending)
		if err != nil {
			return err
		}
		if !moved {
			// A concurrent delivery of the same event won the race.
			return nil
		}
		commission.Status = commissiondomain.StatusTransferPending
		justParked = true
		s.metrics.RecordSettlement(string(commissiondomain.StatusTransferPending))
	}

	return s.attemptPayout(ctx, commission, justParked)
}

func (s *Service) ReconcileAccountUpdated(ctx context.Context, accountID string, detailsSubmitted, payoutsEnabled bool) error {
	profile, err := s.profiles.FindByAccountID(ctx, s.db, strings.TrimSpace(accountID))
	if err != nil {
		return err
	}
	if profile == nil {
		return domain.ErrUnknownAccount
	}

	// Onboarding is complete only when the helper submitted their details
	// AND the processor enabled payouts. Level-triggered: always overwrite
	// with what the processor reports.
	ready := detailsSubmitted && payoutsEnabled
	if err := s.profiles.SetPayoutsReady(ctx, s.db, profile.ID, ready); err != nil {
		return err
	}
	if !ready {
		return nil
	}
	profile.PayoutsReady = true

	return s.retryBlockedPayouts(ctx, profile)
}

func (s *Service) ListEarnings(ctx context.Context) (*domain.ListEarningsResponse, error) {
	callerID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCaller
	}

	items, err := s.commissions.ListByPayee(ctx, s.db, callerID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range items {
		if c.Status == commissiondomain.StatusCompleted {
			total += c.PayoutAmount
		}
	}
	return &domain.ListEarningsResponse{Commissions: items, TotalEarned: total}, nil
}

// attemptPayout moves a transfer_pending or transfer_failed commission
// to completed, or parks it until the helper's account can receive
// payouts. The processor idempotency key is the commission ID, so a
// duplicate attempt can never double-pay. notifyParked is set only by
// the call that moved the commission into transfer_pending, so retries
// and redeliveries do not repeat the setup reminder.
func (s *Service) attemptPayout(ctx context.Context, commission *commissiondomain.Commission, notifyParked bool) error {
	payee, err := s.profiles.FindByID(ctx, s.db, commission.PayeeID)
	if err != nil {
		return err
	}
	if payee == nil || payee.ProcessorAccountID == "" || !payee.PayoutsReady {
		s.log.Info("payout parked until helper account is ready",
			zap.String("commission_id", commission.ID.String()),
			zap.String("payee_id", commission.PayeeID.String()))
		if notifyParked {
			s.notifier.Notify(ctx, commission.PayeeID,
				"Payment received",
				"A payment is waiting for you. Finish your payout account setup to receive it.",
				commission.NeedID, commission.HelpOfferID)
		}
		return nil
	}

	if commission.TransferAttempts >= commissiondomain.MaxTransferAttempts {
		s.log.Warn("payout retry budget exhausted",
			zap.String("commission_id", commission.ID.String()),
			zap.Int("attempts", commission.TransferAttempts))
		return nil
	}

	transfer, err := s.processor.CreateTransfer(ctx, processor.TransferParams{
		AmountMinor:        commission.PayoutAmount,
		Currency:           commission.Currency,
		DestinationAccount: payee.ProcessorAccountID,
		IdempotencyKey:     "transfer-" + commission.ID.String(),
		Metadata: map[string]string{
			"commission_id": commission.ID.String(),
		},
	})
	if err != nil {
		s.metrics.RecordTransfer("failed")
		if _, ferr := s.commissions.RecordTransferFailure(ctx, s.db, commission.ID, commission.Status); ferr != nil {
			return ferr
		}
		s.log.Error("payout transfer failed",
			zap.String("commission_id", commission.ID.String()),
			zap.Error(err))
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		moved, err := s.commissions.MarkCompleted(ctx, tx, commission.ID, commission.Status, transfer.ID)
		if err != nil {
			return err
		}
		if !moved {
			// Already settled by a concurrent attempt; the idempotency key
			// guaranteed only one real transfer.
			return nil
		}
		if commission.NeedID != nil {
			if err := s.completeNeed(ctx, tx, *commission.NeedID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordTransfer("succeeded")
	s.metrics.RecordSettlement(string(commissiondomain.StatusCompleted))
	s.log.Info("commission settled",
		zap.String("commission_id", commission.ID.String()),
		zap.String("transfer_id", transfer.ID))

	s.notifier.Notify(ctx, commission.PayeeID,
		"Payout sent",
		"Your payout is on its way to your account.",
		commission.NeedID, commission.HelpOfferID)
	s.notifier.Notify(ctx, commission.PayerID,
		"Payment settled",
		"Your payment was received and the helper has been paid.",
		commission.NeedID, commission.HelpOfferID)
	return nil
}

func (s *Service) completeNeed(ctx context.Context, tx *gorm.DB, needID snowflake.ID) error {
	for _, from := range []needdomain.NeedStatus{needdomain.NeedStatusInProgress, needdomain.NeedStatusOpen} {
		moved, err := s.needs.UpdateStatus(ctx, tx, needID, from, needdomain.NeedStatusCompleted)
		if err != nil {
			return err
		}
		if moved {
			return nil
		}
	}
	// Already completed, cancelled, or deleted; the ledger row stands on
	// its own either way.
	return nil
}

func (s *Service) retryBlockedPayouts(ctx context.Context, payee *profiledomain.Profile) error {
	if s.locker != nil {
		key := "grannhjalp:payout-retry:" + payee.ID.String()
		token, ok, err := s.locker.TryLock(ctx, key, retrySweepLockTTL)
		if err != nil {
			s.log.Warn("payout retry lock unavailable", zap.Error(err))
		} else if !ok {
			return nil
		} else {
			defer func() {
				if err := s.locker.Release(ctx, key, token); err != nil {
					s.log.Warn("payout retry lock release failed", zap.Error(err))
				}
			}()
		}
	}

	for _, status := range []commissiondomain.CommissionStatus{
		commissiondomain.StatusTransferPending,
		commissiondomain.StatusTransferFailed,
	} {
		items, err := s.commissions.ListByStatus(ctx, s.db, status)
		if err != nil {
			return err
		}
		for i := range items {
			commission := items[i]
			if commission.PayeeID != payee.ID {
				continue
			}
			if err := s.attemptPayout(ctx, &commission, false); err != nil {
				s.log.Warn("payout retry failed",
					zap.String("commission_id", commission.ID.String()),
					zap.Error(err))
			}
		}
	}
	return nil
}
