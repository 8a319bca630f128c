package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/grannhjalp/grannhjalp/internal/commission/domain"
	commissionrepo "github.com/grannhjalp/grannhjalp/internal/commission/repository"
	"github.com/grannhjalp/grannhjalp/internal/config"
	helpofferdomain "github.com/grannhjalp/grannhjalp/internal/helpoffer/domain"
	helpofferrepo "github.com/grannhjalp/grannhjalp/internal/helpoffer/repository"
	"github.com/grannhjalp/grannhjalp/internal/identity"
	needdomain "github.com/grannhjalp/grannhjalp/internal/need/domain"
	needrepo "github.com/grannhjalp/grannhjalp/internal/need/repository"
	"github.com/grannhjalp/grannhjalp/internal/processor"
	profiledomain "github.com/grannhjalp/grannhjalp/internal/profile/domain"
	profilerepo "github.com/grannhjalp/grannhjalp/internal/profile/repository"
	"github.com/grannhjalp/grannhjalp/internal/settlement/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type processorStub struct {
	mu           sync.Mutex
	checkouts    int
	transfers    int
	transferErr  error
	transferKeys map[string]int
	lastTransfer processor.TransferParams
}

func newProcessorStub() *processorStub {
	return &processorStub{transferKeys: map[string]int{}}
}

func (p *processorStub) CreateCheckoutSession(ctx context.Context, params processor.CheckoutSessionParams) (processor.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkouts++
	id := fmt.Sprintf("cs_test_%d", p.checkouts)
	return processor.CheckoutSession{
		ID:              id,
		URL:             "https://checkout.example.com/" + id,
		PaymentIntentID: fmt.Sprintf("pi_test_%d", p.checkouts),
	}, nil
}

func (p *processorStub) CreateTransfer(ctx context.Context, params processor.TransferParams) (processor.Transfer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transferErr != nil {
		return processor.Transfer{}, p.transferErr
	}
	p.transferKeys[params.IdempotencyKey]++
	p.transfers++
	p.lastTransfer = params
	return processor.Transfer{ID: fmt.Sprintf("tr_test_%d", p.transfers)}, nil
}

func (p *processorStub) CreateConnectedAccount(ctx context.Context, params processor.AccountParams) (processor.Account, error) {
	return processor.Account{ID: "acct_test"}, nil
}

func (p *processorStub) CreateAccountOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	return "https://onboarding.example.com/" + accountID, nil
}

func (p *processorStub) Transfers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transfers
}

func (p *processorStub) setTransferErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transferErr = err
}

type notifierStub struct {
	mu   sync.Mutex
	sent []string
}

func (n *notifierStub) Notify(ctx context.Context, recipientID snowflake.ID, title, message string, needID, offerID *snowflake.ID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, recipientID.String()+":"+title)
}

func (n *notifierStub) count(recipientID snowflake.ID, title string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, entry := range n.sent {
		if entry == recipientID.String()+":"+title {
			total++
		}
	}
	return total
}

type harness struct {
	svc         domain.Service
	db          *gorm.DB
	node        *snowflake.Node
	stub        *processorStub
	notifier    *notifierStub
	needs       needdomain.Repository
	offers      helpofferdomain.Repository
	profiles    profiledomain.Repository
	commissions commissiondomain.Repository
}

func setupSettlementService(t *testing.T) *harness {
	t.Helper()

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error
	prepareSettlementSchema(t, db)

	stub := newProcessorStub()
	notifier := &notifierStub{}
	needs := needrepo.Provide()
	offers := helpofferrepo.Provide()
	profiles := profilerepo.Provide()
	commissions := commissionrepo.Provide()

	svc := New(Params{
		Config: config.Config{
			CommissionRate:     0.10,
			CheckoutSuccessURL: "https://app.example.com/success",
			CheckoutCancelURL:  "https://app.example.com/cancel",
		},
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Processor:   stub,
		Commissions: commissions,
		Offers:      offers,
		Needs:       needs,
		Profiles:    profiles,
		Notifier:    notifier,
	})

	return &harness{
		svc:         svc,
		db:          db,
		node:        node,
		stub:        stub,
		notifier:    notifier,
		needs:       needs,
		offers:      offers,
		profiles:    profiles,
		commissions: commissions,
	}
}

func prepareSettlementSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	statements := []string{
		`CREATE TABLE profiles (
			id BIGINT PRIMARY KEY,
			display_name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			processor_account_id TEXT NOT NULL DEFAULT '',
			payouts_ready BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE needs (
			id BIGINT PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			budget_amount BIGINT NOT NULL DEFAULT 0,
			budget_currency TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			needed_by TIMESTAMP,
			status TEXT NOT NULL DEFAULT 'open',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE help_offers (
			id BIGINT PRIMARY KEY,
			need_id BIGINT NOT NULL,
			helper_id BIGINT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT 'submitted',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE commissions (
			id BIGINT PRIMARY KEY,
			need_id BIGINT,
			help_offer_id BIGINT,
			payer_id BIGINT NOT NULL,
			payee_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			commission_amount BIGINT NOT NULL,
			payout_amount BIGINT NOT NULL,
			currency TEXT NOT NULL,
			rate REAL NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			checkout_session_id TEXT NOT NULL,
			payment_intent_id TEXT NOT NULL DEFAULT '',
			transfer_id TEXT NOT NULL DEFAULT '',
			transfer_attempts INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX ux_commissions_checkout_session ON commissions (checkout_session_id)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("prepare schema: %v", err)
		}
	}
}

type fixture struct {
	owner  snowflake.ID
	helper snowflake.ID
	need   *needdomain.Need
	offer  *helpofferdomain.HelpOffer
}

func (h *harness) seedMutualOffer(t *testing.T, payoutsReady bool) fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	owner := h.node.Generate()
	helper := h.node.Generate()
	for _, p := range []profiledomain.Profile{
		{ID: owner, DisplayName: "Eva", Email: "eva@example.com", CreatedAt: now, UpdatedAt: now},
		{ID: helper, DisplayName: "Jonas", Email: "jonas@example.com", CreatedAt: now, UpdatedAt: now},
	} {
		profile := p
		if err := h.profiles.Upsert(ctx, h.db, &profile); err != nil {
			t.Fatalf("seed profile: %v", err)
		}
	}
	if err := h.profiles.SetProcessorAccount(ctx, h.db, helper, "acct_helper"); err != nil {
		t.Fatalf("set account: %v", err)
	}
	if payoutsReady {
		if err := h.profiles.SetPayoutsReady(ctx, h.db, helper, true); err != nil {
			t.Fatalf("set payouts ready: %v", err)
		}
	}

	need := &needdomain.Need{
		ID:             h.node.Generate(),
		OwnerID:        owner,
		Title:          "Hjälp med flytt",
		Category:       needdomain.CategoryMoving,
		BudgetAmount:   20000,
		BudgetCurrency: "SEK",
		Status:         needdomain.NeedStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.needs.Insert(ctx, h.db, need); err != nil {
		t.Fatalf("seed need: %v", err)
	}

	offer := &helpofferdomain.HelpOffer{
		ID:        h.node.Generate(),
		NeedID:    need.ID,
		HelperID:  helper,
		State:     helpofferdomain.StateMutuallyApproved,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.offers.Insert(ctx, h.db, offer); err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	return fixture{owner: owner, helper: helper, need: need, offer: offer}
}

func asUser(id snowflake.ID) context.Context {
	return identity.WithUserID(context.Background(), id)
}

func TestInitiatePayment(t *testing.T) {
	h := setupSettlementService(t)
	f := h.seedMutualOffer(t, true)

	intent, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: f.offer.ID.String(),
	})
	if err != nil {
		t.Fatalf("initiate payment: %v", err)
	}

	if intent.Amount != 20000 || intent.CommissionAmount != 2000 || intent.PayoutAmount != 18000 {
		t.Fatalf("unexpected split: %+v", intent)
	}
	if intent.Currency != "SEK" {
		t.Fatalf("expected SEK from need budget, got %s", intent.Currency)
	}
	if intent.CheckoutURL == "" {
		t.Fatalf("expected checkout URL")
	}

	commission, err := h.commissions.FindByCheckoutSession(context.Background(), h.db, intent.CheckoutSessionID)
	if err != nil || commission == nil {
		t.Fatalf("expected ledger row for session: %v", err)
	}
	if commission.Status != commissiondomain.StatusPending {
		t.Fatalf("expected pending commission, got %s", commission.Status)
	}
	if commission.Rate != 0.10 {
		t.Fatalf("expected snapshotted rate 0.10, got %f", commission.Rate)
	}
}

func TestInitiatePaymentPreconditions(t *testing.T) {
	h := setupSettlementService(t)
	f := h.seedMutualOffer(t, true)

	if _, err := h.svc.InitiatePayment(asUser(f.helper), domain.InitiatePaymentRequest{
		OfferID: f.offer.ID.String(),
	}); !errors.Is(err, domain.ErrNotPayer) {
		t.Fatalf("expected ErrNotPayer for helper, got %v", err)
	}

	// A not yet mutually approved offer is not payable.
	pending := &helpofferdomain.HelpOffer{
		ID:        h.node.Generate(),
		NeedID:    f.need.ID,
		HelperID:  h.node.Generate(),
		State:     helpofferdomain.StateHelperApproved,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.offers.Insert(context.Background(), h.db, pending); err != nil {
		t.Fatalf("seed pending offer: %v", err)
	}
	if _, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: pending.ID.String(),
	}); !errors.Is(err, domain.ErrNotMutual) {
		t.Fatalf("expected ErrNotMutual, got %v", err)
	}

	if _, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: f.offer.ID.String(),
		Amount:  -5,
	}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	if _, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: "not-an-id",
	}); !errors.Is(err, domain.ErrInvalidOffer) {
		t.Fatalf("expected ErrInvalidOffer for unparsable id, got %v", err)
	}

	// A well-formed ID referencing no offer is absent, not invalid.
	if _, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: h.node.Generate().String(),
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing offer, got %v", err)
	}

	orphan := &helpofferdomain.HelpOffer{
		ID:        h.node.Generate(),
		NeedID:    h.node.Generate(),
		HelperID:  h.node.Generate(),
		State:     helpofferdomain.StateMutuallyApproved,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.offers.Insert(context.Background(), h.db, orphan); err != nil {
		t.Fatalf("seed orphan offer: %v", err)
	}
	if _, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: orphan.ID.String(),
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing need, got %v", err)
	}
}

func TestSettlePaymentPaysOutAndCompletesNeed(t *testing.T) {
	h := setupSettlementService(t)
	f := h.seedMutualOffer(t, true)

	intent, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: f.offer.ID.String(),
	})
	if err != nil {
		t.Fatalf("initiate payment: %v", err)
	}

	if err := h.svc.ReconcilePaymentCompleted(context.Background(), intent.CheckoutSessionID, "pi_evt"); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if h.stub.Transfers() != 1 {
		t.Fatalf("expected 1 transfer, got %d", h.stub.Transfers())
	}
	if h.stub.lastTransfer.AmountMinor != 18000 {
		t.Fatalf("expected payout of 18000, got %d", h.stub.lastTransfer.AmountMinor)
	}
	if h.stub.lastTransfer.DestinationAccount != "acct_helper" {
		t.Fatalf("expected transfer to helper account, got %s", h.stub.lastTransfer.DestinationAccount)
	}

	commission, err := h.commissions.FindByCheckoutSession(context.Background(), h.db, intent.CheckoutSessionID)
	if err != nil || commission == nil {
		t.Fatalf("reload commission: %v", err)
	}
	if commission.Status != commissiondomain.StatusCompleted {
		t.Fatalf("expected completed commission, got %s", commission.Status)
	}
	if commission.TransferID == "" || commission.CompletedAt == nil {
		t.Fatalf("expected transfer id and completion time, got %+v", commission)
	}

	need, err := h.needs.FindByID(context.Background(), h.db, f.need.ID)
	if err != nil || need == nil {
		t.Fatalf("reload need: %v", err)
	}
	if need.Status != needdomain.NeedStatusCompleted {
		t.Fatalf("expected completed need, got %s", need.Status)
	}
}

func TestSettlePaymentIsIdempotent(t *testing.T) {
	h := setupSettlementService(t)
	f := h.seedMutualOffer(t, true)

	intent, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: f.offer.ID.String(),
	})
	if err != nil {
		t.Fatalf("initiate payment: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := h.svc.ReconcilePaymentCompleted(context.Background(), intent.CheckoutSessionID, ""); err != nil {
			t.Fatalf("reconcile %d: %v", i, err)
		}
	}

	if h.stub.Transfers() != 1 {
		t.Fatalf("expected exactly 1 transfer after redeliveries, got %d", h.stub.Transfers())
	}
}

func TestSettlePaymentUnknownSession(t *testing.T) {
	h := setupSettlementService(t)

	err := h.svc.ReconcilePaymentCompleted(context.Background(), "cs_nobody", "")
	if !errors.Is(err, domain.ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}

func TestPayoutParkedUntilAccountReady(t *testing.T) {
	h := setupSettlementService(t)
	f := h.seedMutualOffer(t, false)

	intent, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: f.offer.ID.String(),
	})
	if err != nil {
		t.Fatalf("initiate payment: %v", err)
	}

	if err := h.svc.ReconcilePaymentCompleted(context.Background(), intent.CheckoutSessionID, ""); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if h.stub.Transfers() != 0 {
		t.Fatalf("expected no transfer while account not ready, got %d", h.stub.Transfers())
	}

	commission, err := h.commissions.FindByCheckoutSession(context.Background(), h.db, intent.CheckoutSessionID)
	if err != nil || commission == nil {
		t.Fatalf("reload commission: %v", err)
	}
	if commission.Status != commissiondomain.StatusTransferPending {
		t.Fatalf("expected transfer_pending, got %s", commission.Status)
	}

	// The processor later reports the account ready; the parked payout runs.
	if err := h.svc.ReconcileAccountUpdated(context.Background(), "acct_helper", true, true); err != nil {
		t.Fatalf("account updated: %v", err)
	}
	if h.stub.Transfers() != 1 {
		t.Fatalf("expected parked payout to run, got %d transfers", h.stub.Transfers())
	}

	commission, err = h.commissions.FindByCheckoutSession(context.Background(), h.db, intent.CheckoutSessionID)
	if err != nil || commission == nil {
		t.Fatalf("reload commission: %v", err)
	}
	if commission.Status != commissiondomain.StatusCompleted {
		t.Fatalf("expected completed after retry, got %s", commission.Status)
	}
}

func TestTransferFailureIsRecordedAndRetried(t *testing.T) {
	h := setupSettlementService(t)
	f := h.seedMutualOffer(t, true)

	intent, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: f.offer.ID.String(),
	})
	if err != nil {
		t.Fatalf("initiate payment: %v", err)
	}

	h.stub.setTransferErr(fmt.Errorf("%w: transfer refused", processor.ErrUpstream))
	if err := h.svc.ReconcilePaymentCompleted(context.Background(), intent.CheckoutSessionID, ""); err == nil {
		t.Fatalf("expected transfer failure to surface")
	}

	commission, err := h.commissions.FindByCheckoutSession(context.Background(), h.db, intent.CheckoutSessionID)
	if err != nil || commission == nil {
		t.Fatalf("reload commission: %v", err)
	}
	if commission.Status != commissiondomain.StatusTransferFailed {
		t.Fatalf("expected transfer_failed, got %s", commission.Status)
	}
	if commission.TransferAttempts != 1 {
		t.Fatalf("expected 1 recorded attempt, got %d", commission.TransferAttempts)
	}

	h.stub.setTransferErr(nil)
	if err := h.svc.ReconcileAccountUpdated(context.Background(), "acct_helper", true, true); err != nil {
		t.Fatalf("account updated: %v", err)
	}

	commission, err = h.commissions.FindByCheckoutSession(context.Background(), h.db, intent.CheckoutSessionID)
	if err != nil || commission == nil {
		t.Fatalf("reload commission: %v", err)
	}
	if commission.Status != commissiondomain.StatusCompleted {
		t.Fatalf("expected completed after retry, got %s", commission.Status)
	}
}

func TestRetryBudgetExhausted(t *testing.T) {
	h := setupSettlementService(t)
	f := h.seedMutualOffer(t, true)

	intent, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: f.offer.ID.String(),
	})
	if err != nil {
		t.Fatalf("initiate payment: %v", err)
	}

	h.stub.setTransferErr(fmt.Errorf("%w: transfer refused", processor.ErrUpstream))
	_ = h.svc.ReconcilePaymentCompleted(context.Background(), intent.CheckoutSessionID, "")
	for i := 0; i < commissiondomain.MaxTransferAttempts; i++ {
		_ = h.svc.ReconcileAccountUpdated(context.Background(), "acct_helper", true, true)
	}

	commission, err := h.commissions.FindByCheckoutSession(context.Background(), h.db, intent.CheckoutSessionID)
	if err != nil || commission == nil {
		t.Fatalf("reload commission: %v", err)
	}
	if commission.TransferAttempts > commissiondomain.MaxTransferAttempts {
		t.Fatalf("attempts exceeded budget: %d", commission.TransferAttempts)
	}

	// Budget spent: further account updates must not call the processor.
	h.stub.setTransferErr(nil)
	if err := h.svc.ReconcileAccountUpdated(context.Background(), "acct_helper", true, true); err != nil {
		t.Fatalf("account updated: %v", err)
	}
	if h.stub.Transfers() != 0 {
		t.Fatalf("expected no transfer after budget exhausted, got %d", h.stub.Transfers())
	}
}

func TestAccountUpdatedUnknownAccount(t *testing.T) {
	h := setupSettlementService(t)

	err := h.svc.ReconcileAccountUpdated(context.Background(), "acct_nobody", true, true)
	if !errors.Is(err, domain.ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
}

func TestAccountUpdatedLevelTriggered(t *testing.T) {
	h := setupSettlementService(t)
	f := h.seedMutualOffer(t, true)

	// The processor can revoke readiness; the flag mirrors the event.
	if err := h.svc.ReconcileAccountUpdated(context.Background(), "acct_helper", true, false); err != nil {
		t.Fatalf("account updated: %v", err)
	}
	profile, err := h.profiles.FindByID(context.Background(), h.db, f.helper)
	if err != nil || profile == nil {
		t.Fatalf("reload profile: %v", err)
	}
	if profile.PayoutsReady {
		t.Fatalf("expected payouts_ready revoked")
	}
}

func TestAccountUpdatedRequiresBothFlags(t *testing.T) {
	h := setupSettlementService(t)
	f := h.seedMutualOffer(t, false)

	cases := []struct {
		name             string
		detailsSubmitted bool
		payoutsEnabled   bool
		wantReady        bool
	}{
		{"details only", true, false, false},
		{"payouts only", false, true, false},
		{"both", true, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := h.svc.ReconcileAccountUpdated(context.Background(), "acct_helper",
				tc.detailsSubmitted, tc.payoutsEnabled); err != nil {
				t.Fatalf("account updated: %v", err)
			}
			profile, err := h.profiles.FindByID(context.Background(), h.db, f.helper)
			if err != nil || profile == nil {
				t.Fatalf("reload profile: %v", err)
			}
			if profile.PayoutsReady != tc.wantReady {
				t.Fatalf("expected payouts_ready=%v, got %v", tc.wantReady, profile.PayoutsReady)
			}
		})
	}
}

func TestHalfOnboardedAccountGetsNoTransfer(t *testing.T) {
	h := setupSettlementService(t)
	f := h.seedMutualOffer(t, false)

	intent, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: f.offer.ID.String(),
	})
	if err != nil {
		t.Fatalf("initiate payment: %v", err)
	}
	if err := h.svc.ReconcilePaymentCompleted(context.Background(), intent.CheckoutSessionID, ""); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	// Payouts enabled but details never submitted must not release funds.
	if err := h.svc.ReconcileAccountUpdated(context.Background(), "acct_helper", false, true); err != nil {
		t.Fatalf("account updated: %v", err)
	}
	if h.stub.Transfers() != 0 {
		t.Fatalf("expected no transfer to a half-onboarded account, got %d", h.stub.Transfers())
	}

	commission, err := h.commissions.FindByCheckoutSession(context.Background(), h.db, intent.CheckoutSessionID)
	if err != nil || commission == nil {
		t.Fatalf("reload commission: %v", err)
	}
	if commission.Status != commissiondomain.StatusTransferPending {
		t.Fatalf("expected commission to stay parked, got %s", commission.Status)
	}
}

func TestParkedReminderSentOnce(t *testing.T) {
	h := setupSettlementService(t)
	f := h.seedMutualOffer(t, false)

	intent, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: f.offer.ID.String(),
	})
	if err != nil {
		t.Fatalf("initiate payment: %v", err)
	}

	// Redeliveries and half-onboarded account updates keep the payout
	// parked; the setup reminder goes out only when it first parks.
	for i := 0; i < 3; i++ {
		if err := h.svc.ReconcilePaymentCompleted(context.Background(), intent.CheckoutSessionID, ""); err != nil {
			t.Fatalf("reconcile %d: %v", i, err)
		}
	}
	if err := h.svc.ReconcileAccountUpdated(context.Background(), "acct_helper", true, false); err != nil {
		t.Fatalf("account updated: %v", err)
	}

	if got := h.notifier.count(f.helper, "Payment received"); got != 1 {
		t.Fatalf("expected 1 setup reminder, got %d", got)
	}
}

func TestListEarnings(t *testing.T) {
	h := setupSettlementService(t)
	f := h.seedMutualOffer(t, true)

	intent, err := h.svc.InitiatePayment(asUser(f.owner), domain.InitiatePaymentRequest{
		OfferID: f.offer.ID.String(),
	})
	if err != nil {
		t.Fatalf("initiate payment: %v", err)
	}
	if err := h.svc.ReconcilePaymentCompleted(context.Background(), intent.CheckoutSessionID, ""); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	earnings, err := h.svc.ListEarnings(asUser(f.helper))
	if err != nil {
		t.Fatalf("list earnings: %v", err)
	}
	if len(earnings.Commissions) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(earnings.Commissions))
	}
	if earnings.TotalEarned != 18000 {
		t.Fatalf("expected total earned 18000, got %d", earnings.TotalEarned)
	}
}
