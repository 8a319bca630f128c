package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/grannhjalp/grannhjalp/internal/config"
	settlementdomain "github.com/grannhjalp/grannhjalp/internal/settlement/domain"
	"github.com/grannhjalp/grannhjalp/internal/webhook/domain"
	webhookrepo "github.com/grannhjalp/grannhjalp/internal/webhook/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "whsec_test"

type settlementStub struct {
	mu             sync.Mutex
	payments       int
	accountUpdates int
	paymentErr     error
	lastSession    string
	lastAccount    string
	lastDetails    bool
	lastEnabled    bool
}

func (s *settlementStub) InitiatePayment(ctx context.Context, req settlementdomain.InitiatePaymentRequest) (*settlementdomain.CheckoutIntent, error) {
	return nil, nil
}

func (s *settlementStub) ReconcilePaymentCompleted(ctx context.Context, sessionID, paymentIntentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paymentErr != nil {
		return s.paymentErr
	}
	s.payments++
	s.lastSession = sessionID
	return nil
}

func (s *settlementStub) ReconcileAccountUpdated(ctx context.Context, accountID string, detailsSubmitted, payoutsEnabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountUpdates++
	s.lastAccount = accountID
	s.lastDetails = detailsSubmitted
	s.lastEnabled = payoutsEnabled
	return nil
}

func (s *settlementStub) ListEarnings(ctx context.Context) (*settlementdomain.ListEarningsResponse, error) {
	return nil, nil
}

func (s *settlementStub) Payments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payments
}

func setupWebhookService(t *testing.T) (domain.Service, *settlementStub) {
	t.Helper()

	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.Exec(`CREATE TABLE processor_events (
		id BIGINT PRIMARY KEY,
		provider_event_id TEXT NOT NULL UNIQUE,
		event_type TEXT NOT NULL,
		processed BOOLEAN NOT NULL DEFAULT FALSE,
		received_at TIMESTAMP NOT NULL,
		processed_at TIMESTAMP
	)`).Error; err != nil {
		t.Fatalf("prepare schema: %v", err)
	}

	stub := &settlementStub{}
	svc := New(Params{
		Config:     config.Config{ProcessorWebhookSecret: testSecret},
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       webhookrepo.Provide(),
		Settlement: stub,
	})
	return svc, stub
}

func sign(payload []byte) string {
	now := time.Now()
	mac := hmac.New(sha256.New, []byte(testSecret))
	fmt.Fprintf(mac, "%d.", now.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestHandleCheckoutCompleted(t *testing.T) {
	svc, stub := setupWebhookService(t)

	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_123", "payment_intent": "pi_123", "metadata": {"commission_id": "42"}}}
	}`)

	if err := svc.HandleEvent(context.Background(), sign(payload), payload); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if stub.Payments() != 1 {
		t.Fatalf("expected 1 settlement, got %d", stub.Payments())
	}
	if stub.lastSession != "cs_123" {
		t.Fatalf("expected session cs_123, got %s", stub.lastSession)
	}
}

func TestHandleEventDeduplicates(t *testing.T) {
	svc, stub := setupWebhookService(t)

	payload := []byte(`{
		"id": "evt_dup",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_dup"}}
	}`)

	for i := 0; i < 3; i++ {
		if err := svc.HandleEvent(context.Background(), sign(payload), payload); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if stub.Payments() != 1 {
		t.Fatalf("expected 1 settlement after redeliveries, got %d", stub.Payments())
	}
}

func TestHandleEventRetriesAfterFailure(t *testing.T) {
	svc, stub := setupWebhookService(t)

	payload := []byte(`{
		"id": "evt_retry",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_retry"}}
	}`)

	stub.paymentErr = errors.New("database offline")
	if err := svc.HandleEvent(context.Background(), sign(payload), payload); err == nil {
		t.Fatalf("expected processing failure to surface")
	}

	// A failed delivery is not marked processed; the redelivery succeeds.
	stub.paymentErr = nil
	if err := svc.HandleEvent(context.Background(), sign(payload), payload); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if stub.Payments() != 1 {
		t.Fatalf("expected settlement on redelivery, got %d", stub.Payments())
	}
}

func TestHandleAccountUpdated(t *testing.T) {
	svc, stub := setupWebhookService(t)

	payload := []byte(`{
		"id": "evt_acct",
		"type": "account.updated",
		"data": {"object": {"id": "acct_1", "details_submitted": true, "payouts_enabled": true}}
	}`)

	if err := svc.HandleEvent(context.Background(), sign(payload), payload); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if stub.accountUpdates != 1 || stub.lastAccount != "acct_1" || !stub.lastDetails || !stub.lastEnabled {
		t.Fatalf("expected account update acct_1 with both flags, got %+v", stub)
	}
}

func TestHandleAccountUpdatedPassesBothFlags(t *testing.T) {
	svc, stub := setupWebhookService(t)

	// Payouts enabled before the details were submitted must not look
	// onboarding-complete downstream.
	payload := []byte(`{
		"id": "evt_acct_half",
		"type": "account.updated",
		"data": {"object": {"id": "acct_2", "details_submitted": false, "payouts_enabled": true}}
	}`)

	if err := svc.HandleEvent(context.Background(), sign(payload), payload); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if stub.accountUpdates != 1 || stub.lastAccount != "acct_2" {
		t.Fatalf("expected account update acct_2, got %+v", stub)
	}
	if stub.lastDetails || !stub.lastEnabled {
		t.Fatalf("expected details_submitted=false payouts_enabled=true, got details=%v enabled=%v",
			stub.lastDetails, stub.lastEnabled)
	}
}

func TestHandleEventRejectsBadSignature(t *testing.T) {
	svc, stub := setupWebhookService(t)

	payload := []byte(`{"id": "evt_bad", "type": "checkout.session.completed", "data": {"object": {"id": "cs_x"}}}`)

	err := svc.HandleEvent(context.Background(), "t=1,v1=deadbeef", payload)
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if stub.Payments() != 0 {
		t.Fatalf("expected no settlement on bad signature")
	}
}

func TestHandleEventRejectsMalformedPayload(t *testing.T) {
	svc, _ := setupWebhookService(t)

	payload := []byte(`{"id": "evt_nofields"}`)
	if err := svc.HandleEvent(context.Background(), sign(payload), payload); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for missing type, got %v", err)
	}

	garbage := []byte(`not json at all`)
	if err := svc.HandleEvent(context.Background(), sign(garbage), garbage); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for garbage, got %v", err)
	}
}

func TestHandleEventIgnoresUnknownType(t *testing.T) {
	svc, stub := setupWebhookService(t)

	payload := []byte(`{"id": "evt_other", "type": "invoice.paid", "data": {"object": {"id": "in_1"}}}`)
	if err := svc.HandleEvent(context.Background(), sign(payload), payload); err != nil {
		t.Fatalf("unknown type must be acknowledged: %v", err)
	}
	if stub.Payments() != 0 || stub.accountUpdates != 0 {
		t.Fatalf("unknown type must not dispatch")
	}
}

func TestHandleUnknownSessionAcknowledged(t *testing.T) {
	svc, stub := setupWebhookService(t)
	stub.paymentErr = settlementdomain.ErrUnknownSession

	payload := []byte(`{
		"id": "evt_unknown",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_unknown"}}
	}`)

	// Events referencing nothing of ours are logged and acknowledged.
	if err := svc.HandleEvent(context.Background(), sign(payload), payload); err != nil {
		t.Fatalf("expected acknowledgement, got %v", err)
	}
}
