package domain

import (
	"context"
	"errors"

	commissiondomain "github.com/grannhjalp/grannhjalp/internal/commission/domain"
)

var (
	ErrInvalidCaller  = errors.New("invalid_caller")
	ErrInvalidOffer   = errors.New("invalid_offer_id")
	ErrInvalidAmount  = errors.New("invalid_payment_amount")
	ErrNotFound       = errors.New("settlement_target_not_found")
	ErrNotPayer       = errors.New("caller_not_payer")
	ErrNotMutual      = errors.New("offer_not_mutually_approved")
	ErrNeedClosed     = errors.New("need_already_closed")
	ErrAlreadySettled = errors.New("payment_already_settled")

	// ErrUnknownSession and ErrUnknownAccount mark webhook events that
	// reference nothing we know. They are logged and acknowledged, never
	// retried.
	ErrUnknownSession = errors.New("unknown_checkout_session")
	ErrUnknownAccount = errors.New("unknown_processor_account")
)

type InitiatePaymentRequest struct {
	OfferID string `json:"offer_id"`

	// Amount in minor units. Zero means "use the need's budget".
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CheckoutIntent is what the payer gets back: a hosted checkout URL and
// the ledger row it will settle into.
type CheckoutIntent struct {
	CommissionID      string `json:"commission_id"`
	CheckoutSessionID string `json:"checkout_session_id"`
	CheckoutURL       string `json:"checkout_url"`
	Amount            int64  `json:"amount"`
	CommissionAmount  int64  `json:"commission_amount"`
	PayoutAmount      int64  `json:"payout_amount"`
	Currency          string `json:"currency"`
}

type ListEarningsResponse struct {
	Commissions []commissiondomain.Commission `json:"commissions"`
	TotalEarned int64                         `json:"total_earned"`
}

type Service interface {
	InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*CheckoutIntent, error)

	// ReconcilePaymentCompleted settles the commission referenced by a
	// checkout.session.completed event. Idempotent per session.
	ReconcilePaymentCompleted(ctx context.Context, sessionID, paymentIntentID string) error

	// ReconcileAccountUpdated applies the onboarding state reported by an
	// account.updated event and retries any payouts blocked on it. The
	// account can receive payouts only when detailsSubmitted and
	// payoutsEnabled both hold.
	ReconcileAccountUpdated(ctx context.Context, accountID string, detailsSubmitted, payoutsEnabled bool) error

	ListEarnings(ctx context.Context) (*ListEarningsResponse, error)
}
