package processor

import (
	"context"
	"errors"
)

// ErrUpstream marks a failed or timed-out processor call. Callers may
// retry; no local state is written until the upstream call succeeded.
var ErrUpstream = errors.New("processor_unavailable")

type CheckoutSessionParams struct {
	AmountMinor int64
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string

	// Metadata is echoed back on the completion event. Only opaque
	// identifiers go here; the processor is never trusted with
	// authorization decisions.
	Metadata map[string]string
}

type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
}

type TransferParams struct {
	AmountMinor        int64
	Currency           string
	DestinationAccount string

	// IdempotencyKey makes retried transfer calls safe: the processor
	// executes at most one transfer per key.
	IdempotencyKey string
	Metadata       map[string]string
}

type Transfer struct {
	ID string
}

type AccountParams struct {
	Email    string
	Metadata map[string]string
}

type Account struct {
	ID string
}

// Client is the outbound payment-processor boundary.
type Client interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (CheckoutSession, error)
	CreateTransfer(ctx context.Context, params TransferParams) (Transfer, error)
	CreateConnectedAccount(ctx context.Context, params AccountParams) (Account, error)
	CreateAccountOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
}
