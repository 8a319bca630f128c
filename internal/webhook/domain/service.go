package domain

import "context"

type Service interface {
	// HandleEvent verifies, deduplicates and dispatches one webhook
	// delivery. A nil return means the delivery may be acknowledged;
	// any other error asks the processor to redeliver.
	HandleEvent(ctx context.Context, signatureHeader string, payload []byte) error
}
