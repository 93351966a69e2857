package output

import (
	"context"
	"time"

	"github.com/cashflow/card-gateway/internal/core"
	"github.com/google/uuid"
)

// PaymentResultPublisher carries resolved payment results to their subscribers
type PaymentResultPublisher interface {
	Publish(result core.PaymentResult)
}

// ResolutionScheduler runs the deferred resolution of a pending transaction once,
// after delay, without blocking the caller
type ResolutionScheduler interface {
	Schedule(ctx context.Context, bankTransactionID uuid.UUID, delay time.Duration) error
}
