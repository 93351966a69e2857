package acquirer

import (
	"context"
	"fmt"
	"time"

	"github.com/cashflow/card-gateway/internal/core"
	"github.com/cashflow/card-gateway/internal/port/output"
	"github.com/google/uuid"
)

// DefaultResolutionDelay is how long the bank takes to settle an unknown card
const DefaultResolutionDelay = 15 * time.Second

// Outcome is either an immediate terminal result or a deferred one.
// Result always holds the status the payment is created with.
type Outcome struct {
	Result   core.PaymentResult
	Deferred bool
	Delay    time.Duration
}

// Resolver turns a classification into an Outcome
type Resolver struct {
	index     IndexGenerator
	scheduler output.ResolutionScheduler
	delay     time.Duration
}

// NewResolver creates a new resolver
func NewResolver(index IndexGenerator, scheduler output.ResolutionScheduler, delay time.Duration) *Resolver {
	if delay <= 0 {
		delay = DefaultResolutionDelay
	}
	return &Resolver{
		index:     index,
		scheduler: scheduler,
		delay:     delay,
	}
}

// Resolve computes the outcome for a transaction without side effects.
// Deferred outcomes must be started with Defer once the payment is stored.
func (r *Resolver) Resolve(classification Classification, bankTransactionID uuid.UUID) (Outcome, error) {
	switch classification {
	case Accepted:
		return Outcome{Result: core.PaymentResult{
			BankTransactionID: bankTransactionID,
			Status:            core.PaymentStatusSuccess,
			Code:              core.StatusCodeSuccessfulPayment,
		}}, nil
	case Declined:
		code, err := pickRejectionCode(r.index)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Result: core.PaymentResult{
			BankTransactionID: bankTransactionID,
			Status:            core.PaymentStatusFailed,
			Code:              code,
		}}, nil
	default:
		return Outcome{
			Result: core.PaymentResult{
				BankTransactionID: bankTransactionID,
				Status:            core.PaymentStatusPending,
				Code:              core.StatusCodeProcessingPayment,
			},
			Deferred: true,
			Delay:    r.delay,
		}, nil
	}
}

// Defer schedules the deferred resolution of outcome
func (r *Resolver) Defer(ctx context.Context, outcome Outcome) error {
	if !outcome.Deferred {
		return nil
	}
	if err := r.scheduler.Schedule(ctx, outcome.Result.BankTransactionID, outcome.Delay); err != nil {
		return fmt.Errorf("failed to schedule resolution: %w", err)
	}
	return nil
}

func pickRejectionCode(index IndexGenerator) (core.StatusCode, error) {
	i, err := index.Index(len(core.RejectionCodes))
	if err != nil {
		return "", fmt.Errorf("failed to draw rejection code: %w", err)
	}
	return core.RejectionCodes[i], nil
}
