package output

import (
	"context"
	"errors"

	"github.com/cashflow/card-gateway/internal/core"
	"github.com/google/uuid"
)

var (
	// ErrPaymentNotFound is returned when no payment matches the lookup key
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentAlreadyResolved is returned when a payment already left the pending status
	ErrPaymentAlreadyResolved = errors.New("payment already resolved")
)

// PaymentRepository is an output port (secondary port) for payment data access
// Secondary adapters (database implementations) will implement this
type PaymentRepository interface {
	// Create creates a new payment
	Create(ctx context.Context, payment *core.Payment) error

	// GetByID retrieves a payment by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*core.Payment, error)

	// ResolvePayment atomically sets status and status code of the payment
	// holding bankTransactionID, provided it is still pending
	ResolvePayment(ctx context.Context, bankTransactionID uuid.UUID, status core.PaymentStatus, code core.StatusCode) error
}
