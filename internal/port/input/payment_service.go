package input

import (
	"context"

	"github.com/cashflow/card-gateway/internal/core"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentService is an input port (primary port) for payment operations
// Primary adapters (HTTP handlers) will use this
type PaymentService interface {
	// SubmitPayment authorizes and records a new payment
	SubmitPayment(ctx context.Context, req SubmitPaymentRequest) (*PaymentResponse, error)

	// GetPaymentStatus retrieves the current state of a payment by ID
	GetPaymentStatus(ctx context.Context, id uuid.UUID) (*PaymentResponse, error)
}

// ResolutionSettler decides the final outcome of a deferred transaction.
// Schedulers call it once the resolution delay has elapsed.
type ResolutionSettler interface {
	Settle(bankTransactionID uuid.UUID)
}

// SubmitPaymentRequest represents the request to submit a payment
type SubmitPaymentRequest struct {
	CardHolderName     string
	CardNumber         string
	CardExpirationDate string
	CVV                string
	Amount             decimal.Decimal
	Currency           string
}

// PaymentResponse represents the response for a payment, card data masked
type PaymentResponse struct {
	ID                 uuid.UUID
	CardHolderName     string
	CardNumber         string
	CardExpirationDate string
	CVV                string
	Amount             decimal.Decimal
	Currency           string
	Status             core.PaymentStatus
	Code               core.StatusCode
}
