package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// StatusCode refines a PaymentStatus, e.g. the reason a payment was declined
type StatusCode string

const (
	StatusCodeSuccessfulPayment    StatusCode = "successful_payment"
	StatusCodeProcessingPayment    StatusCode = "processing_payment"
	StatusCodeInsufficientFunds    StatusCode = "insufficient_funds"
	StatusCodeLostCard             StatusCode = "lost_card"
	StatusCodeStolenCard           StatusCode = "stolen_card"
	StatusCodeCardVelocityExceeded StatusCode = "card_velocity_exceeded"
)

// RejectionCodes is the fixed set of reasons a failed payment can carry.
var RejectionCodes = []StatusCode{
	StatusCodeInsufficientFunds,
	StatusCodeLostCard,
	StatusCodeStolenCard,
	StatusCodeCardVelocityExceeded,
}

// IsRejectionCode reports whether code belongs to RejectionCodes
func IsRejectionCode(code StatusCode) bool {
	for _, c := range RejectionCodes {
		if c == code {
			return true
		}
	}
	return false
}

// PaymentStatusUpdate is the name of the event carrying a PaymentResult
const PaymentStatusUpdate = "paymentStatusUpdate"

// PaymentResult is the outcome reported by the acquiring bank for a transaction
type PaymentResult struct {
	BankTransactionID uuid.UUID
	Status            PaymentStatus
	Code              StatusCode
}

// IsTerminal checks if the result settles the payment
func (r PaymentResult) IsTerminal() bool {
	return r.Status == PaymentStatusSuccess || r.Status == PaymentStatusFailed
}

// Payment represents a payment domain entity.
// Card data is only ever held in its masked form.
type Payment struct {
	ID                 uuid.UUID
	BankTransactionID  uuid.UUID
	CardHolderName     string
	CardNumber         string
	CardExpirationDate string
	CVV                string
	Amount             decimal.Decimal
	Currency           string
	Status             PaymentStatus
	StatusCode         StatusCode
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsPending checks if payment is in pending status
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}

// IsTerminal checks if payment is in a terminal state
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}
