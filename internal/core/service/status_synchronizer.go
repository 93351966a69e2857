package service

import (
	"context"
	"errors"
	"time"

	"github.com/cashflow/card-gateway/internal/core"
	"github.com/cashflow/card-gateway/internal/port/output"
	"go.uber.org/zap"
)

const synchronizeTimeout = 5 * time.Second

// StatusSynchronizer writes bank results back onto the stored payments
type StatusSynchronizer struct {
	paymentRepo output.PaymentRepository
	logger      *zap.Logger
}

// NewStatusSynchronizer creates a new status synchronizer
func NewStatusSynchronizer(paymentRepo output.PaymentRepository, logger *zap.Logger) *StatusSynchronizer {
	return &StatusSynchronizer{
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

// Handle applies result to the payment it belongs to.
// It never fails: every error is logged and the result dropped.
// Only pending payments are updated, so a repeated result changes nothing.
func (s *StatusSynchronizer) Handle(result core.PaymentResult) {
	fields := []zap.Field{
		zap.String("bank_transaction_id", result.BankTransactionID.String()),
		zap.String("status", string(result.Status)),
		zap.String("code", string(result.Code)),
	}

	if !result.IsTerminal() {
		s.logger.Warn("Ignoring non terminal payment result", fields...)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), synchronizeTimeout)
	defer cancel()

	err := s.paymentRepo.ResolvePayment(ctx, result.BankTransactionID, result.Status, result.Code)
	switch {
	case err == nil:
		s.logger.Info("Payment status updated", fields...)
	case errors.Is(err, output.ErrPaymentNotFound):
		s.logger.Warn("No payment for transaction, dropping status update", fields...)
	case errors.Is(err, output.ErrPaymentAlreadyResolved):
		s.logger.Info("Payment already resolved, skipping status update", fields...)
	default:
		s.logger.Error("Failed to update payment status", append(fields, zap.Error(err))...)
	}
}
