package acquirer

import (
	"github.com/cashflow/card-gateway/internal/core"
	"github.com/cashflow/card-gateway/internal/port/output"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var settleStatuses = []core.PaymentStatus{core.PaymentStatusSuccess, core.PaymentStatusFailed}

// Settler draws the final outcome of a deferred transaction and publishes it
type Settler struct {
	index     IndexGenerator
	publisher output.PaymentResultPublisher
	logger    *zap.Logger
}

// NewSettler creates a new settler
func NewSettler(index IndexGenerator, publisher output.PaymentResultPublisher, logger *zap.Logger) *Settler {
	return &Settler{
		index:     index,
		publisher: publisher,
		logger:    logger,
	}
}

// Settle publishes exactly one terminal result for bankTransactionID.
// The draw happens here, independently of the one made at submission.
func (s *Settler) Settle(bankTransactionID uuid.UUID) {
	result, err := s.draw(bankTransactionID)
	if err != nil {
		s.logger.Error("Failed to settle transaction",
			zap.String("bank_transaction_id", bankTransactionID.String()),
			zap.Error(err))
		return
	}

	s.logger.Info("Status update for transaction",
		zap.String("bank_transaction_id", bankTransactionID.String()),
		zap.String("status", string(result.Status)),
		zap.String("code", string(result.Code)))

	s.publisher.Publish(result)
}

func (s *Settler) draw(bankTransactionID uuid.UUID) (core.PaymentResult, error) {
	i, err := s.index.Index(len(settleStatuses))
	if err != nil {
		return core.PaymentResult{}, err
	}

	result := core.PaymentResult{
		BankTransactionID: bankTransactionID,
		Status:            settleStatuses[i],
		Code:              core.StatusCodeSuccessfulPayment,
	}
	if result.Status == core.PaymentStatusFailed {
		code, err := pickRejectionCode(s.index)
		if err != nil {
			return core.PaymentResult{}, err
		}
		result.Code = code
	}
	return result, nil
}
