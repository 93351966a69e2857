package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cashflow/card-gateway/internal/core"
	"github.com/cashflow/card-gateway/internal/core/acquirer"
	"github.com/cashflow/card-gateway/internal/port/input"
	"github.com/cashflow/card-gateway/internal/port/output"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// amounts are stored with cent precision
const amountPlaces = 2

// PaymentServiceImpl implements the PaymentService input port
type PaymentServiceImpl struct {
	paymentRepo output.PaymentRepository
	classifier  *acquirer.Classifier
	resolver    *acquirer.Resolver
	logger      *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo output.PaymentRepository,
	classifier *acquirer.Classifier,
	resolver *acquirer.Resolver,
	logger *zap.Logger,
) input.PaymentService {
	return &PaymentServiceImpl{
		paymentRepo: paymentRepo,
		classifier:  classifier,
		resolver:    resolver,
		logger:      logger,
	}
}

// SubmitPayment runs the card through the acquiring bank and records the payment.
// Unknown cards are stored as pending and resolved later.
func (s *PaymentServiceImpl) SubmitPayment(ctx context.Context, req input.SubmitPaymentRequest) (*input.PaymentResponse, error) {
	bankTransactionID := uuid.New()

	classification := s.classifier.Classify(req.CardNumber)
	outcome, err := s.resolver.Resolve(classification, bankTransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payment: %w", err)
	}

	// Raw card data stops here
	cardNumber, err := core.ObfuscateCardNumber(req.CardNumber)
	if err != nil {
		return nil, err
	}
	expirationDate, err := core.ObfuscateExpirationDate(req.CardExpirationDate)
	if err != nil {
		return nil, err
	}
	cvv, err := core.ObfuscateCVV(req.CVV)
	if err != nil {
		return nil, err
	}

	payment := &core.Payment{
		ID:                 uuid.New(),
		BankTransactionID:  bankTransactionID,
		CardHolderName:     req.CardHolderName,
		CardNumber:         cardNumber,
		CardExpirationDate: expirationDate,
		CVV:                cvv,
		Amount:             req.Amount.Round(amountPlaces),
		Currency:           req.Currency,
		Status:             outcome.Result.Status,
		StatusCode:         outcome.Result.Code,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.logOutcome(payment, classification)

	// The record exists before the resolution can possibly fire. The client
	// gets the stored payment even when scheduling fails.
	if err := s.resolver.Defer(context.WithoutCancel(ctx), outcome); err != nil {
		s.logger.Error("Payment will stay pending, resolution not scheduled",
			zap.String("payment_id", payment.ID.String()),
			zap.String("bank_transaction_id", payment.BankTransactionID.String()),
			zap.Error(err))
	}

	return toPaymentResponse(payment)
}

// GetPaymentStatus retrieves a payment by ID
func (s *PaymentServiceImpl) GetPaymentStatus(ctx context.Context, id uuid.UUID) (*input.PaymentResponse, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, output.ErrPaymentNotFound) {
			return nil, core.NewGatewayError(
				core.ErrKeyPaymentNotFound,
				fmt.Sprintf("Payment with id %s was not found.", id),
				nil,
			)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return toPaymentResponse(payment)
}

func (s *PaymentServiceImpl) logOutcome(payment *core.Payment, classification acquirer.Classification) {
	fields := []zap.Field{
		zap.String("payment_id", payment.ID.String()),
		zap.String("bank_transaction_id", payment.BankTransactionID.String()),
		zap.String("classification", classification.String()),
		zap.String("code", string(payment.StatusCode)),
	}

	switch payment.Status {
	case core.PaymentStatusSuccess:
		s.logger.Info("Payment successful", fields...)
	case core.PaymentStatusFailed:
		s.logger.Warn("Payment failed", fields...)
	default:
		s.logger.Info("Payment pending", fields...)
	}
}

func toPaymentResponse(payment *core.Payment) (*input.PaymentResponse, error) {
	cardNumber, err := core.ObfuscateCardNumber(payment.CardNumber)
	if err != nil {
		return nil, err
	}
	expirationDate, err := core.ObfuscateExpirationDate(payment.CardExpirationDate)
	if err != nil {
		return nil, err
	}
	cvv, err := core.ObfuscateCVV(payment.CVV)
	if err != nil {
		return nil, err
	}

	return &input.PaymentResponse{
		ID:                 payment.ID,
		CardHolderName:     payment.CardHolderName,
		CardNumber:         cardNumber,
		CardExpirationDate: expirationDate,
		CVV:                cvv,
		Amount:             payment.Amount,
		Currency:           payment.Currency,
		Status:             payment.Status,
		Code:               payment.StatusCode,
	}, nil
}
