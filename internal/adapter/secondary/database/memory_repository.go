package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cashflow/card-gateway/internal/core"
	"github.com/cashflow/card-gateway/internal/port/output"
	"github.com/google/uuid"
)

// MemoryPaymentRepository keeps payments in process memory
type MemoryPaymentRepository struct {
	mu                sync.RWMutex
	payments          map[uuid.UUID]core.Payment
	byBankTransaction map[uuid.UUID]uuid.UUID
}

// NewMemoryPaymentRepository creates an empty in-memory repository
func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		payments:          make(map[uuid.UUID]core.Payment),
		byBankTransaction: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *MemoryPaymentRepository) Create(_ context.Context, payment *core.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if _, exists := r.payments[payment.ID]; exists {
		return fmt.Errorf("failed to create payment: id %s already exists", payment.ID)
	}
	if _, exists := r.byBankTransaction[payment.BankTransactionID]; exists {
		return fmt.Errorf("failed to create payment: bank transaction %s already exists", payment.BankTransactionID)
	}

	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	r.payments[payment.ID] = *payment
	r.byBankTransaction[payment.BankTransactionID] = payment.ID
	return nil
}

func (r *MemoryPaymentRepository) GetByID(_ context.Context, id uuid.UUID) (*core.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, output.ErrPaymentNotFound
	}
	return &p, nil
}

func (r *MemoryPaymentRepository) ResolvePayment(_ context.Context, bankTransactionID uuid.UUID, status core.PaymentStatus, code core.StatusCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byBankTransaction[bankTransactionID]
	if !ok {
		return output.ErrPaymentNotFound
	}

	p := r.payments[id]
	if !p.IsPending() {
		return fmt.Errorf("%w: current status is %s", output.ErrPaymentAlreadyResolved, p.Status)
	}

	p.Status = status
	p.StatusCode = code
	p.UpdatedAt = time.Now()
	r.payments[id] = p
	return nil
}
