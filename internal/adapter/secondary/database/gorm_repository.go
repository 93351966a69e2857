package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cashflow/card-gateway/internal/constant/model/db"
	"github.com/cashflow/card-gateway/internal/core"
	"github.com/cashflow/card-gateway/internal/port/output"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository is a secondary adapter that implements PaymentRepository output port
type GormPaymentRepository struct {
	gormDB *gorm.DB
}

// NewGormPaymentRepository creates a new GORM payment repository
func NewGormPaymentRepository(gormDB *gorm.DB) output.PaymentRepository {
	return &GormPaymentRepository{gormDB: gormDB}
}

// toCore converts db.Payment to core.Payment
func toCore(p *db.Payment) *core.Payment {
	return &core.Payment{
		ID:                 p.ID,
		BankTransactionID:  p.BankTransactionID,
		CardHolderName:     p.CardHolderName,
		CardNumber:         p.CardNumber,
		CardExpirationDate: p.CardExpirationDate,
		CVV:                p.CVV,
		Amount:             p.Amount,
		Currency:           p.Currency,
		Status:             core.PaymentStatus(p.Status),
		StatusCode:         core.StatusCode(p.StatusCode),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// fromCore converts core.Payment to db.Payment
func fromCore(p *core.Payment) *db.Payment {
	return &db.Payment{
		ID:                 p.ID,
		BankTransactionID:  p.BankTransactionID,
		CardHolderName:     p.CardHolderName,
		CardNumber:         p.CardNumber,
		CardExpirationDate: p.CardExpirationDate,
		CVV:                p.CVV,
		Amount:             p.Amount,
		Currency:           p.Currency,
		Status:             db.PaymentStatus(p.Status),
		StatusCode:         string(p.StatusCode),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// Create creates a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *core.Payment) error {
	dbPayment := fromCore(payment)
	if err := r.gormDB.WithContext(ctx).Create(dbPayment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	// Update core entity with values set by GORM hooks
	payment.ID = dbPayment.ID
	payment.CreatedAt = dbPayment.CreatedAt
	payment.UpdatedAt = dbPayment.UpdatedAt
	return nil
}

// GetByID retrieves a payment by its ID
func (r *GormPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*core.Payment, error) {
	var dbPayment db.Payment
	if err := r.gormDB.WithContext(ctx).Where("id = ?", id).First(&dbPayment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, output.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return toCore(&dbPayment), nil
}

// ResolvePayment atomically moves a pending payment to its final status.
// On postgres the row is locked with SELECT FOR UPDATE; sqlite serializes writers itself.
func (r *GormPaymentRepository) ResolvePayment(ctx context.Context, bankTransactionID uuid.UUID, status core.PaymentStatus, code core.StatusCode) error {
	return r.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dbPayment db.Payment

		query := tx
		if tx.Dialector.Name() == db.DriverPostgres {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.Where("bank_transaction_id = ?", bankTransactionID).First(&dbPayment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return output.ErrPaymentNotFound
			}
			return fmt.Errorf("failed to lock payment: %w", err)
		}

		// Only process if status is pending
		if !dbPayment.IsPending() {
			return fmt.Errorf("%w: current status is %s", output.ErrPaymentAlreadyResolved, dbPayment.Status)
		}

		// Status and code are written in the same statement
		result := tx.Model(&db.Payment{}).
			Where("id = ? AND status = ?", dbPayment.ID, db.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":      db.PaymentStatus(status),
				"status_code": string(code),
				"updated_at":  time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update payment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return output.ErrPaymentAlreadyResolved
		}

		return nil
	})
}
