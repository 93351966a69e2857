package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment represents a payment entity in the database.
// Card columns only ever hold masked values.
type Payment struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BankTransactionID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_payments_bank_transaction_id" json:"bank_transaction_id"`
	CardHolderName     string          `gorm:"type:varchar(150);not null" json:"card_holder_name"`
	CardNumber         string          `gorm:"type:varchar(19);not null" json:"card_number"`
	CardExpirationDate string          `gorm:"type:varchar(5);not null" json:"card_expiration_date"`
	CVV                string          `gorm:"column:cvv;type:varchar(3);not null" json:"cvv"`
	Amount             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency           string          `gorm:"type:varchar(3);not null" json:"currency"`
	Status             PaymentStatus   `gorm:"type:varchar(20);not null" json:"status"`
	StatusCode         string          `gorm:"type:varchar(40);not null" json:"status_code"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate is a GORM hook that runs before creating a record
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	return nil
}

// BeforeUpdate is a GORM hook that runs before updating a record
func (p *Payment) BeforeUpdate(tx *gorm.DB) error {
	p.UpdatedAt = time.Now()
	return nil
}

// IsPending checks if payment is in pending status
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}
