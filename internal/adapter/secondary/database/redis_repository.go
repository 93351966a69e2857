package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cashflow/card-gateway/internal/constant/model/db"
	"github.com/cashflow/card-gateway/internal/core"
	"github.com/cashflow/card-gateway/internal/port/output"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	paymentKeyPrefix         = "payment:"
	bankTransactionKeyPrefix = "payment:bank-transaction:"
	txMaxRetries             = 3
)

// RedisPaymentRepository stores each payment as a JSON document, with a
// secondary key mapping the bank transaction id to the payment id
type RedisPaymentRepository struct {
	client *redis.Client
}

// NewRedisClient connects to redis at addr
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		DB:              0,
		PoolSize:        20,
		MinIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
		DialTimeout:     2 * time.Second,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		MaxRetries:      2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisPaymentRepository creates a new redis payment repository
func NewRedisPaymentRepository(client *redis.Client) output.PaymentRepository {
	return &RedisPaymentRepository{client: client}
}

func paymentKey(id uuid.UUID) string {
	return paymentKeyPrefix + id.String()
}

func bankTransactionKey(id uuid.UUID) string {
	return bankTransactionKeyPrefix + id.String()
}

func (r *RedisPaymentRepository) Create(ctx context.Context, payment *core.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	body, err := json.Marshal(fromCore(payment))
	if err != nil {
		return fmt.Errorf("failed to marshal payment: %w", err)
	}

	key := paymentKey(payment.ID)
	indexKey := bankTransactionKey(payment.BankTransactionID)

	// Document and index are written in one MULTI, or not at all
	txf := func(tx *redis.Tx) error {
		existing, err := tx.Exists(ctx, key, indexKey).Result()
		if err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("id %s or bank transaction %s already exists", payment.ID, payment.BankTransactionID)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, body, 0)
			pipe.Set(ctx, indexKey, payment.ID.String(), 0)
			return nil
		})
		return err
	}

	for i := 0; i < txMaxRetries; i++ {
		err := r.client.Watch(ctx, txf, key, indexKey)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return fmt.Errorf("failed to create payment %s after %d attempts", payment.ID, txMaxRetries)
}

func (r *RedisPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*core.Payment, error) {
	body, err := r.client.Get(ctx, paymentKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, output.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	var dbPayment db.Payment
	if err := json.Unmarshal(body, &dbPayment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment: %w", err)
	}
	return toCore(&dbPayment), nil
}

// ResolvePayment updates the document inside WATCH/MULTI so a concurrent
// writer makes the transaction retry instead of overwriting
func (r *RedisPaymentRepository) ResolvePayment(ctx context.Context, bankTransactionID uuid.UUID, status core.PaymentStatus, code core.StatusCode) error {
	rawID, err := r.client.Get(ctx, bankTransactionKey(bankTransactionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return output.ErrPaymentNotFound
		}
		return fmt.Errorf("failed to look up transaction: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("corrupt transaction index for %s: %w", bankTransactionID, err)
	}
	key := paymentKey(id)

	txf := func(tx *redis.Tx) error {
		body, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return output.ErrPaymentNotFound
			}
			return err
		}

		var dbPayment db.Payment
		if err := json.Unmarshal(body, &dbPayment); err != nil {
			return fmt.Errorf("failed to unmarshal payment: %w", err)
		}
		if !dbPayment.IsPending() {
			return fmt.Errorf("%w: current status is %s", output.ErrPaymentAlreadyResolved, dbPayment.Status)
		}

		dbPayment.Status = db.PaymentStatus(status)
		dbPayment.StatusCode = string(code)
		dbPayment.UpdatedAt = time.Now()

		updated, err := json.Marshal(&dbPayment)
		if err != nil {
			return fmt.Errorf("failed to marshal payment: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	for i := 0; i < txMaxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to update payment %s after %d attempts", id, txMaxRetries)
}
