package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cashflow/card-gateway/internal/port/input"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	ExchangeName   = "payments"
	DelayQueueName = "payment_resolution_delay"
	QueueName      = "payment_resolution"
	RoutingKey     = "payment.resolve"
	PrefetchCount  = 1 // Settle one resolution at a time
	publishTimeout = 5 * time.Second
)

// ResolutionMessage asks for the deferred resolution of a bank transaction
type ResolutionMessage struct {
	BankTransactionID uuid.UUID `json:"bank_transaction_id"`
	ScheduledAt       time.Time `json:"scheduled_at"`
}

// RabbitMQScheduler delays resolutions through RabbitMQ. Messages wait in a
// consumer-less delay queue until their TTL expires, then dead-letter into
// the resolution queue consumed by Start.
// Every message carries the same delay, so expiry order matches publish order.
type RabbitMQScheduler struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	settler input.ResolutionSettler
	logger  *zap.Logger

	publishMu sync.Mutex
}

// NewRabbitMQScheduler connects to RabbitMQ and declares the exchange and queues
func NewRabbitMQScheduler(amqpURL string, settler input.ResolutionSettler, logger *zap.Logger) (*RabbitMQScheduler, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQScheduler{
		conn:    conn,
		channel: channel,
		settler: settler,
		logger:  logger,
	}, nil
}

func declareTopology(channel *amqp.Channel) error {
	// Declare exchange
	err := channel.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Expired messages are routed back through the exchange to the resolution queue
	_, err = channel.QueueDeclare(
		DelayQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange":    ExchangeName,
			"x-dead-letter-routing-key": RoutingKey,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare delay queue: %w", err)
	}

	_, err = channel.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		QueueName,
		RoutingKey,
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// Schedule publishes a resolution message that becomes visible after delay
func (s *RabbitMQScheduler) Schedule(ctx context.Context, bankTransactionID uuid.UUID, delay time.Duration) error {
	body, err := EncodeResolutionMessage(ResolutionMessage{
		BankTransactionID: bankTransactionID,
		ScheduledAt:       time.Now(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	err = s.channel.PublishWithContext(
		ctx,
		"", // default exchange routes by queue name
		DelayQueueName,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // Make message persistent
			Body:         body,
			Timestamp:    time.Now(),
			Expiration:   expirationMillis(delay),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	s.logger.Debug("Scheduled resolution",
		zap.String("bank_transaction_id", bankTransactionID.String()),
		zap.Duration("delay", delay))
	return nil
}

// Start consumes due resolutions and hands them to the settler until ctx is done
func (s *RabbitMQScheduler) Start(ctx context.Context) error {
	err := s.channel.Qos(
		PrefetchCount,
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := s.channel.ConsumeWithContext(
		ctx,
		QueueName,
		"",    // consumer tag
		false, // auto-ack (we'll manually ack after processing)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	s.logger.Info("Started consuming payment resolutions")

	go func() {
		for msg := range msgs {
			resolution, err := DecodeResolutionMessage(msg.Body)
			if err != nil {
				s.logger.Error("Error unmarshaling message", zap.Error(err))
				msg.Nack(false, false) // Malformed messages are dropped
				continue
			}

			// The settler publishes at most once; redelivery would draw a second outcome
			msg.Ack(false)
			s.settler.Settle(resolution.BankTransactionID)
		}
	}()

	return nil
}

// Close closes the RabbitMQ connection
func (s *RabbitMQScheduler) Close() error {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// EncodeResolutionMessage serializes msg for the wire
func EncodeResolutionMessage(msg ResolutionMessage) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return body, nil
}

// DecodeResolutionMessage parses a message body and rejects empty transaction ids
func DecodeResolutionMessage(body []byte) (ResolutionMessage, error) {
	var msg ResolutionMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return ResolutionMessage{}, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if msg.BankTransactionID == uuid.Nil {
		return ResolutionMessage{}, fmt.Errorf("message has no bank transaction id")
	}
	return msg, nil
}

func expirationMillis(delay time.Duration) string {
	ms := delay.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms, 10)
}
