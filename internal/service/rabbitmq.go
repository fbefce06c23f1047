package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/vidshare/engagement-engine/internal/config"
	"github.com/vidshare/engagement-engine/pkg/logger"
)

const defaultConfirmTimeout = 5 * time.Second

var (
	errConfirmTimeout = errors.New("timeout waiting for publish confirmation")
	errNotAcked       = errors.New("message was not acknowledged by broker")
)

// MessagePublisher publishes domain events to a RabbitMQ topic exchange with
// publisher confirms.
type MessagePublisher struct {
	conn           *amqp.Connection
	channel        *amqp.Channel
	config         *config.RabbitMQConfig
	confirmTimeout time.Duration
	mu             sync.Mutex
}

// NewMessagePublisher connects to RabbitMQ and declares the events exchange.
func NewMessagePublisher(cfg *config.RabbitMQConfig) (*MessagePublisher, error) {
	mp := &MessagePublisher{
		config:         cfg,
		confirmTimeout: defaultConfirmTimeout,
	}

	if err := mp.connect(); err != nil {
		return nil, err
	}

	return mp, nil
}

func (mp *MessagePublisher) connect() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	connURL := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		mp.config.User, mp.config.Password, mp.config.Host, mp.config.Port)

	conn, err := amqp.Dial(connURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Enable publisher confirms
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(
		mp.config.Exchange, // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	mp.conn = conn
	mp.channel = ch

	logger.Log.Info("Connected to RabbitMQ",
		zap.String("exchange", mp.config.Exchange),
	)

	return nil
}

// Publish implements EventPublisher. The event type is used as routing key.
func (mp *MessagePublisher) Publish(ctx context.Context, event *Event) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.channel == nil {
		return errors.New("channel is not initialized")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	confirmation, err := mp.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		mp.config.Exchange, // exchange
		event.Type,         // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			MessageId:    event.ID.String(),
			Type:         event.Type,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	if confirmation == nil {
		return errors.New("publisher confirms are not enabled on the channel")
	}

	if err := awaitConfirm(ctx, confirmation, mp.confirmTimeout); err != nil {
		return fmt.Errorf("event %s (delivery tag %d): %w", event.ID, confirmation.DeliveryTag, err)
	}

	logger.Log.Debug("Published event to RabbitMQ",
		zap.String("eventId", event.ID.String()),
		zap.String("routingKey", event.Type),
	)

	return nil
}

// pendingConfirm is the broker's answer to one publish.
type pendingConfirm interface {
	WaitContext(ctx context.Context) (bool, error)
}

// awaitConfirm waits for the confirmation of a single delivery tag. A late
// confirm after a timeout settles only its own DeferredConfirmation.
func awaitConfirm(ctx context.Context, confirmation pendingConfirm, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errConfirmTimeout
	}
	if !acked {
		return errNotAcked
	}
	return nil
}

// Close closes the channel and the connection.
func (mp *MessagePublisher) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var errs []error
	if mp.channel != nil {
		if err := mp.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if mp.conn != nil {
		if err := mp.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %w", errors.Join(errs...))
	}

	logger.Log.Info("RabbitMQ publisher closed")
	return nil
}

// IsHealthy reports whether the broker connection is usable.
func (mp *MessagePublisher) IsHealthy() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return mp.conn != nil && !mp.conn.IsClosed() && mp.channel != nil
}
