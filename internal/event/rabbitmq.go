// Package event publishes domain events to RabbitMQ with publisher confirms.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Grindin247/decision-system/pkg/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publish errors.
var (
	ErrPublishNacked  = errors.New("message was nacked by broker")
	ErrConfirmTimeout = errors.New("confirmation timed out")
	ErrClosed         = errors.New("publisher is closed")
)

const (
	defaultConfirmTimeout = 5 * time.Second
	confirmBuffer         = 256
)

// Publisher emits events on a topic exchange, one routing key per event
// subject. Confirm mode is enabled so a Publish return means the broker
// accepted the message.
type Publisher struct {
	conn           *amqp.Connection
	ch             *amqp.Channel
	confirms       chan amqp.Confirmation
	exchange       string
	logger         log.Logger
	confirmTimeout time.Duration

	mu      sync.Mutex
	closed  bool
	nextTag uint64
}

// NewPublisher dials the broker, declares the exchange, and enables
// publisher confirms.
func NewPublisher(uri, exchange string, logger log.Logger) (*Publisher, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()

		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()

		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &Publisher{
		conn:           conn,
		ch:             ch,
		confirms:       ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer)),
		exchange:       exchange,
		logger:         logger,
		confirmTimeout: defaultConfirmTimeout,
		nextTag:        1,
	}, nil
}

// Publish sends one event and waits for the broker confirmation. Publishes
// are serialized so confirmations map one-to-one onto messages.
func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, subject, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	tag := p.nextTag
	p.nextTag++

	if err := p.awaitConfirm(ctx, tag); err != nil {
		return err
	}

	p.logger.Log(ctx, log.LevelDebug, "event published",
		log.String("subject", subject))

	return nil
}

// awaitConfirm waits for the confirmation matching tag. Confirmations with
// a lower tag belong to an earlier publish whose wait timed out; they are
// drained and dropped so a stale ack can never answer for a later message.
func (p *Publisher) awaitConfirm(ctx context.Context, tag uint64) error {
	timer := time.NewTimer(p.confirmTimeout)
	defer timer.Stop()

	for {
		select {
		case confirmation, ok := <-p.confirms:
			if !ok {
				return ErrClosed
			}

			if confirmation.DeliveryTag < tag {
				continue
			}

			if !confirmation.Ack {
				return ErrPublishNacked
			}

			return nil

		case <-timer.C:
			return ErrConfirmTimeout

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close shuts the channel and connection down.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}

	return p.conn.Close()
}
