package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	sessionExchange = "registry.sessions"
	auditQueue      = "session.audit"
)

// SessionEvent is the audit record emitted for every session lifecycle
// transition. Event types: session.created, session.refreshed,
// session.revoked, session.expired.
type SessionEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher emits session lifecycle events to RabbitMQ
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p := &Publisher{
		conn:    conn,
		channel: ch,
	}

	if err := p.setup(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewPublisherWithRetry dials RabbitMQ until it succeeds or ctx is done.
// Brokers often come up after the service in containerized deployments.
func NewPublisherWithRetry(ctx context.Context, url string) (*Publisher, error) {
	backoff := time.Second
	for {
		p, err := NewPublisher(url)
		if err == nil {
			return p, nil
		}

		slog.Warn("rabbitmq connection failed, retrying",
			slog.String("error", err.Error()),
			slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up connecting to RabbitMQ: %w", err)
		case <-time.After(backoff):
		}

		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (p *Publisher) setup() error {
	if err := p.channel.ExchangeDeclare(
		sessionExchange, // name
		"topic",         // type
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	); err != nil {
		return fmt.Errorf("failed to declare sessions exchange: %w", err)
	}

	if _, err := p.channel.QueueDeclare(
		auditQueue, // name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		return fmt.Errorf("failed to declare audit queue: %w", err)
	}

	if err := p.channel.QueueBind(
		auditQueue,      // queue name
		"session.*",     // routing key
		sessionExchange, // exchange
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to bind audit queue: %w", err)
	}

	slog.Info("rabbitmq setup completed successfully")
	return nil
}

// PublishSessionEvent emits one lifecycle event, routed by its event type
func (p *Publisher) PublishSessionEvent(ctx context.Context, eventType, sessionID, userID string) error {
	event := &SessionEvent{
		Type:      eventType,
		SessionID: sessionID,
		UserID:    userID,
		Timestamp: time.Now().Unix(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		sessionExchange, // exchange
		eventType,       // routing key
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish session event: %w", err)
	}
	return nil
}

func (p *Publisher) IsClosed() bool {
	return p.conn == nil || p.conn.IsClosed()
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
