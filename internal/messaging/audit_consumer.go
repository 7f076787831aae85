package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// AuditConsumer drains the session audit queue and writes each lifecycle
// event to the structured log. It exists so revocations and foreign-token
// anomalies leave a trail outside the serving process.
type AuditConsumer struct {
	pub *Publisher
}

func NewAuditConsumer(pub *Publisher) *AuditConsumer {
	return &AuditConsumer{pub: pub}
}

func (c *AuditConsumer) Start(ctx context.Context) error {
	msgs, err := c.pub.channel.Consume(
		auditQueue, // queue
		"",         // consumer
		true,       // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return err
	}

	slog.Info("started consuming session audit events",
		slog.String("queue", auditQueue))

	go func() {
		for {
			select {
			case <-ctx.Done():
				slog.Info("stopping audit consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Warn("audit consumer channel closed")
					return
				}

				var event SessionEvent
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					slog.Warn("dropping unparseable audit event",
						slog.String("error", err.Error()))
					continue
				}

				slog.Info("session audit event",
					slog.String("type", event.Type),
					slog.String("session_id", event.SessionID),
					slog.String("user_id", event.UserID),
					slog.Time("at", time.Unix(event.Timestamp, 0).UTC()))
			}
		}
	}()

	return nil
}
