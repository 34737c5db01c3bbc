// Package notify delivers payment events to the marketplace's notification channels.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	amqp "github.com/rabbitmq/amqp091-go"
)

// PaymentsExchange receives every payment event, routed by event name.
const PaymentsExchange = "payments"

// publisher is the slice of *amqp.Channel the notifier needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQNotifier publishes events as persistent JSON messages on a durable direct exchange.
type RabbitMQNotifier struct {
	conn    *amqp.Connection
	channel publisher
	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
	now     func() time.Time
}

var _ external.Notifier = (*RabbitMQNotifier)(nil)

// NewRabbitMQNotifier dials url and declares the payments exchange.
func NewRabbitMQNotifier(url string, logger *slog.Logger) (*RabbitMQNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		PaymentsExchange, // name
		"direct",         // type
		true,             // durable
		false,            // auto-deleted
		false,            // internal
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info("Connected to RabbitMQ", slog.String("exchange", PaymentsExchange))
	return &RabbitMQNotifier{conn: conn, channel: channel, now: time.Now}, nil
}

func newRabbitMQNotifierWithChannel(ch publisher, now func() time.Time) *RabbitMQNotifier {
	return &RabbitMQNotifier{channel: ch, now: now}
}

type envelope struct {
	Event      string         `json:"event"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload"`
}

func (n *RabbitMQNotifier) Notify(ctx context.Context, event string, payload map[string]any) error {
	body, err := json.Marshal(envelope{Event: event, OccurredAt: n.now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	err = n.channel.PublishWithContext(ctx,
		PaymentsExchange, // exchange
		event,            // routing key
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    n.now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event, err)
	}
	return nil
}

func (n *RabbitMQNotifier) Close() error {
	if ch, ok := n.channel.(*amqp.Channel); ok && ch != nil {
		ch.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
