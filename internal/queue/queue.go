package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/zubari-ai/studyaid/internal/config"
)

// Event types published after the corresponding transaction commits
const (
	EventPaymentInitiated    = "payment.initiated"
	EventPaymentCompleted    = "payment.completed"
	EventPaymentFailed       = "payment.failed"
	EventGenerationCompleted = "generation.completed"
	EventUserSignedUp        = "user.signed_up"
)

// Event is a domain event. Type doubles as the routing key.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	UserID     int64                  `json:"user_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// NewEvent stamps an event with an id and the current time
func NewEvent(eventType string, userID int64, data map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher emits domain events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops events. Used when the broker is disabled.
type NoopPublisher struct{}

// Publish implements Publisher
func (NoopPublisher) Publish(ctx context.Context, event Event) error { return nil }

// Queue publishes events to a RabbitMQ topic exchange
type Queue struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// New connects to RabbitMQ and declares the events exchange
func New(cfg config.QueueConfig) (*Queue, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Vhost)

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
		cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Queue{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Exchange,
	}, nil
}

// Close closes the queue connection
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// Publish sends an event routed by its type
func (q *Queue) Publish(ctx context.Context, event Event) error {
	msg, err := buildPublishing(event)
	if err != nil {
		return err
	}

	err = q.channel.PublishWithContext(ctx,
		q.exchange,
		event.Type,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func buildPublishing(event Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}
