package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQPublisher publishes events as persistent JSON messages on a durable queue.
type RabbitMQPublisher struct {
	conn      *amqp.Connection
	queueName string
}

var _ Publisher = (*RabbitMQPublisher)(nil)

// DialRabbitMQ connects to the broker and verifies a channel can be opened.
func DialRabbitMQ(url string) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(5 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	_ = ch.Close()
	return conn, nil
}

// NewRabbitMQPublisher creates a publisher writing to queueName.
func NewRabbitMQPublisher(conn *amqp.Connection, queueName string) *RabbitMQPublisher {
	return &RabbitMQPublisher{conn: conn, queueName: queueName}
}

// PublishLimitExceeded sends the event on the alert queue.
func (p *RabbitMQPublisher) PublishLimitExceeded(ctx context.Context, event LimitExceeded) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal limit event: %w", err)
	}
	return p.publish(ctx, "limit_exceeded", payload)
}

func (p *RabbitMQPublisher) publish(ctx context.Context, eventType string, payload []byte) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", p.queueName, err)
	}

	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         eventType,
		Timestamp:    time.Now(),
		Body:         payload,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}
