// internal/infrastructure/messaging/rabbitmq/rabbitmq.go
package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/sagaline/ecommerce-backend/internal/domain/events"
)

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQ owns the broker connection and a channel used for publishing
type RabbitMQ struct {
	Conn     *amqp.Connection
	Exchange string

	mu      sync.Mutex
	channel publishChannel
}

// NewRabbitMQ dials the broker and declares the durable topic exchange events are routed through
func NewRabbitMQ(cfg config.MessagingConfig) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.RabbitExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &RabbitMQ{
		Conn:     conn,
		Exchange: cfg.RabbitExchange,
		channel:  ch,
	}, nil
}

// Publish implements events.Publisher. The topic is the routing key.
func (r *RabbitMQ) Publish(ctx context.Context, msg events.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.channel.PublishWithContext(ctx,
		r.Exchange,
		msg.Topic,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.Key,
			Type:         msg.EventType,
			Timestamp:    time.Now().UTC(),
			Body:         msg.Value,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", msg.Topic, err)
	}
	return nil
}

// Close closes the publishing channel and the connection
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		r.channel.Close()
	}
	if r.Conn != nil {
		return r.Conn.Close()
	}
	return nil
}
