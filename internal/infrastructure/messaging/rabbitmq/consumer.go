// internal/infrastructure/messaging/rabbitmq/consumer.go
package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sagaline/ecommerce-backend/internal/domain/events"
	"github.com/sirupsen/logrus"
)

// Consumer reads a durable queue bound to the subscribed topics
type Consumer struct {
	rabbit  *RabbitMQ
	queue   string
	topics  []string
	handler events.Handler
	logger  logrus.FieldLogger
}

// NewConsumer creates a consumer on its own channel of rabbit's connection
func NewConsumer(rabbit *RabbitMQ, queue string, topics []string, handler events.Handler, logger logrus.FieldLogger) *Consumer {
	return &Consumer{
		rabbit:  rabbit,
		queue:   queue,
		topics:  topics,
		handler: handler,
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled or the delivery channel closes
func (c *Consumer) Run(ctx context.Context) error {
	ch, err := c.rabbit.Conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(
		c.queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, topic := range c.topics {
		if err := ch.QueueBind(c.queue, topic, c.rabbit.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s: %w", topic, err)
		}
	}

	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume: %w", err)
	}

	c.logger.WithField("queue", c.queue).Info("event consumer started")
	return c.dispatch(ctx, deliveries)
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type delivery struct {
	routingKey string
	body       []byte
	ack        acknowledger
}

func (c *Consumer) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			c.logger.WithField("queue", c.queue).Info("event consumer stopped")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, delivery{routingKey: d.RoutingKey, body: d.Body, ack: &d})
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d delivery) {
	log := c.logger.WithField("routing_key", d.routingKey)

	event, err := events.Decode(d.body)
	if err != nil {
		log.WithError(err).Warn("rejecting undecodable message")
		d.ack.Nack(false, false)
		return
	}

	if err := c.handler.Handle(ctx, d.routingKey, event); err != nil {
		log.WithError(err).WithField("event_type", event.EventHeader().EventType).Error("event handler failed")
	}
	d.ack.Ack(false)
}
