// internal/infrastructure/messaging/kafka/consumer.go
package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/domain/events"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads the subscribed topics in one consumer group and dispatches decoded events
type Consumer struct {
	topics    []string
	handler   events.Handler
	logger    logrus.FieldLogger
	newReader func(topic string) messageReader
	// backoff is the pause after a failed fetch
	backoff time.Duration
}

// NewConsumer creates a consumer for topics in groupID
func NewConsumer(client *Client, groupID string, topics []string, handler events.Handler, logger logrus.FieldLogger) *Consumer {
	return &Consumer{
		topics:  topics,
		handler: handler,
		logger:  logger,
		backoff: time.Second,
		newReader: func(topic string) messageReader {
			return client.NewReader(topic, groupID)
		},
	}
}

// Run blocks until ctx is cancelled
func (c *Consumer) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, topic := range c.topics {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			c.consume(ctx, topic)
		}(topic)
	}
	wg.Wait()
	return nil
}

func (c *Consumer) consume(ctx context.Context, topic string) {
	reader := c.newReader(topic)
	defer reader.Close()

	log := c.logger.WithField("topic", topic)
	log.Info("event consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				log.Info("event consumer stopped")
				return
			}
			log.WithError(err).Warn("failed to fetch message")
			select {
			case <-ctx.Done():
				log.Info("event consumer stopped")
				return
			case <-time.After(c.backoff):
			}
			continue
		}

		entry := log.WithFields(logrus.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
		})

		event, err := events.Decode(msg.Value)
		if err != nil {
			entry.WithError(err).Warn("skipping undecodable message")
		} else if err := c.handler.Handle(ctx, topic, event); err != nil {
			entry.WithError(err).WithField("event_type", event.EventHeader().EventType).Error("event handler failed")
		}

		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			entry.WithError(err).Warn("failed to commit offset")
		}
	}
}
