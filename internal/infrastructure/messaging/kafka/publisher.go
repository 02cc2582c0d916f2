// internal/infrastructure/messaging/kafka/publisher.go
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/domain/events"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes event messages, one writer per topic
type Publisher struct {
	client    *Client
	mu        sync.Mutex
	writers   map[string]messageWriter
	newWriter func(topic string) messageWriter
}

// NewPublisher creates a publisher over client
func NewPublisher(client *Client) *Publisher {
	return &Publisher{
		client:  client,
		writers: make(map[string]messageWriter),
		newWriter: func(topic string) messageWriter {
			return client.NewWriter(topic)
		},
	}
}

// Publish implements events.Publisher
func (p *Publisher) Publish(ctx context.Context, msg events.Message) error {
	if !p.client.Enabled() {
		return ErrDisabled
	}

	err := p.writer(msg.Topic).WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(msg.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", msg.Topic, err)
	}
	return nil
}

func (p *Publisher) writer(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.writers[topic]
	if !ok {
		w = p.newWriter(topic)
		p.writers[topic] = w
	}
	return w
}

// Close flushes and closes every writer
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %s: %w", topic, err))
		}
		delete(p.writers, topic)
	}
	return errors.Join(errs...)
}
