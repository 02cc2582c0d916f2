// internal/domain/events/emitter.go
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// Message is what a broker publisher writes
type Message struct {
	Topic     string
	Key       string
	EventType string
	Value     []byte
}

// Publisher delivers a message to the broker
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Emitter publishes events off the caller's goroutine.
// Failures are logged and counted, never returned.
type Emitter struct {
	publisher Publisher
	metrics   metrics.Sink
	logger    logrus.FieldLogger
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewEmitter creates an emitter. publisher may be nil, in which case events are skipped.
func NewEmitter(publisher Publisher, sink metrics.Sink, logger logrus.FieldLogger, timeout time.Duration) *Emitter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Emitter{
		publisher: publisher,
		metrics:   sink,
		logger:    logger,
		timeout:   timeout,
	}
}

// Emit hands event to the publisher without waiting for the result
func (e *Emitter) Emit(topic string, event Event) {
	header := event.EventHeader()
	log := e.logger.WithFields(logrus.Fields{
		"topic":      topic,
		"event_id":   header.EventID,
		"event_type": header.EventType,
	})

	if e.publisher == nil {
		log.Warn("event publisher not configured, event skipped")
		e.count(topic, header.EventType, "skipped")
		return
	}

	value, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("failed to encode event")
		e.count(topic, header.EventType, "failed")
		return
	}

	msg := Message{
		Topic:     topic,
		Key:       header.EventID.String(),
		EventType: header.EventType,
		Value:     value,
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("event publisher panicked")
				e.count(topic, header.EventType, "failed")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		start := time.Now()
		err := e.publisher.Publish(ctx, msg)
		e.metrics.Observe(metrics.EventPublishDuration, time.Since(start).Seconds(), metrics.Tags{"topic": topic})

		if err != nil {
			log.WithError(err).Error("failed to publish event")
			e.count(topic, header.EventType, "failed")
			return
		}
		log.Info("event published")
		e.count(topic, header.EventType, "success")
	}()
}

// Close waits for in-flight publishes or for ctx to end
func (e *Emitter) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Emitter) count(topic, eventType, status string) {
	e.metrics.Inc(metrics.EventsPublished, metrics.Tags{
		"topic":      topic,
		"event_type": eventType,
		"status":     status,
	})
}
