package events

import "context"

// Handler consumes decoded events delivered by a broker consumer
type Handler interface {
	Handle(ctx context.Context, topic string, event Event) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, topic string, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, topic string, event Event) error {
	return f(ctx, topic, event)
}
