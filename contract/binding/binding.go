package binding

import "context"

// EventType identifies a category of asynchronous notifications.
// It is opaque to the binder; targets decide how it maps onto their own
// routing (in-memory registry key, NATS subject, AMQP queue, Kafka topic).
type EventType string

// Event is the payload delivered to a Handler. The zero value is valid:
// flag-driven invocations at setup time pass an empty Event.
type Event struct {
	Type    EventType
	Data    []byte
	Headers map[string]string
}

// Handler processes events delivered by a Target.
//
// Handlers are registered and removed via *Handler: function values are not
// comparable in Go, and pointer identity is what allows the one registration
// a binding cycle made to be removed again later. The binder produces exactly
// one handler per cycle and shares its address across every registration of
// that cycle.
type Handler func(ctx context.Context, e Event)

// HandlerFactory produces the handler for one binding cycle.
// It is invoked exactly once per cycle, before any registration.
type HandlerFactory func() Handler
