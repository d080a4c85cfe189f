package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mmedoo/use-eventer/contract/binding"
	berr "github.com/mmedoo/use-eventer/contract/errors"
)

// DeliverFunc receives one consumed message body with flattened headers.
type DeliverFunc func(body []byte, headers map[string]string)

// Consumer is a minimal AMQP-like consume interface decoupled from any
// concrete library. Each Consume call creates an independent consumer
// identified by its tag; Cancel stops it.
type Consumer interface {
	Consume(queue, tag string, deliver DeliverFunc) error
	Cancel(tag string) error
}

// Target adapts an AMQP-like Consumer to the binding.Target contract. Event
// types name the queue to consume from unless ListenerConfig.Queue overrides
// it; every registration gets its own generated consumer tag.
type Target struct {
	Consumer Consumer
	Logger   *slog.Logger

	seq uint64

	mu   sync.Mutex
	tags map[subKey]*subEntry
}

type subKey struct {
	event   binding.EventType
	handler *binding.Handler
}

type subEntry struct {
	tag  string
	stop chan struct{}
}

// Ensure Target implements the binding contract.
var _ binding.Target = (*Target)(nil)

// New creates a new RabbitMQ target instance with the provided consumer.
func New(c Consumer) *Target { return &Target{Consumer: c} }

func (t *Target) AddListener(et binding.EventType, h *binding.Handler, cfg binding.ListenerConfig) {
	if t.Consumer == nil {
		t.logger().Warn("rabbitmq add listener", "event_type", string(et), "err", berr.ErrNotConnected)
		return
	}

	queue := string(et)
	if cfg.Queue != "" {
		queue = cfg.Queue
	}

	tag := fmt.Sprintf("eventer-%s-%d", et, atomic.AddUint64(&t.seq, 1))

	deliver := func(body []byte, headers map[string]string) {
		ctx := context.Background()

		if cfg.Signal != nil {
			if cfg.Signal.Err() != nil {
				return
			}

			ctx = cfg.Signal
		}

		(*h)(ctx, binding.Event{Type: et, Data: body, Headers: headers})

		if cfg.Once {
			t.RemoveListener(et, h)
		}
	}

	if err := t.Consumer.Consume(queue, tag, deliver); err != nil {
		t.logger().Warn("rabbitmq consume",
			"event_type", string(et),
			"queue", queue,
			"err", errors.Join(berr.ErrSubscribeFailed, err),
		)

		return
	}

	ent := &subEntry{tag: tag, stop: make(chan struct{})}

	t.mu.Lock()

	if t.tags == nil {
		t.tags = make(map[subKey]*subEntry)
	}

	key := subKey{event: et, handler: h}
	if prev, ok := t.tags[key]; ok {
		// Re-registration replaces the previous consumer.
		close(prev.stop)
		_ = t.Consumer.Cancel(prev.tag)
	}

	t.tags[key] = ent

	t.mu.Unlock()

	if cfg.Signal != nil {
		go func() {
			select {
			case <-cfg.Signal.Done():
				t.RemoveListener(et, h)
			case <-ent.stop:
			}
		}()
	}
}

func (t *Target) RemoveListener(et binding.EventType, h *binding.Handler) {
	key := subKey{event: et, handler: h}

	t.mu.Lock()
	ent, ok := t.tags[key]

	if ok {
		delete(t.tags, key)
	}

	t.mu.Unlock()

	if !ok {
		return
	}

	close(ent.stop)

	if err := t.Consumer.Cancel(ent.tag); err != nil {
		t.logger().Warn("rabbitmq cancel",
			"event_type", string(et),
			"tag", ent.tag,
			"err", errors.Join(berr.ErrUnsubscribeFailed, err),
		)
	}
}

func (t *Target) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}

	return slog.Default()
}
