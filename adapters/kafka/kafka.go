package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mmedoo/use-eventer/contract/binding"
	berr "github.com/mmedoo/use-eventer/contract/errors"
)

// RecordFunc receives one consumed record.
type RecordFunc func(key, value []byte, headers map[string]string)

// Source is a minimal Kafka-like consume interface decoupled from any
// concrete client. Users can adapt franz-go or any other client to this.
type Source interface {
	Subscribe(topic string, deliver RecordFunc) error
	Unsubscribe(topic string) error
}

// Target adapts a Kafka-like Source to the binding.Target contract. Event
// types map one-to-one onto topics. A topic carries a single Source
// subscription shared by all handlers registered for it: the first listener
// subscribes, the last removal unsubscribes.
//
// Consumer groups are a client-level concern in Kafka, so
// ListenerConfig.Queue is ignored here; set the group on the concrete
// client instead.
type Target struct {
	Source Source
	Logger *slog.Logger

	mu     sync.Mutex
	topics map[binding.EventType]map[*binding.Handler]*kentry
}

type kentry struct {
	cfg  binding.ListenerConfig
	stop chan struct{}
}

// Ensure Target implements the binding contract.
var _ binding.Target = (*Target)(nil)

// New creates a new Kafka target instance with the provided source.
func New(s Source) *Target { return &Target{Source: s} }

func (t *Target) AddListener(et binding.EventType, h *binding.Handler, cfg binding.ListenerConfig) {
	if t.Source == nil {
		t.logger().Warn("kafka add listener", "event_type", string(et), "err", berr.ErrNotConnected)
		return
	}

	ent := &kentry{cfg: cfg, stop: make(chan struct{})}

	t.mu.Lock()

	if t.topics == nil {
		t.topics = make(map[binding.EventType]map[*binding.Handler]*kentry)
	}

	handlers, subscribed := t.topics[et]
	if !subscribed {
		handlers = make(map[*binding.Handler]*kentry)
		t.topics[et] = handlers
	}

	if prev, ok := handlers[h]; ok {
		close(prev.stop)
	}

	handlers[h] = ent

	t.mu.Unlock()

	if !subscribed {
		err := t.Source.Subscribe(string(et), func(key, value []byte, headers map[string]string) {
			t.deliver(et, binding.Event{Type: et, Data: value, Headers: withKey(headers, key)})
		})
		if err != nil {
			t.logger().Warn("kafka subscribe",
				"event_type", string(et),
				"err", errors.Join(berr.ErrSubscribeFailed, err),
			)

			t.mu.Lock()
			delete(handlers, h)

			if len(handlers) == 0 {
				delete(t.topics, et)
			}

			t.mu.Unlock()

			return
		}
	}

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
	t.mu.Lock()

	handlers := t.topics[et]

	ent, ok := handlers[h]
	if ok {
		delete(handlers, h)
		close(ent.stop)
	}

	last := ok && len(handlers) == 0
	if last {
		delete(t.topics, et)
	}

	t.mu.Unlock()

	if !last {
		return
	}

	if err := t.Source.Unsubscribe(string(et)); err != nil {
		t.logger().Warn("kafka unsubscribe",
			"event_type", string(et),
			"err", errors.Join(berr.ErrUnsubscribeFailed, err),
		)
	}
}

// deliver fans one record out to the topic's live handlers.
func (t *Target) deliver(et binding.EventType, evt binding.Event) {
	t.mu.Lock()

	run := make([]*binding.Handler, 0, len(t.topics[et]))
	cfgs := make([]binding.ListenerConfig, 0, len(t.topics[et]))

	for h, ent := range t.topics[et] {
		if ent.cfg.Signal != nil && ent.cfg.Signal.Err() != nil {
			continue
		}

		run = append(run, h)
		cfgs = append(cfgs, ent.cfg)
	}

	t.mu.Unlock()

	for i, h := range run {
		ctx := context.Background()
		if cfgs[i].Signal != nil {
			ctx = cfgs[i].Signal
		}

		(*h)(ctx, evt)

		if cfgs[i].Once {
			t.RemoveListener(et, h)
		}
	}
}

func withKey(headers map[string]string, key []byte) map[string]string {
	if len(key) == 0 {
		return headers
	}

	if headers == nil {
		headers = make(map[string]string, 1)
	}

	headers["key"] = string(key)

	return headers
}

func (t *Target) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}

	return slog.Default()
}
