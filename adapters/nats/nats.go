package nats

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mmedoo/use-eventer/contract/binding"
	berr "github.com/mmedoo/use-eventer/contract/errors"
)

// MsgFunc receives a raw message from the wire.
type MsgFunc func(subject string, data []byte, headers map[string]string)

// Conn is a minimal NATS-like subscription interface decoupled from any
// concrete library. Users can provide a wrapper around their NATS connection
// to satisfy this.
type Conn interface {
	Subscribe(subject string, cb MsgFunc) (Subscription, error)
	QueueSubscribe(subject, queue string, cb MsgFunc) (Subscription, error)
}

// Subscription is one active wire subscription.
type Subscription interface {
	Unsubscribe() error
}

// Target adapts a NATS-like Conn to the binding.Target contract. Event types
// map one-to-one onto subjects; a ListenerConfig.Queue selects a queue
// subscription.
//
// Per the target contract both operations are void: failures are logged and
// the registration degrades to a no-op.
type Target struct {
	Conn   Conn
	Logger *slog.Logger

	mu   sync.Mutex
	subs map[subKey]*subEntry
}

type subKey struct {
	event   binding.EventType
	handler *binding.Handler
}

type subEntry struct {
	sub  Subscription
	stop chan struct{}
}

// Ensure Target implements the binding contract.
var _ binding.Target = (*Target)(nil)

// New creates a new NATS target instance with the provided connection.
func New(c Conn) *Target { return &Target{Conn: c} }

func (t *Target) AddListener(et binding.EventType, h *binding.Handler, cfg binding.ListenerConfig) {
	if t.Conn == nil {
		t.logger().Warn("nats add listener", "event_type", string(et), "err", berr.ErrNotConnected)
		return
	}

	cb := func(_ string, data []byte, headers map[string]string) {
		ctx := context.Background()

		if cfg.Signal != nil {
			if cfg.Signal.Err() != nil {
				return
			}

			ctx = cfg.Signal
		}

		(*h)(ctx, binding.Event{Type: et, Data: data, Headers: headers})

		if cfg.Once {
			t.RemoveListener(et, h)
		}
	}

	var (
		sub Subscription
		err error
	)

	if cfg.Queue != "" {
		sub, err = t.Conn.QueueSubscribe(string(et), cfg.Queue, cb)
	} else {
		sub, err = t.Conn.Subscribe(string(et), cb)
	}

	if err != nil {
		t.logger().Warn("nats subscribe",
			"event_type", string(et),
			"err", errors.Join(berr.ErrSubscribeFailed, err),
		)

		return
	}

	ent := &subEntry{sub: sub, stop: make(chan struct{})}

	t.mu.Lock()

	if t.subs == nil {
		t.subs = make(map[subKey]*subEntry)
	}

	key := subKey{event: et, handler: h}
	if prev, ok := t.subs[key]; ok {
		// Re-registration replaces the previous subscription.
		close(prev.stop)
		_ = prev.sub.Unsubscribe()
	}

	t.subs[key] = ent

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
	ent, ok := t.subs[key]

	if ok {
		delete(t.subs, key)
	}

	t.mu.Unlock()

	if !ok {
		return
	}

	close(ent.stop)

	if err := ent.sub.Unsubscribe(); err != nil {
		t.logger().Warn("nats unsubscribe",
			"event_type", string(et),
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
