package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmedoo/use-eventer/contract/binding"
	berr "github.com/mmedoo/use-eventer/contract/errors"
)

// Emitter is a thread-safe in-process binding.Target with synchronous
// dispatch. It backs tests and examples the same way a broker-backed target
// backs production wiring.
//
// Dispatch honors the listener configuration the binder merged into each
// registration: listeners whose removal signal has fired are pruned without
// being invoked, and Once listeners are removed after their first delivery.
type Emitter struct {
	mu        sync.Mutex
	listeners map[binding.EventType][]*entry
	closed    bool
}

type entry struct {
	h   *binding.Handler
	cfg binding.ListenerConfig
}

// Ensure Emitter implements the target contract.
var _ binding.Target = (*Emitter)(nil)

// New creates a new in-memory emitter instance.
func New() *Emitter {
	return &Emitter{listeners: make(map[binding.EventType][]*entry)}
}

func (e *Emitter) AddListener(t binding.EventType, h *binding.Handler, cfg binding.ListenerConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	e.listeners[t] = append(e.listeners[t], &entry{h: h, cfg: cfg})
}

// RemoveListener drops every registration of h for the given event type.
func (e *Emitter) RemoveListener(t binding.EventType, h *binding.Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.listeners[t][:0]

	for _, ent := range e.listeners[t] {
		if ent.h != h {
			kept = append(kept, ent)
		}
	}

	if len(kept) == 0 {
		delete(e.listeners, t)
		return
	}

	e.listeners[t] = kept
}

// Dispatch delivers evt to every live listener registered for its type and
// returns the number of handlers invoked. Handlers run synchronously on the
// calling goroutine, outside the emitter's lock.
func (e *Emitter) Dispatch(ctx context.Context, evt binding.Event) (int, error) {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return 0, fmt.Errorf("dispatch %q: %w", string(evt.Type), berr.ErrEmitterClosed)
	}

	all := e.listeners[evt.Type]
	kept := all[:0]

	var run []*entry

	for _, ent := range all {
		if ent.cfg.Signal != nil && ent.cfg.Signal.Err() != nil {
			continue // removal signal fired; prune without invoking
		}

		run = append(run, ent)

		if !ent.cfg.Once {
			kept = append(kept, ent)
		}
	}

	if len(kept) == 0 {
		delete(e.listeners, evt.Type)
	} else {
		e.listeners[evt.Type] = kept
	}

	e.mu.Unlock()

	for _, ent := range run {
		(*ent.h)(ctx, evt)
	}

	return len(run), nil
}

// ListenerCount reports how many listeners would still receive an event of
// the given type: registrations whose removal signal has fired are not
// counted even if they have not been pruned yet.
func (e *Emitter) ListenerCount(t binding.EventType) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0

	for _, ent := range e.listeners[t] {
		if ent.cfg.Signal != nil && ent.cfg.Signal.Err() != nil {
			continue
		}

		n++
	}

	return n
}

// Close drops all listeners and rejects further dispatches.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.listeners = nil
}
