package eventer

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/mmedoo/use-eventer/contract/binding"
)

// Binder drives Bind across activation cycles. Each Apply call carries an
// activation key; whenever the key differs by value from the previous cycle's
// key, the previous cycle is torn down to completion before the new cycle is
// set up. An unchanged key makes Apply a no-op.
//
// Binder is concurrency-safe, though hosts typically drive it from a single
// lifecycle goroutine.
type Binder struct {
	mu      sync.Mutex
	key     []any
	active  Teardown
	started bool
	logger  *slog.Logger
}

// NewBinder constructs a Binder. A nil logger falls back to slog.Default.
func NewBinder(logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}

	return &Binder{logger: logger}
}

// Apply establishes bindings for the given activation key. The key is
// compared by value (not identity) against the previous cycle's key.
//
// On a topology mismatch the previous cycle has already been torn down (the
// key changed, closing that cycle) and no new bindings exist until a
// subsequent Apply succeeds.
func (b *Binder) Apply(
	key []any,
	targets []binding.TargetRef,
	events []binding.EventType,
	factory binding.HandlerFactory,
	opts Options,
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started && reflect.DeepEqual(key, b.key) {
		return nil
	}

	b.teardownLocked()

	td, err := Bind(targets, events, factory, opts)
	if err != nil {
		return err
	}

	b.logger.Debug("bindings established",
		"targets", len(targets),
		"event_types", len(events),
		"topology", opts.Topology.String(),
	)

	// Callers may mutate their key slice between cycles; keep our own copy.
	b.key = append([]any(nil), key...)
	b.active = td
	b.started = true

	return nil
}

// Close tears down the current cycle, if any. The Binder can be reused with a
// later Apply.
func (b *Binder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.teardownLocked()
}

func (b *Binder) teardownLocked() {
	if b.active != nil {
		b.active()
		b.active = nil
	}

	b.started = false
	b.key = nil
}
