package eventer

import (
	"context"
	"fmt"

	"github.com/mmedoo/use-eventer/contract/binding"
	berr "github.com/mmedoo/use-eventer/contract/errors"
)

// Options configures one Bind call.
type Options struct {
	// Topology selects how targets pair with event types. The zero value
	// is Broadcast.
	Topology binding.Topology

	// CallOnce invokes the handler once, with an empty Event, before any
	// registration, even when zero pairs end up registered.
	CallOnce bool

	// CallEach invokes the handler once more, with an empty Event,
	// immediately before each pair's registration. CallOnce and CallEach
	// compound: both invocation counts apply independently.
	CallEach bool

	// Listener is merged into every registration of the cycle. Supplying
	// Listener.Signal switches teardown from bulk cancellation to explicit
	// per-pair removal.
	Listener binding.ListenerConfig
}

// Teardown reverses every registration made by the Bind call that returned
// it. Calling it more than once is a no-op.
type Teardown func()

type pair struct {
	target binding.Target
	event  binding.EventType
}

// Bind resolves each target, computes the (target, event type) binding set
// for the configured topology, and registers one shared handler against every
// pair. It returns the teardown for the cycle.
//
// Targets that resolve as absent are skipped silently; the only error is a
// Paired topology with mismatched counts, raised before any side effect.
func Bind(
	targets []binding.TargetRef,
	events []binding.EventType,
	factory binding.HandlerFactory,
	opts Options,
) (Teardown, error) {
	if opts.Topology == binding.Paired && len(targets) != len(events) {
		return nil, fmt.Errorf(
			"bind paired: %d targets, %d event types: %w",
			len(targets), len(events), berr.ErrTopologyMismatch,
		)
	}

	h := factory()
	hp := &h

	// One cancellation token per cycle. Registrations carry it as their
	// removal signal unless the caller supplied their own.
	ctx, cancel := context.WithCancel(context.Background())

	cfg := opts.Listener
	external := cfg.Signal != nil

	if !external {
		cfg.Signal = ctx
	}

	if opts.CallOnce {
		h(ctx, binding.Event{})
	}

	var registered []pair

	register := func(ref binding.TargetRef, et binding.EventType) {
		tgt, ok := ref.Resolve()
		if !ok {
			return
		}

		if opts.CallEach {
			h(ctx, binding.Event{})
		}

		tgt.AddListener(et, hp, cfg)
		registered = append(registered, pair{target: tgt, event: et})
	}

	if opts.Topology == binding.Paired {
		for i, ref := range targets {
			register(ref, events[i])
		}

		return newTeardown(cancel, external, registered, hp), nil
	}

	// Broadcast: targets outer, event types inner. Explicit removal at
	// teardown must mirror this order.
	for _, ref := range targets {
		for _, et := range events {
			register(ref, et)
		}
	}

	return newTeardown(cancel, external, registered, hp), nil
}

// BindOne is the single-value normalization boundary: one target and one
// event type are treated as sequences of length one.
func BindOne(
	target binding.TargetRef,
	event binding.EventType,
	factory binding.HandlerFactory,
	opts Options,
) (Teardown, error) {
	return Bind(
		[]binding.TargetRef{target},
		[]binding.EventType{event},
		factory,
		opts,
	)
}
