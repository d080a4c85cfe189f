package binding

import "context"

// ListenerConfig carries optional per-registration overrides. The binder
// merges the same config into every AddListener call of a cycle.
type ListenerConfig struct {
	// Once removes the listener after its first delivery.
	Once bool

	// Queue names a shared queue/consumer group for broker-backed targets.
	// In-memory targets ignore it.
	Queue string

	// Signal is the removal signal for the registration: once it is done,
	// the target's own infrastructure stops delivering to the listener.
	// When nil, the binder injects its per-cycle cancellation context and
	// tears the cycle down by canceling it in one operation. When the
	// caller supplies a Signal it is passed through untouched and the
	// binder falls back to explicit per-pair removal at teardown.
	Signal context.Context
}

// Topology determines which targets pair with which event types.
type Topology int

const (
	// Broadcast binds every target to every event type (cross product).
	Broadcast Topology = iota

	// Paired binds target[i] only to eventTypes[i]. Target and event type
	// counts must match; a mismatch is a configuration error raised before
	// any binding occurs.
	Paired
)

func (t Topology) String() string {
	switch t {
	case Paired:
		return "paired"
	default:
		return "broadcast"
	}
}
