package eventer

import (
	"context"

	"github.com/mmedoo/use-eventer/contract/binding"
)

// A strategy reverses one cycle's registrations. It is chosen once at setup
// and carried unchanged into the Teardown, so teardown never re-inspects the
// listener configuration.
type strategy interface {
	release()
}

// bulkCancel invalidates every registration of the cycle in one operation by
// canceling the shared token the registrations were made with.
type bulkCancel struct {
	cancel context.CancelFunc
}

func (s bulkCancel) release() { s.cancel() }

// explicitList removes each registered pair individually, in exact
// registration order. Used when the caller supplied their own removal signal:
// canceling the cycle token would not touch those registrations.
type explicitList struct {
	pairs   []pair
	handler *binding.Handler
	cancel  context.CancelFunc
}

func (s explicitList) release() {
	for _, p := range s.pairs {
		p.target.RemoveListener(p.event, s.handler)
	}

	// The cycle token was never injected into a registration; cancel it
	// anyway so its resources are released.
	s.cancel()
}

func newTeardown(
	cancel context.CancelFunc,
	external bool,
	registered []pair,
	hp *binding.Handler,
) Teardown {
	var st strategy
	if external {
		st = explicitList{pairs: registered, handler: hp, cancel: cancel}
	} else {
		st = bulkCancel{cancel: cancel}
	}

	done := false

	return func() {
		if done {
			return
		}

		done = true

		st.release()
	}
}
