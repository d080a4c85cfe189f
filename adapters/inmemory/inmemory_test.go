package inmemory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mmedoo/use-eventer/adapters/inmemory"
	"github.com/mmedoo/use-eventer/contract/binding"
	berr "github.com/mmedoo/use-eventer/contract/errors"
)

func handler(calls *int) binding.Handler {
	return func(ctx context.Context, e binding.Event) { *calls++ }
}

func TestEmitter_AddDispatchRemove(t *testing.T) {
	e := inmemory.New()

	calls := 0
	h := handler(&calls)

	e.AddListener("click", &h, binding.ListenerConfig{})

	if got := e.ListenerCount("click"); got != 1 {
		t.Fatalf("listeners = %d", got)
	}

	if n, err := e.Dispatch(testContext(t), binding.Event{Type: "click"}); err != nil || n != 1 {
		t.Fatalf("dispatch: n=%d err=%v", n, err)
	}

	// Unrelated event types deliver to nobody.
	if n, _ := e.Dispatch(testContext(t), binding.Event{Type: "hover"}); n != 0 {
		t.Fatalf("hover: n=%d", n)
	}

	e.RemoveListener("click", &h)

	if n, _ := e.Dispatch(testContext(t), binding.Event{Type: "click"}); n != 0 {
		t.Fatalf("after remove: n=%d", n)
	}

	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestEmitter_RemoveUnknownIsNoOp(t *testing.T) {
	e := inmemory.New()

	calls := 0
	h := handler(&calls)

	e.RemoveListener("click", &h)

	if n, err := e.Dispatch(testContext(t), binding.Event{Type: "click"}); err != nil || n != 0 {
		t.Fatalf("dispatch: n=%d err=%v", n, err)
	}
}

func TestEmitter_OnceRemovedAfterFirstDelivery(t *testing.T) {
	e := inmemory.New()

	calls := 0
	h := handler(&calls)

	e.AddListener("click", &h, binding.ListenerConfig{Once: true})

	if n, _ := e.Dispatch(testContext(t), binding.Event{Type: "click"}); n != 1 {
		t.Fatalf("first: n=%d", n)
	}

	if n, _ := e.Dispatch(testContext(t), binding.Event{Type: "click"}); n != 0 {
		t.Fatalf("second: n=%d", n)
	}

	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestEmitter_SignalPrunesWithoutInvoking(t *testing.T) {
	e := inmemory.New()

	calls := 0
	h := handler(&calls)

	ctx, cancel := context.WithCancel(testContext(t))
	e.AddListener("click", &h, binding.ListenerConfig{Signal: ctx})

	cancel()

	if got := e.ListenerCount("click"); got != 0 {
		t.Fatalf("listeners after cancel = %d", got)
	}

	if n, _ := e.Dispatch(testContext(t), binding.Event{Type: "click"}); n != 0 {
		t.Fatalf("dispatch after cancel: n=%d", n)
	}

	if calls != 0 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestEmitter_ClosedRejectsDispatch(t *testing.T) {
	e := inmemory.New()

	calls := 0
	h := handler(&calls)

	e.AddListener("click", &h, binding.ListenerConfig{})
	e.Close()

	if _, err := e.Dispatch(testContext(t), binding.Event{Type: "click"}); !errors.Is(err, berr.ErrEmitterClosed) {
		t.Fatalf("want ErrEmitterClosed, got %v", err)
	}

	// Adds after Close are dropped.
	e.AddListener("hover", &h, binding.ListenerConfig{})

	if got := e.ListenerCount("hover"); got != 0 {
		t.Fatalf("listeners = %d", got)
	}
}

// testContext substitutes testing.T.Context (Go 1.24+) for older toolchains:
// a context canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
