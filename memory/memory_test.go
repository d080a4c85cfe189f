package memory_test

import (
	"context"
	"testing"

	"github.com/mmedoo/use-eventer/contract/binding"
	"github.com/mmedoo/use-eventer/eventer"
	"github.com/mmedoo/use-eventer/memory"
)

func TestMemory_BindDispatchCleanup(t *testing.T) {
	tgt, emitter, cleanup := memory.New()
	defer cleanup()

	calls := 0
	factory := func() binding.Handler {
		return func(ctx context.Context, e binding.Event) { calls++ }
	}

	td, err := eventer.BindOne(binding.Ref(tgt), "click", factory, eventer.Options{})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	if n, err := emitter.Dispatch(testContext(t), binding.Event{Type: "click"}); err != nil || n != 1 {
		t.Fatalf("dispatch: n=%d err=%v", n, err)
	}

	if calls != 1 {
		t.Fatalf("calls=%d", calls)
	}

	td()

	if n, err := emitter.Dispatch(testContext(t), binding.Event{Type: "click"}); err != nil || n != 0 {
		t.Fatalf("dispatch after teardown: n=%d err=%v", n, err)
	}

	cleanup()

	if _, err := emitter.Dispatch(testContext(t), binding.Event{Type: "click"}); err == nil {
		t.Fatalf("expected error after cleanup")
	}
}

// testContext substitutes testing.T.Context (Go 1.24+) for older toolchains:
// a context canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
