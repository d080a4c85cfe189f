package rabbitmq_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mmedoo/use-eventer/adapters/rabbitmq"
	"github.com/mmedoo/use-eventer/contract/binding"
)

// fakes

type consumeCall struct {
	queue   string
	tag     string
	deliver rabbitmq.DeliverFunc
}

type fakeConsumer struct {
	consumes []consumeCall
	canceled chan string
	err      error
}

func newFakeConsumer() *fakeConsumer {
	return &fakeConsumer{canceled: make(chan string, 8)}
}

func (c *fakeConsumer) Consume(queue, tag string, deliver rabbitmq.DeliverFunc) error {
	if c.err != nil {
		return c.err
	}

	c.consumes = append(c.consumes, consumeCall{queue: queue, tag: tag, deliver: deliver})

	return nil
}

func (c *fakeConsumer) Cancel(tag string) error {
	c.canceled <- tag
	return nil
}

func waitCanceled(t *testing.T, ch chan string, what string) string {
	t.Helper()

	select {
	case tag := <-ch:
		return tag
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s", what)
		return ""
	}
}

func TestRabbitMQ_QueueNaming(t *testing.T) {
	fc := newFakeConsumer()
	tg := rabbitmq.New(fc)

	h := binding.Handler(func(ctx context.Context, e binding.Event) {})

	// Default: the event type names the queue.
	tg.AddListener("orders.created", &h, binding.ListenerConfig{})

	// Override via config.
	h2 := binding.Handler(func(ctx context.Context, e binding.Event) {})
	tg.AddListener("orders.created", &h2, binding.ListenerConfig{Queue: "orders-workers"})

	if len(fc.consumes) != 2 {
		t.Fatalf("consumes = %d", len(fc.consumes))
	}

	if fc.consumes[0].queue != "orders.created" {
		t.Fatalf("default queue = %q", fc.consumes[0].queue)
	}

	if fc.consumes[1].queue != "orders-workers" {
		t.Fatalf("override queue = %q", fc.consumes[1].queue)
	}

	// Tags are generated and distinct per registration.
	if fc.consumes[0].tag == fc.consumes[1].tag {
		t.Fatalf("tags collide: %q", fc.consumes[0].tag)
	}

	if !strings.HasPrefix(fc.consumes[0].tag, "eventer-") {
		t.Fatalf("tag = %q", fc.consumes[0].tag)
	}
}

func TestRabbitMQ_DeliverAndRemove(t *testing.T) {
	fc := newFakeConsumer()
	tg := rabbitmq.New(fc)

	calls := 0
	h := binding.Handler(func(ctx context.Context, e binding.Event) { calls++ })

	tg.AddListener("orders.created", &h, binding.ListenerConfig{})
	fc.consumes[0].deliver([]byte("x"), map[string]string{"k": "v"})

	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}

	tg.RemoveListener("orders.created", &h)

	if tag := waitCanceled(t, fc.canceled, "cancel"); tag != fc.consumes[0].tag {
		t.Fatalf("canceled tag = %q", tag)
	}
}

func TestRabbitMQ_SignalCancelsConsumer(t *testing.T) {
	fc := newFakeConsumer()
	tg := rabbitmq.New(fc)

	h := binding.Handler(func(ctx context.Context, e binding.Event) {})

	ctx, cancel := context.WithCancel(testContext(t))
	tg.AddListener("orders.created", &h, binding.ListenerConfig{Signal: ctx})

	cancel()
	waitCanceled(t, fc.canceled, "signal-driven cancel")
}

func TestRabbitMQ_OnceCancelsAfterFirstDelivery(t *testing.T) {
	fc := newFakeConsumer()
	tg := rabbitmq.New(fc)

	calls := 0
	h := binding.Handler(func(ctx context.Context, e binding.Event) { calls++ })

	tg.AddListener("orders.created", &h, binding.ListenerConfig{Once: true})
	fc.consumes[0].deliver(nil, nil)
	waitCanceled(t, fc.canceled, "once cancel")

	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestRabbitMQ_ConsumeFailureDegrades(t *testing.T) {
	fc := newFakeConsumer()
	fc.err = context.DeadlineExceeded
	tg := rabbitmq.New(fc)

	h := binding.Handler(func(ctx context.Context, e binding.Event) {})

	tg.AddListener("orders.created", &h, binding.ListenerConfig{})
	tg.RemoveListener("orders.created", &h)

	select {
	case tag := <-fc.canceled:
		t.Fatalf("unexpected cancel of %q", tag)
	default:
	}
}

// testContext substitutes testing.T.Context (Go 1.24+) for older toolchains:
// a context canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
