package rabbitmq

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	berr "github.com/mmedoo/use-eventer/contract/errors"
)

// Concrete AMQP connection-backed Consumer and constructor.

type Config struct {
	URL         string
	ConnTimeout time.Duration
}

type channelConsumer struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	declared map[string]bool
}

func (c *channelConsumer) Consume(queue, tag string, deliver DeliverFunc) error {
	if err := c.declare(queue); err != nil {
		return err
	}

	deliveries, err := c.ch.Consume(queue, tag, true, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for d := range deliveries {
			deliver(d.Body, flattenTable(d.Headers))
		}
	}()

	return nil
}

func (c *channelConsumer) Cancel(tag string) error {
	return c.ch.Cancel(tag, false)
}

// declare is idempotent per queue name for the lifetime of the channel.
func (c *channelConsumer) declare(queue string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.declared[queue] {
		return nil
	}

	if _, err := c.ch.QueueDeclare(queue, false, false, false, false, nil); err != nil {
		return err
	}

	c.declared[queue] = true

	return nil
}

// flattenTable keeps string-convertible values; listener configs carry flat maps.
func flattenTable(t amqp.Table) map[string]string {
	if len(t) == 0 {
		return nil
	}

	out := make(map[string]string, len(t))

	for k, v := range t {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}

	return out
}

// NewWithAMQP dials a real AMQP connection and returns a Target and a cleanup.
func NewWithAMQP(cfg Config) (*Target, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: rabbitmq url required", berr.ErrNotConnected)
	}

	acfg := amqp.Config{}
	if cfg.ConnTimeout > 0 {
		acfg.Dial = amqp.DefaultDial(cfg.ConnTimeout)
	}

	conn, err := amqp.DialConfig(cfg.URL, acfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: rabbitmq dial: %w", berr.ErrNotConnected, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%w: rabbitmq channel: %w", berr.ErrNotConnected, err)
	}

	tg := New(&channelConsumer{ch: ch, declared: make(map[string]bool)})
	cleanup := func() {
		_ = ch.Close()
		_ = conn.Close()
	}

	return tg, cleanup, nil
}
