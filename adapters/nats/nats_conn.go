package nats

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	berr "github.com/mmedoo/use-eventer/contract/errors"
)

// Concrete NATS connection-backed Conn and constructor.

type Config struct {
	URL           string
	Name          string
	ConnTimeout   time.Duration
	MaxReconnects int
}

type natsConn struct{ nc *nats.Conn }

func (c natsConn) Subscribe(subject string, cb MsgFunc) (Subscription, error) {
	sub, err := c.nc.Subscribe(subject, func(m *nats.Msg) {
		cb(m.Subject, m.Data, flattenHeader(m.Header))
	})
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (c natsConn) QueueSubscribe(subject, queue string, cb MsgFunc) (Subscription, error) {
	sub, err := c.nc.QueueSubscribe(subject, queue, func(m *nats.Msg) {
		cb(m.Subject, m.Data, flattenHeader(m.Header))
	})
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// flattenHeader keeps the first value per key; listener configs carry flat maps.
func flattenHeader(h nats.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}

	out := make(map[string]string, len(h))

	for k, vs := range h {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}

	return out
}

// NewWithNATS creates a real NATS connection and returns a Target and a cleanup.
func NewWithNATS(cfg Config) (*Target, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: nats url required", berr.ErrNotConnected)
	}

	opts := []nats.Option{}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	if cfg.ConnTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnTimeout))
	}

	if cfg.MaxReconnects != 0 {
		opts = append(opts, nats.MaxReconnects(cfg.MaxReconnects))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: nats connect: %w", berr.ErrNotConnected, err)
	}

	tg := New(natsConn{nc: nc})
	cleanup := func() {
		if nc != nil && !nc.IsClosed() {
			_ = nc.Drain() //nolint:errcheck // best-effort shutdown; cannot return error here
			nc.Close()
		}
	}

	return tg, cleanup, nil
}
