package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	berr "github.com/mmedoo/use-eventer/contract/errors"
)

// Concrete franz-go based Source and constructor.

type Config struct {
	Brokers  []string
	Group    string
	ClientID string
	TLS      *tls.Config
}

type kgoSource struct {
	cl *kgo.Client

	mu     sync.RWMutex
	routes map[string]RecordFunc
}

func (s *kgoSource) Subscribe(topic string, deliver RecordFunc) error {
	s.mu.Lock()
	s.routes[topic] = deliver
	s.mu.Unlock()

	s.cl.AddConsumeTopics(topic)

	return nil
}

func (s *kgoSource) Unsubscribe(topic string) error {
	s.mu.Lock()
	delete(s.routes, topic)
	s.mu.Unlock()

	s.cl.PurgeTopicsFromConsuming(topic)

	return nil
}

// run polls until the client is closed, routing records to their topic's
// delivery callback. Records for topics purged mid-poll are dropped.
func (s *kgoSource) run() {
	for {
		fetches := s.cl.PollFetches(context.Background())
		if fetches.IsClientClosed() {
			return
		}

		fetches.EachRecord(func(r *kgo.Record) {
			s.mu.RLock()
			deliver := s.routes[r.Topic]
			s.mu.RUnlock()

			if deliver == nil {
				return
			}

			var headers map[string]string
			if len(r.Headers) > 0 {
				headers = make(map[string]string, len(r.Headers))
				for _, hd := range r.Headers {
					headers[hd.Key] = string(hd.Value)
				}
			}

			deliver(r.Key, r.Value, headers)
		})
	}
}

// NewWithKgo builds a franz-go client based Target. The returned cleanup
// should be called to close the client and stop the poll loop.
func NewWithKgo(cfg Config) (*Target, func(), error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil, fmt.Errorf("%w: kafka brokers required", berr.ErrNotConnected)
	}

	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Brokers...)}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	if cfg.Group != "" {
		opts = append(opts, kgo.ConsumerGroup(cfg.Group))
	}

	if cfg.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(cfg.TLS))
	}

	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: kafka client init: %w", berr.ErrNotConnected, err)
	}

	src := &kgoSource{cl: cl, routes: make(map[string]RecordFunc)}
	go src.run()

	cleanup := func() { cl.Close() }

	return New(src), cleanup, nil
}
