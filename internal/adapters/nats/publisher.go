package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the sample stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := EnsureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishSample persists s on the sample stream. Core NATS subscribers on the
// same subject (the WebSocket relay) see it too. The sample ID doubles as the
// JetStream message ID so republishing dedupes.
func (p *Publisher) PublishSample(ctx context.Context, s *domain.TravelSample) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if _, err := p.js.Publish(SampleSubject(s.Route), data, nats.MsgId(s.ID), nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish sample: %w", err)
	}
	return nil
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
