package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/hewliyang/waze-traffic-api/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and ensures the sample stream exists.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeSamples delivers every sample to handler. Samples that fail to
// decode are terminated; handler errors are redelivered up to 5 times.
func (s *Subscriber) SubscribeSamples(ctx context.Context, handler func(ctx context.Context, s *domain.TravelSample) error) error {
	sub, err := s.js.Subscribe(SampleSubjectPrefix+">", func(msg *nats.Msg) {
		var sample domain.TravelSample
		if err := json.Unmarshal(msg.Data, &sample); err != nil {
			slog.Warn("dropping undecodable sample", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &sample); err != nil {
			slog.Warn("sample handler failed", "id", sample.ID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("sample-recorder"),
		nats.ManualAck(),
		nats.MaxDeliver(5),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
