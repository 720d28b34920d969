package natsadapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SampleStream holds travel samples until the recorder has stored them.
	SampleStream = "WAZE_SAMPLES"
	// SampleSubjectPrefix is followed by the watched route name.
	SampleSubjectPrefix = "waze.samples."
)

// Connect opens a NATS connection that keeps reconnecting.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// EnsureStreams creates or updates the sample stream.
func EnsureStreams(js nats.JetStreamContext) error {
	cfg := nats.StreamConfig{
		Name:      SampleStream,
		Subjects:  []string{SampleSubjectPrefix + ">"},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// stream may already exist
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// SampleSubject returns the subject for samples of route. NATS tokens cannot
// contain spaces, dots or wildcards.
func SampleSubject(route string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '*', '>', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, route)
	if token == "" {
		token = "_"
	}
	return SampleSubjectPrefix + token
}
