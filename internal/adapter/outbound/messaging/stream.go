package messaging

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// StreamName is the JetStream stream carrying challenge import batches.
	StreamName = "CHALLENGES"
	// ImportSubject is the subject import batches are published on.
	ImportSubject = "challenges.import"

	streamMaxAge = 72 * time.Hour
)

// StreamConfig describes the work-queue stream import batches are published to.
func StreamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{"challenges.>"},
		Storage:    nats.FileStorage,
		Retention:  nats.WorkQueuePolicy,
		MaxAge:     streamMaxAge,
		Duplicates: 10 * time.Minute,
		Replicas:   1,
	}
}

type streamManager interface {
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// EnsureStream creates the challenge stream unless it already exists.
func EnsureStream(js streamManager) error {
	_, err := js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("lookup stream %s: %w", StreamName, err)
	}
	if _, err := js.AddStream(StreamConfig()); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", StreamName, err)
	}
	return nil
}
