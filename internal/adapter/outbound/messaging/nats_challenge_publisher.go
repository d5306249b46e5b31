// Package messaging publishes challenge import batches to NATS JetStream.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"snippetcorpus/internal/application/common/slogger"
	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/config"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const natsConnectionTimeout = 5 * time.Second

// PublisherMetrics tracks message publishing metrics.
type PublisherMetrics struct {
	PublishedCount    int64     `json:"published_count"`
	FailedCount       int64     `json:"failed_count"`
	LastPublishedTime time.Time `json:"last_published_time"`
}

type jetStreamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSChallengePublisher implements outbound.ChallengeBatchPublisher on JetStream.
type NATSChallengePublisher struct {
	config  config.NATSConfig
	conn    *nats.Conn
	js      jetStreamPublisher
	mu      sync.RWMutex
	metrics PublisherMetrics
}

// NewNATSChallengePublisher validates cfg and creates an unconnected publisher.
func NewNATSChallengePublisher(cfg config.NATSConfig) (*NATSChallengePublisher, error) {
	if err := ValidateNATSConfig(cfg); err != nil {
		return nil, err
	}
	return &NATSChallengePublisher{config: cfg}, nil
}

// ValidateNATSConfig checks the connection settings shared by publisher and consumer.
func ValidateNATSConfig(cfg config.NATSConfig) error {
	if cfg.URL == "" {
		return errors.New("NATS URL cannot be empty")
	}
	if !strings.HasPrefix(cfg.URL, "nats://") && !strings.HasPrefix(cfg.URL, "tls://") {
		return errors.New("invalid NATS URL scheme")
	}
	if cfg.MaxReconnects < 0 {
		return errors.New("max reconnects cannot be negative")
	}
	if cfg.ReconnectWait < 0 {
		return errors.New("reconnect wait cannot be negative")
	}
	return nil
}

// Connect dials NATS and ensures the challenge stream exists.
func (p *NATSChallengePublisher) Connect() error {
	conn, err := Dial(p.config, "snippetcorpus-publisher")
	if err != nil {
		return err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	if err := EnsureStream(js); err != nil {
		conn.Close()
		return err
	}

	p.mu.Lock()
	p.conn = conn
	p.js = js
	p.mu.Unlock()
	return nil
}

// Dial connects to NATS with the reconnect settings of cfg.
func Dial(cfg config.NATSConfig, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(natsConnectionTimeout),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slogger.InfoNoCtx("Reconnected to NATS", slogger.Field("url", c.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slogger.WarnNoCtx("Disconnected from NATS", slogger.Field("error", err.Error()))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// Close closes the NATS connection.
func (p *NATSChallengePublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	p.js = nil
}

// PublishChallengeBatch publishes batch on the import subject. The batch ID doubles as the
// JetStream message ID, so a republished batch is dropped by the stream's duplicate window.
func (p *NATSChallengePublisher) PublishChallengeBatch(ctx context.Context, batch dto.ChallengeImportBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(batch.Challenges) == 0 {
		return errors.New("challenge batch is empty")
	}
	if batch.BatchID == "" {
		batch.BatchID = uuid.NewString()
	}

	p.mu.RLock()
	js := p.js
	p.mu.RUnlock()
	if js == nil {
		p.record(false)
		return errors.New("not connected to NATS server")
	}

	data, err := json.Marshal(batch)
	if err != nil {
		p.record(false)
		return fmt.Errorf("failed to marshal challenge batch: %w", err)
	}

	if _, err := js.Publish(ImportSubject, data, nats.Context(ctx), nats.MsgId(batch.BatchID)); err != nil {
		p.record(false)
		return fmt.Errorf("failed to publish challenge batch: %w", err)
	}
	p.record(true)

	slogger.Debug(ctx, "Challenge batch published", slogger.Fields3(
		"batch_id", batch.BatchID,
		"project", batch.Project,
		"challenges", len(batch.Challenges),
	))
	return nil
}

func (p *NATSChallengePublisher) record(success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if success {
		p.metrics.PublishedCount++
		p.metrics.LastPublishedTime = time.Now()
		return
	}
	p.metrics.FailedCount++
}

// Metrics returns a snapshot of the publishing metrics.
func (p *NATSChallengePublisher) Metrics() PublisherMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.metrics
}

// Name identifies the dependency in health reports.
func (p *NATSChallengePublisher) Name() string { return "nats" }

// Check reports whether the connection is up.
func (p *NATSChallengePublisher) Check(context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.conn == nil || !p.conn.IsConnected() {
		return errors.New("not connected to NATS server")
	}
	return nil
}
