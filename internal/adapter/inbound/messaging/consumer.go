// Package messaging consumes challenge import batches from NATS JetStream.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	outmessaging "snippetcorpus/internal/adapter/outbound/messaging"
	"snippetcorpus/internal/application/common/slogger"
	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/config"
	"snippetcorpus/internal/port/inbound"

	"github.com/nats-io/nats.go"
)

const defaultBatchProcessingTimeout = 2 * time.Minute

// ConsumerConfig holds configuration for the message consumer.
type ConsumerConfig struct {
	Subject           string
	QueueGroup        string
	DurableName       string
	AckWait           time.Duration
	MaxDeliver        int
	ProcessingTimeout time.Duration
}

// ConsumerConfigFrom builds the consumer settings from the worker section.
func ConsumerConfigFrom(cfg config.WorkerConfig) ConsumerConfig {
	return ConsumerConfig{
		Subject:     outmessaging.ImportSubject,
		QueueGroup:  cfg.QueueGroup,
		DurableName: cfg.DurableName,
		AckWait:     cfg.AckWait,
		MaxDeliver:  cfg.MaxDeliver,
	}
}

// ConsumerStats tracks how received batches were settled.
type ConsumerStats struct {
	MessagesReceived    int64     `json:"messages_received"`
	MessagesProcessed   int64     `json:"messages_processed"`
	MessagesRedelivered int64     `json:"messages_redelivered"`
	MessagesTerminated  int64     `json:"messages_terminated"`
	ChallengesPersisted int64     `json:"challenges_persisted"`
	LastMessageTime     time.Time `json:"last_message_time"`
	LastError           string    `json:"last_error,omitempty"`
}

// acknowledger is the settlement half of a JetStream message.
type acknowledger interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
	Term(opts ...nats.AckOpt) error
}

// NATSConsumer imports challenge batches delivered on the import subject.
type NATSConsumer struct {
	config     ConsumerConfig
	natsConfig config.NATSConfig
	service    inbound.ChallengeService

	mu      sync.RWMutex
	conn    *nats.Conn
	sub     *nats.Subscription
	running bool
	stats   ConsumerStats
}

// NewNATSConsumer validates the configuration and creates a stopped consumer.
func NewNATSConsumer(
	cfg ConsumerConfig,
	natsConfig config.NATSConfig,
	service inbound.ChallengeService,
) (*NATSConsumer, error) {
	if err := validateConsumerConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid consumer configuration: %w", err)
	}
	if err := outmessaging.ValidateNATSConfig(natsConfig); err != nil {
		return nil, fmt.Errorf("invalid NATS configuration: %w", err)
	}
	if service == nil {
		return nil, errors.New("challenge service cannot be nil")
	}
	if cfg.ProcessingTimeout <= 0 {
		cfg.ProcessingTimeout = defaultBatchProcessingTimeout
	}
	return &NATSConsumer{config: cfg, natsConfig: natsConfig, service: service}, nil
}

func validateConsumerConfig(cfg ConsumerConfig) error {
	if cfg.Subject == "" {
		return errors.New("subject cannot be empty")
	}
	if cfg.QueueGroup == "" {
		return errors.New("queue group cannot be empty")
	}
	if cfg.DurableName == "" {
		return errors.New("durable name cannot be empty")
	}
	if cfg.AckWait <= 0 {
		return errors.New("ack wait duration must be positive")
	}
	if cfg.MaxDeliver <= 0 {
		return errors.New("max deliver count must be positive")
	}
	return nil
}

// Start connects, ensures the stream and joins the queue group with a durable,
// manually acknowledged subscription.
func (n *NATSConsumer) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return fmt.Errorf("consumer already running for subject %s", n.config.Subject)
	}

	conn, err := outmessaging.Dial(n.natsConfig, "snippetcorpus-worker")
	if err != nil {
		return err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	if err := outmessaging.EnsureStream(js); err != nil {
		conn.Close()
		return err
	}

	sub, err := js.QueueSubscribe(n.config.Subject, n.config.QueueGroup, n.handleMessage,
		nats.Durable(n.config.DurableName),
		nats.ManualAck(),
		nats.AckWait(n.config.AckWait),
		nats.MaxDeliver(n.config.MaxDeliver),
		nats.BindStream(outmessaging.StreamName),
	)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", n.config.Subject, err)
	}

	n.conn = conn
	n.sub = sub
	n.running = true

	slogger.Info(ctx, "Import consumer started", slogger.Fields3(
		"subject", n.config.Subject,
		"queue_group", n.config.QueueGroup,
		"durable", n.config.DurableName,
	))
	return nil
}

// Stop drains the subscription and closes the connection. Stopping a stopped consumer is a no-op.
func (n *NATSConsumer) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.running {
		return nil
	}
	n.running = false

	var errs []error
	if n.sub != nil {
		if err := n.sub.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("failed to drain subscription: %w", err))
		}
		n.sub = nil
	}
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	slogger.InfoNoCtx("Import consumer stopped", slogger.Field("subject", n.config.Subject))
	return errors.Join(errs...)
}

// QueueGroup returns the consumer's queue group.
func (n *NATSConsumer) QueueGroup() string {
	if n == nil {
		return ""
	}
	return n.config.QueueGroup
}

// Subject returns the consumer's subject.
func (n *NATSConsumer) Subject() string {
	if n == nil {
		return ""
	}
	return n.config.Subject
}

// DurableName returns the consumer's durable name.
func (n *NATSConsumer) DurableName() string {
	if n == nil {
		return ""
	}
	return n.config.DurableName
}

// Stats returns a snapshot of the consumer statistics.
func (n *NATSConsumer) Stats() ConsumerStats {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.stats
}

// Name identifies the consumer in health reports.
func (n *NATSConsumer) Name() string { return "nats_consumer" }

// Check reports whether the subscription is live.
func (n *NATSConsumer) Check(context.Context) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.running || n.conn == nil || !n.conn.IsConnected() {
		return errors.New("import consumer is not connected")
	}
	return nil
}

func (n *NATSConsumer) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), n.config.ProcessingTimeout)
	defer cancel()
	n.process(ctx, msg.Data, msg)
}

// process imports one batch and settles it. Undecodable or invalid batches are
// terminated since redelivery cannot fix them; import failures are negatively
// acknowledged so JetStream redelivers up to MaxDeliver times.
func (n *NATSConsumer) process(ctx context.Context, data []byte, ack acknowledger) {
	n.mu.Lock()
	n.stats.MessagesReceived++
	n.stats.LastMessageTime = time.Now()
	n.mu.Unlock()

	var batch dto.ChallengeImportBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		n.terminate(ctx, ack, fmt.Errorf("failed to unmarshal batch: %w", err))
		return
	}
	if err := validateBatch(batch); err != nil {
		n.terminate(ctx, ack, fmt.Errorf("invalid batch %s: %w", batch.BatchID, err))
		return
	}

	for i := range batch.Challenges {
		if batch.Challenges[i].ProjectFullName == "" {
			batch.Challenges[i].ProjectFullName = batch.Project
		}
	}

	start := time.Now()
	report, err := n.service.ImportChallenges(ctx, batch.Challenges)
	if err != nil {
		n.recordError(err)
		slogger.Error(ctx, "Challenge batch import failed", slogger.Fields2("batch_id", batch.BatchID, "error", err.Error()))
		if nakErr := ack.Nak(); nakErr != nil {
			slogger.Error(ctx, "Failed to nak message", slogger.Field("error", nakErr.Error()))
		}
		n.mu.Lock()
		n.stats.MessagesRedelivered++
		n.mu.Unlock()
		return
	}

	if err := ack.Ack(); err != nil {
		slogger.Error(ctx, "Failed to ack message", slogger.Field("error", err.Error()))
	}

	n.mu.Lock()
	n.stats.MessagesProcessed++
	n.stats.ChallengesPersisted += int64(report.Persisted)
	n.mu.Unlock()

	slogger.LogPerformance(ctx, "import_batch", time.Since(start), slogger.Fields{
		"batch_id":  batch.BatchID,
		"attempted": report.Attempted,
		"persisted": report.Persisted,
		"dropped":   report.Dropped,
	})
}

func (n *NATSConsumer) terminate(ctx context.Context, ack acknowledger, err error) {
	n.recordError(err)
	slogger.Warn(ctx, "Dropping undeliverable message", slogger.Field("error", err.Error()))
	if termErr := ack.Term(); termErr != nil {
		slogger.Error(ctx, "Failed to terminate message", slogger.Field("error", termErr.Error()))
	}
	n.mu.Lock()
	n.stats.MessagesTerminated++
	n.mu.Unlock()
}

func (n *NATSConsumer) recordError(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stats.LastError = err.Error()
}

func validateBatch(batch dto.ChallengeImportBatch) error {
	if len(batch.Challenges) == 0 {
		return errors.New("batch has no challenges")
	}
	for i, c := range batch.Challenges {
		if strings.TrimSpace(c.Content) == "" {
			return fmt.Errorf("challenge %d has empty content", i)
		}
		if c.URL == "" {
			return fmt.Errorf("challenge %d has empty url", i)
		}
	}
	return nil
}
