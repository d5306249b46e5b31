package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	outmessaging "snippetcorpus/internal/adapter/outbound/messaging"
	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/config"
	"snippetcorpus/internal/domain/valueobject"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChallengeService struct {
	mock.Mock
}

func (m *mockChallengeService) GetRandomChallenge(ctx context.Context, language string) (*dto.ChallengeResponse, error) {
	args := m.Called(ctx, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ChallengeResponse), args.Error(1)
}

func (m *mockChallengeService) ListLanguages(ctx context.Context) ([]valueobject.LanguageInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]valueobject.LanguageInfo), args.Error(1)
}

func (m *mockChallengeService) ImportChallenges(ctx context.Context, batch []dto.ChallengeImport) (*dto.UpsertReport, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UpsertReport), args.Error(1)
}

type recordingAck struct {
	acked, naked, termed int
}

func (r *recordingAck) Ack(...nats.AckOpt) error  { r.acked++; return nil }
func (r *recordingAck) Nak(...nats.AckOpt) error  { r.naked++; return nil }
func (r *recordingAck) Term(...nats.AckOpt) error { r.termed++; return nil }

func testConsumerConfig() ConsumerConfig {
	return ConsumerConfigFrom(config.WorkerConfig{
		QueueGroup:  "challenge-importers",
		DurableName: "challenge-import",
		AckWait:     30 * time.Second,
		MaxDeliver:  3,
	})
}

func newTestConsumer(t *testing.T, svc *mockChallengeService) *NATSConsumer {
	t.Helper()
	consumer, err := NewNATSConsumer(testConsumerConfig(), config.NATSConfig{URL: "nats://localhost:4222"}, svc)
	require.NoError(t, err)
	return consumer
}

func encodeBatch(t *testing.T, batch dto.ChallengeImportBatch) []byte {
	t.Helper()
	data, err := json.Marshal(batch)
	require.NoError(t, err)
	return data
}

func TestNewNATSConsumer_Validation(t *testing.T) {
	valid := testConsumerConfig()
	natsCfg := config.NATSConfig{URL: "nats://localhost:4222"}
	svc := new(mockChallengeService)

	tests := []struct {
		name   string
		mutate func(*ConsumerConfig)
		errMsg string
	}{
		{"missing subject", func(c *ConsumerConfig) { c.Subject = "" }, "subject cannot be empty"},
		{"missing queue group", func(c *ConsumerConfig) { c.QueueGroup = "" }, "queue group cannot be empty"},
		{"missing durable", func(c *ConsumerConfig) { c.DurableName = "" }, "durable name cannot be empty"},
		{"zero ack wait", func(c *ConsumerConfig) { c.AckWait = 0 }, "ack wait"},
		{"zero max deliver", func(c *ConsumerConfig) { c.MaxDeliver = 0 }, "max deliver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := NewNATSConsumer(cfg, natsCfg, svc)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}

	_, err := NewNATSConsumer(valid, config.NATSConfig{}, svc)
	assert.ErrorContains(t, err, "invalid NATS configuration")

	_, err = NewNATSConsumer(valid, natsCfg, nil)
	assert.ErrorContains(t, err, "challenge service cannot be nil")
}

func TestNATSConsumer_Accessors(t *testing.T) {
	consumer := newTestConsumer(t, new(mockChallengeService))
	assert.Equal(t, outmessaging.ImportSubject, consumer.Subject())
	assert.Equal(t, "challenge-importers", consumer.QueueGroup())
	assert.Equal(t, "challenge-import", consumer.DurableName())
	assert.Error(t, consumer.Check(context.Background()))
	assert.NoError(t, consumer.Stop())

	var nilConsumer *NATSConsumer
	assert.Empty(t, nilConsumer.Subject())
}

func TestNATSConsumer_ProcessAcksImportedBatch(t *testing.T) {
	svc := new(mockChallengeService)
	consumer := newTestConsumer(t, svc)

	batch := dto.ChallengeImportBatch{
		BatchID: "b-1",
		Project: "nzlz/speedtyper",
		Challenges: []dto.ChallengeImport{
			{Content: "fn a() {}", URL: "https://example.test/a"},
			{Content: "fn b() {}", URL: "https://example.test/b", ProjectFullName: "other/repo"},
		},
	}
	svc.On("ImportChallenges", mock.Anything, mock.MatchedBy(func(items []dto.ChallengeImport) bool {
		return len(items) == 2 &&
			items[0].ProjectFullName == "nzlz/speedtyper" &&
			items[1].ProjectFullName == "other/repo"
	})).Return(&dto.UpsertReport{Attempted: 2, Persisted: 2}, nil).Once()

	ack := &recordingAck{}
	consumer.process(context.Background(), encodeBatch(t, batch), ack)

	assert.Equal(t, 1, ack.acked)
	assert.Zero(t, ack.naked)
	assert.Zero(t, ack.termed)
	stats := consumer.Stats()
	assert.Equal(t, int64(1), stats.MessagesProcessed)
	assert.Equal(t, int64(2), stats.ChallengesPersisted)
	svc.AssertExpectations(t)
}

func TestNATSConsumer_ProcessNaksOnImportFailure(t *testing.T) {
	svc := new(mockChallengeService)
	consumer := newTestConsumer(t, svc)
	svc.On("ImportChallenges", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	ack := &recordingAck{}
	consumer.process(context.Background(), encodeBatch(t, dto.ChallengeImportBatch{
		Challenges: []dto.ChallengeImport{{Content: "x", URL: "u"}},
	}), ack)

	assert.Equal(t, 1, ack.naked)
	assert.Zero(t, ack.acked)
	assert.Equal(t, int64(1), consumer.Stats().MessagesRedelivered)
	assert.Equal(t, "connection refused", consumer.Stats().LastError)
}

func TestNATSConsumer_ProcessTerminatesMalformedMessages(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("{not json")},
		{"no challenges", []byte(`{"batch_id":"b","challenges":[]}`)},
		{"blank content", []byte(`{"challenges":[{"content":"  ","url":"u"}]}`)},
		{"missing url", []byte(`{"challenges":[{"content":"fn a() {}"}]}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockChallengeService)
			consumer := newTestConsumer(t, svc)
			ack := &recordingAck{}

			consumer.process(context.Background(), tt.data, ack)

			assert.Equal(t, 1, ack.termed)
			assert.Zero(t, ack.acked)
			assert.Equal(t, int64(1), consumer.Stats().MessagesTerminated)
			svc.AssertNotCalled(t, "ImportChallenges", mock.Anything, mock.Anything)
		})
	}
}
