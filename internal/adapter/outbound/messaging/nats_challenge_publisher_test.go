package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/config"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockJetStream struct {
	mock.Mock
}

func (m *mockJetStream) Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error) {
	args := m.Called(subj, data, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*nats.PubAck), args.Error(1)
}

func (m *mockJetStream) StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error) {
	args := m.Called(stream)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*nats.StreamInfo), args.Error(1)
}

func (m *mockJetStream) AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error) {
	args := m.Called(cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*nats.StreamInfo), args.Error(1)
}

func validConfig() config.NATSConfig {
	return config.NATSConfig{URL: "nats://localhost:4222", MaxReconnects: 5}
}

func sampleBatch() dto.ChallengeImportBatch {
	return dto.ChallengeImportBatch{
		Project: "nzlz/speedtyper",
		Challenges: []dto.ChallengeImport{{
			Content: "fn main() {}",
			Path:    "src/main.rs",
			URL:     "https://github.com/nzlz/speedtyper/blob/t/src/main.rs#L1-L1",
		}},
	}
}

func TestNewNATSChallengePublisher_ValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.NATSConfig
		errMsg string
	}{
		{"empty url", config.NATSConfig{}, "NATS URL cannot be empty"},
		{"bad scheme", config.NATSConfig{URL: "http://localhost:4222"}, "invalid NATS URL scheme"},
		{"negative reconnects", config.NATSConfig{URL: "nats://x:4222", MaxReconnects: -1}, "max reconnects"},
		{"negative wait", config.NATSConfig{URL: "nats://x:4222", ReconnectWait: -1}, "reconnect wait"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNATSChallengePublisher(tt.cfg)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}

	publisher, err := NewNATSChallengePublisher(validConfig())
	require.NoError(t, err)
	assert.NotNil(t, publisher)
}

func TestPublishChallengeBatch_PublishesJSONWithMessageID(t *testing.T) {
	js := new(mockJetStream)
	var published []byte
	var opts []nats.PubOpt
	js.On("Publish", ImportSubject, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(1).([]byte)
			opts = args.Get(2).([]nats.PubOpt)
		}).
		Return(&nats.PubAck{Stream: StreamName, Sequence: 1}, nil).Once()

	publisher, err := NewNATSChallengePublisher(validConfig())
	require.NoError(t, err)
	publisher.js = js

	batch := sampleBatch()
	batch.BatchID = "batch-1"
	require.NoError(t, publisher.PublishChallengeBatch(context.Background(), batch))

	var decoded dto.ChallengeImportBatch
	require.NoError(t, json.Unmarshal(published, &decoded))
	assert.Equal(t, batch, decoded)
	assert.Len(t, opts, 2)
	assert.Equal(t, int64(1), publisher.Metrics().PublishedCount)
	js.AssertExpectations(t)
}

func TestPublishChallengeBatch_AssignsBatchID(t *testing.T) {
	js := new(mockJetStream)
	var decoded dto.ChallengeImportBatch
	js.On("Publish", ImportSubject, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_ = json.Unmarshal(args.Get(1).([]byte), &decoded)
		}).
		Return(&nats.PubAck{}, nil).Once()

	publisher, err := NewNATSChallengePublisher(validConfig())
	require.NoError(t, err)
	publisher.js = js

	require.NoError(t, publisher.PublishChallengeBatch(context.Background(), sampleBatch()))
	assert.NotEmpty(t, decoded.BatchID)
}

func TestPublishChallengeBatch_Failures(t *testing.T) {
	publisher, err := NewNATSChallengePublisher(validConfig())
	require.NoError(t, err)

	assert.ErrorContains(t, publisher.PublishChallengeBatch(context.Background(), dto.ChallengeImportBatch{}), "empty")
	assert.ErrorContains(t, publisher.PublishChallengeBatch(context.Background(), sampleBatch()), "not connected")

	js := new(mockJetStream)
	js.On("Publish", ImportSubject, mock.Anything, mock.Anything).Return(nil, errors.New("no responders")).Once()
	publisher.js = js
	assert.ErrorContains(t, publisher.PublishChallengeBatch(context.Background(), sampleBatch()), "no responders")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, publisher.PublishChallengeBatch(ctx, sampleBatch()), context.Canceled)

	assert.Equal(t, int64(2), publisher.Metrics().FailedCount)
	assert.Error(t, publisher.Check(context.Background()))
}

func TestEnsureStream(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		js := new(mockJetStream)
		js.On("StreamInfo", StreamName).Return(&nats.StreamInfo{}, nil).Once()
		require.NoError(t, EnsureStream(js))
		js.AssertNotCalled(t, "AddStream", mock.Anything)
	})

	t.Run("created", func(t *testing.T) {
		js := new(mockJetStream)
		js.On("StreamInfo", StreamName).Return(nil, nats.ErrStreamNotFound).Once()
		js.On("AddStream", mock.MatchedBy(func(cfg *nats.StreamConfig) bool {
			return cfg.Name == StreamName && cfg.Retention == nats.WorkQueuePolicy
		})).Return(&nats.StreamInfo{}, nil).Once()
		require.NoError(t, EnsureStream(js))
		js.AssertExpectations(t)
	})

	t.Run("lookup failure", func(t *testing.T) {
		js := new(mockJetStream)
		js.On("StreamInfo", StreamName).Return(nil, errors.New("timeout")).Once()
		assert.ErrorContains(t, EnsureStream(js), "lookup stream")
	})
}
