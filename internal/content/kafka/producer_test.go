package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/content-pipeline/internal/content/models"
)

func newProducer(t *testing.T, mutate func(*ProducerConfig)) *Producer {
	t.Helper()
	cfg := ProducerConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "content-events",
		Logger:  zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := NewProducer(cfg)
	require.NoError(t, err)
	return p
}

func TestNewProducer_ConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*ProducerConfig)
		wantErr string
	}{
		{
			name:    "no brokers",
			mutate:  func(c *ProducerConfig) { c.Brokers = nil },
			wantErr: "brokers list is empty",
		},
		{
			name:    "no topic",
			mutate:  func(c *ProducerConfig) { c.Topic = "" },
			wantErr: "topic is empty",
		},
		{
			name:    "negative max retries",
			mutate:  func(c *ProducerConfig) { c.MaxRetries = -1 },
			wantErr: "max_retries cannot be negative",
		},
		{
			name:    "negative retry backoff",
			mutate:  func(c *ProducerConfig) { c.RetryBackoff = -time.Second },
			wantErr: "retry_backoff cannot be negative",
		},
		{
			name:    "negative write timeout",
			mutate:  func(c *ProducerConfig) { c.WriteTimeout = -time.Second },
			wantErr: "write_timeout cannot be negative",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := ProducerConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "content-events",
				Logger:  zerolog.Nop(),
			}
			tc.mutate(&cfg)

			p, err := NewProducer(cfg)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewProducer_Defaults(t *testing.T) {
	p := newProducer(t, nil)

	assert.Equal(t, "content-events", p.config.Topic)
	assert.Equal(t, 3, p.config.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, p.config.RetryBackoff)
	assert.Equal(t, 10*time.Second, p.config.WriteTimeout)
	assert.Equal(t, 100, p.config.BatchSize)
	assert.False(t, p.config.Async)
}

func TestNewProducer_ExplicitConfigWins(t *testing.T) {
	p := newProducer(t, func(c *ProducerConfig) {
		c.MaxRetries = 5
		c.RetryBackoff = 200 * time.Millisecond
		c.WriteTimeout = 5 * time.Second
		c.BatchSize = 50
		c.Async = true
	})

	assert.Equal(t, 5, p.config.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, p.config.RetryBackoff)
	assert.Equal(t, 5*time.Second, p.config.WriteTimeout)
	assert.Equal(t, 50, p.config.BatchSize)
	assert.True(t, p.config.Async)
}

func TestSetDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := ProducerConfig{
		MaxRetries:   7,
		RetryBackoff: time.Second,
	}
	setDefaults(&cfg)

	// Заданное не трогаем, пустое добиваем дефолтами.
	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBackoff)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
}

func TestIsRetriableError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retriable bool
	}{
		{name: "nil", err: nil, retriable: false},
		{name: "context canceled", err: context.Canceled, retriable: false},
		{name: "context deadline", err: context.DeadlineExceeded, retriable: false},
		{name: "invalid message", err: errors.New("invalid message format"), retriable: false},
		{name: "message too large", err: errors.New("message too large"), retriable: false},
		{name: "authorization failed", err: errors.New("authorization failed"), retriable: false},
		{name: "connection refused", err: errors.New("connection refused"), retriable: true},
		{name: "connection reset", err: errors.New("connection reset by peer"), retriable: true},
		{name: "io timeout", err: errors.New("i/o timeout"), retriable: true},
		{name: "leader not available", err: errors.New("leader not available"), retriable: true},
		// Неизвестная ошибка: лишний ретрай дешевле потерянного события.
		{name: "unknown", err: errors.New("some random error"), retriable: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.retriable, isRetriableError(tc.err))
		})
	}
}

func TestGetMetrics(t *testing.T) {
	p := newProducer(t, nil)

	m := p.GetMetrics()
	assert.Zero(t, m.MessagesPublished)
	assert.Zero(t, m.MessagesFailed)
	assert.Zero(t, m.RetriesTotal)
	assert.Zero(t, m.AvgPublishTime)

	p.metrics.MessagesPublished.Add(10)
	p.metrics.MessagesFailed.Add(2)
	p.metrics.RetriesTotal.Add(5)
	p.metrics.PublishDuration.Add(int64(100 * time.Millisecond))

	m = p.GetMetrics()
	assert.Equal(t, int64(10), m.MessagesPublished)
	assert.Equal(t, int64(2), m.MessagesFailed)
	assert.Equal(t, int64(5), m.RetriesTotal)
	assert.Equal(t, 10*time.Millisecond, m.AvgPublishTime)
}

func TestGetMetrics_NoPublishedNoAverage(t *testing.T) {
	p := newProducer(t, nil)
	p.metrics.PublishDuration.Add(int64(100 * time.Millisecond))

	// Деление на ноль публикаций не должно давать мусорного среднего.
	assert.Equal(t, time.Duration(0), p.GetMetrics().AvgPublishTime)
}

func TestClosedProducerRejectsEverything(t *testing.T) {
	event := models.NewContentStatusChanged(
		uuid.New(), models.UploadingStatus, models.UploadedStatus, "")
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	t.Run("publish", func(t *testing.T) {
		p := newProducer(t, nil)
		p.closed.Store(true)

		err := p.Publish(context.Background(), event.AggregateID().String(), payload)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "producer is closed")
	})

	t.Run("publish batch", func(t *testing.T) {
		p := newProducer(t, nil)
		p.closed.Store(true)

		err := p.PublishBatch(context.Background(), []Message{
			{Key: event.AggregateID().String(), Value: payload},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "producer is closed")
	})

	t.Run("health check", func(t *testing.T) {
		p := newProducer(t, nil)
		p.closed.Store(true)

		err := p.HealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "producer is closed")
	})
}

func TestPublishBatch_EmptyIsNoop(t *testing.T) {
	p := newProducer(t, nil)

	require.NoError(t, p.PublishBatch(context.Background(), nil))
	assert.Zero(t, p.GetMetrics().MessagesPublished)
}

func TestClose_SecondCallFails(t *testing.T) {
	p := newProducer(t, nil)

	_ = p.Close()
	assert.True(t, p.closed.Load())

	err := p.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already closed")
}
