package attempts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"radar/internal/lookup/models"
	"radar/pkg/platform/circuit"
)

// ErrSinkUnavailable is returned while the breaker is holding writes back.
var ErrSinkUnavailable = errors.New("attempt sink unavailable")

// Producer is the part of *kgo.Client the sink needs.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// KafkaSink publishes outcomes as JSON records keyed by CNPJ. Delivery is
// asynchronous; repeated delivery failures open the breaker and later writes
// are dropped until a probe succeeds.
type KafkaSink struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *Metrics
}

type KafkaOption func(*KafkaSink)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(s *KafkaSink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithKafkaMetrics(m *Metrics) KafkaOption {
	return func(s *KafkaSink) {
		s.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(s *KafkaSink) {
		if b != nil {
			s.breaker = b
		}
	}
}

func NewKafkaSink(producer Producer, topic string, opts ...KafkaOption) *KafkaSink {
	s := &KafkaSink{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("attempts-kafka", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *KafkaSink) Name() string { return "kafka" }

type attemptMessage struct {
	UserID    int64     `json:"user_id,omitempty"`
	CNPJ      string    `json:"cnpj"`
	Origin    string    `json:"origin"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

func (s *KafkaSink) Write(ctx context.Context, o models.AttemptOutcome) error {
	if !s.breaker.Allow() {
		return ErrSinkUnavailable
	}
	payload, err := json.Marshal(attemptMessage{
		UserID:    o.UserID,
		CNPJ:      o.CNPJ.String(),
		Origin:    string(o.Origin),
		Success:   o.Success,
		Message:   o.Message,
		RequestID: o.RequestID,
		At:        o.At,
	})
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}

	record := &kgo.Record{Topic: s.topic, Key: []byte(o.CNPJ.String()), Value: payload, Timestamp: o.At}
	s.producer.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			if _, change := s.breaker.RecordFailure(); change.Opened {
				s.metrics.setBreakerOpen(s.Name(), true)
				s.logger.Warn("attempt sink breaker opened", "sink", s.Name())
			}
			s.metrics.incDropped(s.Name())
			s.logger.Warn("failed to deliver lookup attempt", "topic", s.topic, "error", err)
			return
		}
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.metrics.setBreakerOpen(s.Name(), false)
			s.logger.Info("attempt sink breaker closed", "sink", s.Name())
		}
	})
	return nil
}
