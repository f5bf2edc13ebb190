package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the subset of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher produces events as JSON messages keyed by backtest id
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	retries uint64
	logger  *zap.Logger
}

// NewKafkaPublisher creates a publisher writing to the configured topic
func NewKafkaPublisher(cfg *config.EventsConfig, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		Transport: &kafka.Transport{
			ClientID: cfg.ClientID,
		},
	}

	return newKafkaPublisher(writer, cfg.Topic, cfg.Retries, logger)
}

func newKafkaPublisher(w messageWriter, topic string, retries uint64, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  w,
		topic:   topic,
		retries: retries,
		logger:  logger,
	}
}

// Publish sends an event, retrying transient failures with backoff
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(evt.BacktestID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
		Time: evt.SavedAt,
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second

	err = backoff.RetryNotify(func() error {
		return p.writer.WriteMessages(ctx, msg)
	}, backoff.WithContext(backoff.WithMaxRetries(b, p.retries), ctx), func(err error, wait time.Duration) {
		p.logger.Warn("Retrying event publish",
			zap.String("topic", p.topic),
			zap.String("key", evt.BacktestID),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published",
		zap.String("topic", p.topic),
		zap.String("type", evt.Type),
		zap.String("key", evt.BacktestID))

	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewPublisher returns a Kafka publisher when events are enabled and a
// NopPublisher otherwise
func NewPublisher(cfg *config.EventsConfig, logger *zap.Logger) Publisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(cfg, logger)
}
