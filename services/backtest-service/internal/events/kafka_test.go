package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/config"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	failures int
	calls    int
	msgs     []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	if w.calls <= w.failures {
		return errors.New("broker unavailable")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testEvent() Event {
	return Event{
		Type:       TypeBacktestSaved,
		BacktestID: "run-1",
		Schema:     "new",
		Trades:     2,
		Checksum:   "abc",
		SavedAt:    time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "backtest-events", 2, zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "run-1", string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, TypeBacktestSaved, string(msg.Headers[0].Value))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, testEvent(), got)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_Retries(t *testing.T) {
	w := &fakeWriter{failures: 1}
	p := newKafkaPublisher(w, "backtest-events", 2, zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	assert.Equal(t, 2, w.calls)
	assert.Len(t, w.msgs, 1)
}

func TestKafkaPublisher_GivesUp(t *testing.T) {
	w := &fakeWriter{failures: 10}
	p := newKafkaPublisher(w, "backtest-events", 1, zap.NewNop())

	err := p.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.Equal(t, 2, w.calls)
	assert.Empty(t, w.msgs)
}

func TestNewPublisher(t *testing.T) {
	assert.IsType(t, NopPublisher{}, NewPublisher(&config.EventsConfig{}, zap.NewNop()))

	p := NewPublisher(&config.EventsConfig{
		Enabled: true,
		Brokers: []string{"localhost:9092"},
		Topic:   "backtest-events",
	}, zap.NewNop())
	assert.IsType(t, &KafkaPublisher{}, p)
}
