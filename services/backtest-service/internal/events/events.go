package events

import (
	"context"
	"time"
)

// Event types
const (
	TypeBacktestSaved = "backtest.saved"
)

// Event announces a change to a stored backtest
type Event struct {
	Type       string    `json:"type"`
	BacktestID string    `json:"backtest_id"`
	Schema     string    `json:"schema"`
	Trades     int       `json:"trades"`
	Recomputed bool      `json:"recomputed"`
	Checksum   string    `json:"checksum"`
	SavedAt    time.Time `json:"saved_at"`
}

// Publisher delivers events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher discards every event. It is used when publishing is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
