package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/config"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/events"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/normalizer"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/stats"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

var (
	// ErrUnknownSeries is returned for a series type other than balance or equity
	ErrUnknownSeries = errors.New("unknown series type")
)

// SeriesKind selects a curve built from the trade list
type SeriesKind string

const (
	SeriesBalance SeriesKind = "balance"
	SeriesEquity  SeriesKind = "equity"
)

// SaveResult describes a replaced backtest document
type SaveResult struct {
	ID         string            `json:"id"`
	Schema     normalizer.Schema `json:"schema"`
	Trades     int               `json:"trades"`
	Created    bool              `json:"created"`
	Recomputed bool              `json:"recomputed"`
	Checksum   string            `json:"checksum"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// ReplaceOptions control how a document is written
type ReplaceOptions struct {
	// Recompute replaces the stored aggregates with values derived from the trades
	Recompute bool
}

// Export is a stored document ready for download
type Export struct {
	Filename string
	Data     []byte
	Checksum string
}

// BacktestService handles reading, replacing and analysing backtests
type BacktestService struct {
	store      store.Store
	publisher  events.Publisher
	jitter     float64
	thumbnails []config.ThumbnailSize
	logger     *zap.Logger

	now     func() time.Time
	newRand func() *rand.Rand
}

// NewBacktestService creates a new backtest service
func NewBacktestService(st store.Store, publisher events.Publisher, cfg *config.Config, logger *zap.Logger) *BacktestService {
	return &BacktestService{
		store:      st,
		publisher:  publisher,
		jitter:     cfg.Analysis.EquityJitter,
		thumbnails: cfg.Images.ThumbnailSizes,
		logger:     logger,
		now:        time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// load fetches and normalizes a stored document
func (s *BacktestService) load(ctx context.Context, id string) (*normalizer.Result, []byte, error) {
	data, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	res, err := normalizer.Normalize(data)
	if err != nil {
		s.logger.Error("Stored backtest is malformed",
			zap.String("backtest_id", id),
			zap.Error(err))
		return nil, nil, err
	}

	return res, data, nil
}

// Get returns the canonical form of a stored backtest
func (s *BacktestService) Get(ctx context.Context, id string) (*model.Backtest, error) {
	res, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return res.Backtest, nil
}

// Replace validates payload and stores it under id, replacing any previous
// document. Nothing is written when the payload is not a valid backtest.
// The document keeps the schema it was submitted in.
func (s *BacktestService) Replace(ctx context.Context, id string, payload []byte, opts ReplaceOptions) (*SaveResult, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}

	res, err := normalizer.Normalize(payload)
	if err != nil {
		return nil, err
	}

	data := payload
	if opts.Recompute {
		data, err = normalizer.Encode(stats.Regenerate(res.Backtest), res.Source)
		if err != nil {
			return nil, err
		}
	}

	existed, err := s.store.Exists(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, id, data); err != nil {
		s.logger.Error("Failed to store backtest",
			zap.String("backtest_id", id),
			zap.Error(err))
		return nil, err
	}

	result := &SaveResult{
		ID:         id,
		Schema:     res.Source.Schema,
		Trades:     len(res.Backtest.Trades),
		Created:    !existed,
		Recomputed: opts.Recompute,
		Checksum:   checksum(data),
		Warnings:   res.Warnings,
	}

	if len(result.Warnings) > 0 {
		s.logger.Warn("Backtest has mistyped trade values",
			zap.String("backtest_id", id),
			zap.Strings("warnings", result.Warnings))
	}

	s.logger.Info("Backtest stored",
		zap.String("backtest_id", id),
		zap.String("schema", string(result.Schema)),
		zap.Int("trades", result.Trades),
		zap.Bool("created", result.Created))

	evt := events.Event{
		Type:       events.TypeBacktestSaved,
		BacktestID: id,
		Schema:     string(result.Schema),
		Trades:     result.Trades,
		Recomputed: result.Recomputed,
		Checksum:   result.Checksum,
		SavedAt:    s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("Failed to publish backtest event",
			zap.String("backtest_id", id),
			zap.Error(err))
	}

	return result, nil
}

// Export returns the stored document as written, with a content-addressed
// file name
func (s *BacktestService) Export(ctx context.Context, id string) (*Export, error) {
	data, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sum := checksum(data)
	return &Export{
		Filename: fmt.Sprintf("backtest-%s-%s.json", id, sum[:16]),
		Data:     data,
		Checksum: sum,
	}, nil
}

// Analyze computes every derived view of a stored backtest in one pass
func (s *BacktestService) Analyze(ctx context.Context, id string) (*stats.Report, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return stats.Compute(b.Trades, s.params(b)), nil
}

// Series returns the balance or equity curve of a stored backtest
func (s *BacktestService) Series(ctx context.Context, id string, kind SeriesKind) ([]stats.Point, error) {
	if kind != SeriesBalance && kind != SeriesEquity {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSeries, kind)
	}

	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p := s.params(b)
	if kind == SeriesEquity {
		return stats.EquitySeries(b.Trades, p), nil
	}
	return stats.BalanceSeries(b.Trades, p), nil
}

func (s *BacktestService) params(b *model.Backtest) stats.Params {
	p := stats.ParamsFromConfig(b.Config)
	p.Jitter = stats.UniformJitter(s.jitter, s.newRand())
	return p
}

func checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
