package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/config"
)

var (
	// ErrNotFound is returned when no document exists for an id
	ErrNotFound = errors.New("backtest not found")
	// ErrInvalidID is returned for ids that cannot be mapped to a document path
	ErrInvalidID = errors.New("invalid backtest id")
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Store defines whole-document persistence of backtests keyed by id
type Store interface {
	// Get returns the stored document bytes
	Get(ctx context.Context, id string) ([]byte, error)

	// Put replaces the document stored under id
	Put(ctx context.Context, id string, data []byte) error

	// Exists reports whether a document is stored under id
	Exists(ctx context.Context, id string) (bool, error)
}

// NewStore creates a new store implementation based on the configuration
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Type {
	case "s3":
		return NewS3Store(&cfg.Storage.S3)
	case "local", "":
		return NewLocalStore(&cfg.Storage.Local)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}
}

// ValidateID checks that an id is safe to use as a file name or object key
func ValidateID(id string) error {
	if !idPattern.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func documentName(id string) string {
	return id + ".json"
}
