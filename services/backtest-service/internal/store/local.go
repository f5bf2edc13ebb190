package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/config"
)

// LocalStore implements the Store interface on the local filesystem,
// one <id>.json file per backtest under basePath.
type LocalStore struct {
	basePath    string
	permissions os.FileMode
}

// NewLocalStore creates a new LocalStore
func NewLocalStore(cfg *config.LocalStorageConfig) (*LocalStore, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	perms := uint64(0644)
	if cfg.Permissions != "" {
		p, err := strconv.ParseUint(cfg.Permissions, 8, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid permissions format: %w", err)
		}
		perms = p
	}

	return &LocalStore{
		basePath:    cfg.BasePath,
		permissions: os.FileMode(perms),
	}, nil
}

// Path returns the file a backtest id is stored at
func (s *LocalStore) Path(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, documentName(id)), nil
}

// Get reads a backtest document from disk
func (s *LocalStore) Get(ctx context.Context, id string) ([]byte, error) {
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read backtest file: %w", err)
	}

	return data, nil
}

// Put writes a backtest document, replacing any previous version.
// The file is written to a temporary name and renamed so readers never see
// a partially written document.
func (s *LocalStore) Put(ctx context.Context, id string, data []byte) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.basePath, "."+id+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write backtest file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close backtest file: %w", err)
	}

	// Set file permissions
	if err := os.Chmod(tmpName, s.permissions); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace backtest file: %w", err)
	}

	return nil
}

// Exists reports whether a backtest file is present
func (s *LocalStore) Exists(ctx context.Context, id string) (bool, error) {
	path, err := s.Path(id)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat backtest file: %w", err)
	}
}
