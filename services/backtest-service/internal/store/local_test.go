package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocalStore(&config.LocalStorageConfig{BasePath: dir, Permissions: "0600"})
	require.NoError(t, err)
	return s, dir
}

func TestLocalStore_PutGet(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "run-1", []byte(`{"a":1}`)))

	data, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	info, err := os.Stat(filepath.Join(dir, "run-1.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLocalStore_PutReplaces(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "run", []byte("first")))
	require.NoError(t, s.Put(ctx, "run", []byte("second")))

	data, err := s.Get(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestLocalStore_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "missing", []byte("{}")))
	ok, err = s.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalStore_InvalidID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "../etc/passwd", "a/b", "a..b", ".hidden", "white space"} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
		assert.ErrorIs(t, s.Put(ctx, id, []byte("{}")), ErrInvalidID, id)
	}
}

func TestNewLocalStore_BadPermissions(t *testing.T) {
	_, err := NewLocalStore(&config.LocalStorageConfig{BasePath: t.TempDir(), Permissions: "rw"})
	assert.Error(t, err)
}

func TestNewStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Local.BasePath = t.TempDir()

	s, err := NewStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	cfg.Storage.Type = "ftp"
	_, err = NewStore(cfg)
	assert.Error(t, err)

	cfg.Storage.Type = "s3"
	_, err = NewStore(cfg)
	assert.Error(t, err, "bucket is required")
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("EURUSD_2024-01.v2"))
	assert.ErrorIs(t, ValidateID("x..y"), ErrInvalidID)
}
