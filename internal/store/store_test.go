package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/traktrelay/traktrelay/internal/config"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLUsesRawValue", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("URLWithExistingQuery", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io?foo=bar",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123&foo=bar", dsn)
	})

	t.Run("URLWithoutToken", func(t *testing.T) {
		cfg := config.StoreConfig{URL: "libsql://example.turso.io"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io", dsn)
	})

	t.Run("PathCreatesDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "audit.db")
		cfg := config.StoreConfig{Path: path}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:"+path, dsn)
	})

	t.Run("EmptyConfigRejected", func(t *testing.T) {
		_, err := buildLibsqlDSN(config.StoreConfig{})
		require.Error(t, err)
	})
}

func TestStoreNilSafety(t *testing.T) {
	var s *Store

	require.NoError(t, s.Close())
	require.Equal(t, "", s.Driver())
	require.Error(t, s.CheckHealth(nil))

	_, err := s.ListRejections(nil, RejectionQuery{})
	require.Error(t, err)
}
