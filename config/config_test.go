package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_ParsesMemoryAndBridgeSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
memory:
  backend: sqlite
  sqlite:
    path: ./data/memory.db
    poolSize: 4
    statementTimeout: 30s
bridge:
  pollIntervalMs: 200
  timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, BackendSqlite, cfg.Memory.Backend)
	require.Equal(t, "./data/memory.db", cfg.Memory.Sqlite.Path)
	require.Equal(t, 4, cfg.Memory.Sqlite.PoolSize)
	require.Equal(t, 200, cfg.Bridge.PollIntervalMs)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
}
