package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SCAN_WORKERS", "8")
	t.Setenv("ENGINE_CACHE_TTL", "2m")
	t.Setenv("LOG_JSON", "false")
	t.Cleanup(Load)

	Load()

	assert.Equal(t, 8, ScanWorkers)
	assert.Equal(t, 2*time.Minute, EngineCacheTTL)
	assert.False(t, LogJSON)
	assert.Equal(t, 100, ScanPageSize)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("BATCH_MAX_SIZE", "lots")
	t.Cleanup(Load)

	Load()

	assert.Equal(t, 100, BatchMaxSize)
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	fc, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, fc.Extensions)
	assert.False(t, fc.CheckerDisabled("widgets"))
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orphaned-media.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
extensions:
  woocommerce: true
  oxygen: false
disabledCheckers:
  - user_meta
scan:
  workers: 6
batch:
  maxSize: 40
`), 0o644))
	t.Cleanup(Load)

	fc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"woocommerce": true, "oxygen": false}, fc.Extensions)
	assert.True(t, fc.CheckerDisabled("user_meta"))

	fc.Apply()
	assert.Equal(t, 6, ScanWorkers)
	assert.Equal(t, 40, BatchMaxSize)
}

func TestLoadFileRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extensions: [unclosed"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
