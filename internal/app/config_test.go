package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	ws := t.TempDir()
	t.Setenv("CODECHECKER_WORKSPACE", ws)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Product)
	assert.Equal(t, "127.0.0.1:8001", cfg.ListenAddr)
	assert.False(t, cfg.CaptureEnabled)
	assert.Equal(t, 30*time.Second, cfg.CaptureTimeout)
	assert.Equal(t, filepath.Join(ws, "analysis_statistics"), cfg.StatsRoot)
	assert.Equal(t, filepath.Join(ws, "failed_files.db"), cfg.IndexPath)

	// The index file must not live under the stats root, whose absence
	// signals "nothing captured".
	rel, err := filepath.Rel(cfg.StatsRoot, cfg.IndexPath)
	require.NoError(t, err)
	assert.False(t, filepath.IsLocal(rel),
		"index path %s must be outside stats root %s", cfg.IndexPath, cfg.StatsRoot)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	ws := t.TempDir()
	t.Setenv("CODECHECKER_WORKSPACE", ws)
	t.Setenv("CODECHECKER_PRODUCT", "myproduct")
	t.Setenv("CODECHECKER_LISTEN_ADDR", "127.0.0.1:9999")
	t.Setenv("CODECHECKER_CAPTURE_ANALYSIS_STATISTICS", "true")
	t.Setenv("CODECHECKER_CAPTURE_TIMEOUT", "5s")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "myproduct", cfg.Product)
	assert.Equal(t, "127.0.0.1:9999", cfg.ListenAddr)
	assert.True(t, cfg.CaptureEnabled)
	assert.Equal(t, 5*time.Second, cfg.CaptureTimeout)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codechecker.yaml")
	content := "product: fileproduct\n" +
		"workspace: " + dir + "\n" +
		"capture_analysis_statistics: true\n" +
		"stats_root: " + filepath.Join(dir, "stats") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "fileproduct", cfg.Product)
	assert.True(t, cfg.CaptureEnabled)
	assert.Equal(t, filepath.Join(dir, "stats"), cfg.StatsRoot)
	assert.Equal(t, filepath.Join(dir, "failed_files.db"), cfg.IndexPath)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_ZeroTimeoutFallsBack(t *testing.T) {
	ws := t.TempDir()
	t.Setenv("CODECHECKER_WORKSPACE", ws)
	t.Setenv("CODECHECKER_CAPTURE_TIMEOUT", "0s")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.CaptureTimeout)
}
