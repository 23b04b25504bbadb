package app

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server needs. CaptureEnabled is an explicit
// value threaded into the packager at call time; there is no process-wide
// mutable capture switch.
type Config struct {
	// Product is the default product (tenant) scope for requests that do
	// not name one.
	Product string

	// StatsRoot is where per-product archive directories live. It is not
	// created until the first archive is written.
	StatsRoot string

	// IndexPath is the bbolt database file for the failed-file index. Must
	// not live under StatsRoot, whose absence is meaningful.
	IndexPath string

	// ListenAddr is the HTTP API bind address.
	ListenAddr string

	// CaptureEnabled controls whether store operations capture analysis
	// statistics at all.
	CaptureEnabled bool

	// CaptureTimeout bounds the statistics-capture step of one store
	// operation. On expiry the capture is logged and abandoned; the
	// primary store still succeeds.
	CaptureTimeout time.Duration
}

// LoadConfig reads configuration from an optional config file plus
// CODECHECKER_* environment variables, with defaults derived from the
// workspace directory.
func LoadConfig(configFile string) (Config, error) {
	v := viper.New()
	v.SetDefault("product", "default")
	v.SetDefault("workspace", ".")
	v.SetDefault("listen_addr", "127.0.0.1:8001")
	v.SetDefault("capture_analysis_statistics", false)
	v.SetDefault("capture_timeout", "30s")

	v.SetEnvPrefix("CODECHECKER")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("codechecker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	workspace, err := filepath.Abs(v.GetString("workspace"))
	if err != nil {
		return Config{}, fmt.Errorf("resolve workspace: %w", err)
	}

	cfg := Config{
		Product:        v.GetString("product"),
		StatsRoot:      v.GetString("stats_root"),
		IndexPath:      v.GetString("index_path"),
		ListenAddr:     v.GetString("listen_addr"),
		CaptureEnabled: v.GetBool("capture_analysis_statistics"),
		CaptureTimeout: v.GetDuration("capture_timeout"),
	}
	if cfg.StatsRoot == "" {
		cfg.StatsRoot = filepath.Join(workspace, "analysis_statistics")
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = filepath.Join(workspace, "failed_files.db")
	}
	if cfg.CaptureTimeout <= 0 {
		cfg.CaptureTimeout = 30 * time.Second
	}
	return cfg, nil
}
