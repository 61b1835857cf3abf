package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"receitanet-engine/internal/config"
	"receitanet-engine/internal/logging"
)

func resolveDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	return config.DataDir()
}

// loadConfig bootstraps, loads, overlays and validates the configuration.
// Warnings are returned for the caller to log.
func loadConfig(o config.Overrides) (config.Config, config.Validation, error) {
	dir, err := resolveDataDir()
	if err != nil {
		return config.Config{}, config.Validation{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return config.Config{}, config.Validation{}, fmt.Errorf("data dir: %w", err)
	}
	if _, _, err := config.EnsureUserConfig(dir); err != nil {
		return config.Config{}, config.Validation{}, fmt.Errorf("config bootstrap failed: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return cfg, config.Validation{}, err
	}
	o.LogLevel, o.LogFormat = logLevel, logFormat
	config.Overlay(&cfg, o)
	cfg, v := config.NormalizeAndValidate(cfg)
	return cfg, v, nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(logging.Config{Level: cfg.Settings.Log.Level, Format: cfg.Settings.Log.Format})
}
