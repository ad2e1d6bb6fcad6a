// Package config holds the run-level scalar configuration: fee rates,
// slippage, initial equity, and worker-pool sizing. Strategy parameters
// (TP/SL/size/expiration) are never configured here — they travel with the
// bar series as per-signal arrays per the engine's data model.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// RunConfig is the scalar parameter set a single backtest run needs.
type RunConfig struct {
	EntryFeeRate  float64 `yaml:"entry_fee_rate"`
	ExitFeeRate   float64 `yaml:"exit_fee_rate"`
	SlippageRate  float64 `yaml:"slippage_rate"`
	InitialEquity float64 `yaml:"initial_equity"`
	Workers       int     `yaml:"workers"`
}

// Default returns a zero-cost, zero-slippage config sized to the host's
// CPU count, suitable for unit tests and quick CLI runs.
func Default() RunConfig {
	return RunConfig{
		InitialEquity: 1000,
		Workers:       runtime.NumCPU(),
	}
}

// Load reads a RunConfig from a YAML file, filling any zero Workers with
// the host's CPU count.
func Load(path string) (RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	return cfg, nil
}
