package ordcon

import (
	"errors"
	"time"

	"github.com/BurntSushi/toml"
)

// ReclaimConfig tunes the background reclamation worker owned by a
// FineSequence. Fields are expressed in milliseconds so the struct decodes
// cleanly from a plain TOML file, mirroring the teacher's LogConfig /
// DefaultLogConfig / ValidateConfig trio.
type ReclaimConfig struct {
	// DrainIntervalMs is how often the reclaimer wakes up to run a
	// two-pass drain of the free-list when it isn't already busy.
	DrainIntervalMs int64 `toml:"drain_interval_ms"`

	// GraceIntervalMs is the delay between pass 1 (marking still-zero
	// entries) and pass 2 (freeing the entries that survived the mark).
	GraceIntervalMs int64 `toml:"grace_interval_ms"`

	// BatchSize caps how many free-list entries pass 1 inspects per wakeup,
	// bounding worst-case drain latency under heavy churn.
	BatchSize int `toml:"batch_size"`
}

// DefaultReclaimConfig returns the configuration used when a FineSequence is
// constructed without an explicit one.
func DefaultReclaimConfig() *ReclaimConfig {
	return &ReclaimConfig{
		DrainIntervalMs: 500,
		GraceIntervalMs: 250,
		BatchSize:       4096,
	}
}

// ValidateConfig reports whether cfg describes a usable reclaimer schedule.
func (cfg *ReclaimConfig) ValidateConfig() error {
	if cfg.DrainIntervalMs <= 0 {
		return errors.New("ordcon: drain_interval_ms must be positive")
	}
	if cfg.GraceIntervalMs < 0 {
		return errors.New("ordcon: grace_interval_ms must not be negative")
	}
	if cfg.BatchSize <= 0 {
		return errors.New("ordcon: batch_size must be positive")
	}
	return nil
}

// LoadReclaimConfig parses a TOML file at the given path into a
// ReclaimConfig, the same way the teacher's main.go loads its .toml test
// cases.
func LoadReclaimConfig(path string) (*ReclaimConfig, error) {
	cfg := DefaultReclaimConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *ReclaimConfig) drainInterval() time.Duration {
	return time.Duration(cfg.DrainIntervalMs) * time.Millisecond
}

func (cfg *ReclaimConfig) graceInterval() time.Duration {
	return time.Duration(cfg.GraceIntervalMs) * time.Millisecond
}
