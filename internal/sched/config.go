// internal/sched/config.go

package sched

import (
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors a scheduler's config.yaml (adapted from the teacher's
// mini-CFS Config: tick/slice/alpha knobs replaced with the pacing knobs
// this design actually exposes via its setters in §6).
type Config struct {
	MaxConcurrentTasks  int  `yaml:"max_concurrent_tasks"`  // 100 by default
	MaximumPeriod       int  `yaml:"maximum_period"`        // steps per Run() call when enabled
	EnableMaximumPeriod bool `yaml:"enable_maximum_period"` // off by default
	EnableLogging       bool `yaml:"enable_logging"`        // off by default

	SoftMemoryLimitMB   uint64 `yaml:"soft_memory_limit_mb"`   // 0 disables the watchdog
	MemoryCheckInterval int    `yaml:"memory_check_interval"`  // sample once per N checks

	IdlePollIntervalMS int `yaml:"idle_poll_interval_ms"` // backoff when a tick makes no progress
}

// defaultConfig mirrors the teacher's defaultConfig: the defaults a bare
// Config{} is not trusted to have, filled in before any YAML override.
func defaultConfig() Config {
	return Config{
		MaxConcurrentTasks:  100,
		MaximumPeriod:       1000,
		EnableMaximumPeriod: false,
		EnableLogging:       false,
		SoftMemoryLimitMB:   0,
		MemoryCheckInterval: 16,
		IdlePollIntervalMS:  1,
	}
}

// LoadConfig reads YAML and overrides defaults; an empty path returns
// defaults only, exactly like the teacher's Load.
func LoadConfig(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, &cfg)

	// sanity clamps, mirroring the teacher's post-unmarshal clamps
	if cfg.MaxConcurrentTasks <= 0 {
		cfg.MaxConcurrentTasks = 100
	}
	if cfg.MaximumPeriod <= 0 {
		cfg.MaximumPeriod = 1000
	}
	if cfg.MemoryCheckInterval <= 0 {
		cfg.MemoryCheckInterval = 16
	}
	if cfg.IdlePollIntervalMS < 0 {
		cfg.IdlePollIntervalMS = 0
	}

	return cfg
}

func (c Config) idlePollInterval() time.Duration {
	return time.Duration(c.IdlePollIntervalMS) * time.Millisecond
}
