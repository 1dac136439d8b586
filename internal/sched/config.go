package sched

import (
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors postq.yaml, tuning the scheduler's host-loop behavior.
// IdleSliceMS and ImmediateBuffer feed directly into host.NewLoop's
// host.LoopConfig; see cmd/postq for the wiring.
type Config struct {
	// IdleSliceMS bounds how long ScheduleIdle waits before falling back
	// to an immediate post, standing in for the deadline a real
	// requestIdleCallback would hand its callback.
	IdleSliceMS int `yaml:"idle_slice_ms"` // 5 (by default)
	// ImmediateBuffer sizes the immediate-tick broker's self-pipe.
	ImmediateBuffer int `yaml:"immediate_buffer"` // 256 (by default)
	// DefaultPriority names the priority used when postTask is called
	// with neither an explicit priority nor a priority-aware signal.
	DefaultPriority string `yaml:"default_priority"` // "user-visible" (by default)
}

// defaultConfig returns the values used when no config file is found.
func defaultConfig() Config {
	return Config{
		IdleSliceMS:     5,
		ImmediateBuffer: 256,
		DefaultPriority: "user-visible",
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, &cfg)

	// sanity clamps
	if cfg.IdleSliceMS <= 0 {
		cfg.IdleSliceMS = 5
	}
	if cfg.ImmediateBuffer <= 0 {
		cfg.ImmediateBuffer = 256
	}
	if cfg.DefaultPriority == "" {
		cfg.DefaultPriority = "user-visible"
	}

	return cfg
}
