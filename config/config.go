// Package config holds the compile-time capacity constants of the OSAL
// object tables. A board-support build can override the defaults from a
// YAML document instead of recompiling, the way the original's OS_MAX_*
// macros are overridden per target.
package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v2"
)

// Config holds every fixed registry capacity plus the shared name-buffer
// limit. Zero values are invalid; use Default to get the built-in sizes.
type Config struct {
	MaxTasks           int `yaml:"max_tasks"`
	MaxQueues          int `yaml:"max_queues"`
	MaxBinSemaphores   int `yaml:"max_bin_semaphores"`
	MaxCountSemaphores int `yaml:"max_count_semaphores"`
	MaxMutexes         int `yaml:"max_mutexes"`
	MaxTimers          int `yaml:"max_timers"`

	// MaxAPIName is the name buffer size including the terminator; the
	// longest legal name is MaxAPIName-1 bytes.
	MaxAPIName int `yaml:"max_api_name"`
}

// Default returns the built-in configuration, matching the sizes the
// reference FreeRTOS port ships with.
func Default() Config {
	return Config{
		MaxTasks:           32,
		MaxQueues:          32,
		MaxBinSemaphores:   32,
		MaxCountSemaphores: 32,
		MaxMutexes:         32,
		MaxTimers:          32,
		MaxAPIName:         32,
	}
}

// Load reads a YAML document into a copy of Default, so a partial document
// (e.g. just max_timers) only overrides the fields it names.
func Load(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports whether every capacity is positive.
func (c Config) Validate() error {
	fields := map[string]int{
		"max_tasks":            c.MaxTasks,
		"max_queues":           c.MaxQueues,
		"max_bin_semaphores":   c.MaxBinSemaphores,
		"max_count_semaphores": c.MaxCountSemaphores,
		"max_mutexes":          c.MaxMutexes,
		"max_timers":           c.MaxTimers,
		"max_api_name":         c.MaxAPIName,
	}
	for name, v := range fields {
		if v <= 0 {
			return fmt.Errorf("config: %s must be positive, got %d", name, v)
		}
	}
	if c.MaxAPIName < 2 {
		return fmt.Errorf("config: max_api_name must be at least 2, got %d", c.MaxAPIName)
	}
	return nil
}
