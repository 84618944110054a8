package config

import (
	"strings"
	"time"
)

// Config is chorewheel's on-disk configuration. YAML and JSON are both
// accepted; unknown fields are rejected.
type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Generate GenerateConfig `json:"generate"`
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"` // trace|debug|info|warn|error
	Console bool       `json:"console"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// StorageConfig selects the persistence backend.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./chorewheel.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// GenerateConfig controls the scheduled generation runs of the serve mode.
//
// Schedule is a robfig/cron spec ("0 3 * * *" = daily at 03:00). Durations
// are Go duration strings.
type GenerateConfig struct {
	Enabled     bool     `json:"enabled"`
	Schedule    string   `json:"schedule,omitempty"` // default "0 3 * * *"
	Timezone    string   `json:"timezone,omitempty"` // IANA TZ, e.g. "Europe/Berlin"
	HorizonDays int      `json:"horizon_days,omitempty"`
	Households  []string `json:"households"`

	// MinInterval throttles how often a run may be triggered, whatever the
	// trigger source. "0s" disables the throttle.
	MinInterval string `json:"min_interval,omitempty"`
}

// Defaults applied by Normalize.
const (
	DefaultSchedule    = "0 3 * * *"
	DefaultHorizonDays = 14
	DefaultMinInterval = time.Minute
)

// Normalize fills defaults in place.
func (c *Config) Normalize() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "./chorewheel.db"
	}
	if c.Generate.Schedule == "" {
		c.Generate.Schedule = DefaultSchedule
	}
	if c.Generate.HorizonDays <= 0 {
		c.Generate.HorizonDays = DefaultHorizonDays
	}
}

// BusyTimeoutDuration parses the sqlite busy timeout field.
func (c *Config) BusyTimeoutDuration() (time.Duration, error) {
	return ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout)
}

// MinIntervalDuration parses the generation trigger throttle. An unset
// field falls back to the default; an explicit "0s" disables the throttle.
func (c *Config) MinIntervalDuration() (time.Duration, error) {
	if strings.TrimSpace(c.Generate.MinInterval) == "" {
		return DefaultMinInterval, nil
	}
	return ParseDurationField("generate.min_interval", c.Generate.MinInterval)
}
