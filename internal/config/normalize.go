// internal/config/normalize.go
package config

import "strings"

const (
	DefaultBaseURL     = "http://localhost:5000"
	DefaultIntervalMs  = 1000
	DefaultReconnectMs = 2000
	DefaultListen      = ":8090"
	DefaultRosterDB    = "roster.db"
	DefaultExportMs    = 500
	DefaultLogLevel    = "info"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Detection.BaseURL == "" {
		cfg.Detection.BaseURL = DefaultBaseURL
	}
	cfg.Detection.BaseURL = strings.TrimRight(cfg.Detection.BaseURL, "/")

	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}

	// A request may not outlive its tick.
	if cfg.Detection.TimeoutMs == 0 || cfg.Detection.TimeoutMs > cfg.Poll.IntervalMs {
		cfg.Detection.TimeoutMs = cfg.Poll.IntervalMs
	}

	if cfg.Stream.ReconnectMs == 0 {
		cfg.Stream.ReconnectMs = DefaultReconnectMs
	}
	if cfg.Dashboard.Listen == "" {
		cfg.Dashboard.Listen = DefaultListen
	}
	if cfg.Roster.DBPath == "" {
		cfg.Roster.DBPath = DefaultRosterDB
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}

	if cfg.Export.IsEnabled() {
		if cfg.Export.TimeoutMs == 0 {
			cfg.Export.TimeoutMs = DefaultExportMs
		}
		// Truncate to max 16 characters
		if len(cfg.Export.DeviceName) > 16 {
			cfg.Export.DeviceName = cfg.Export.DeviceName[:16]
		}
	}
}
