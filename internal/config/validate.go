// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"

	"github.com/tamzrod/uniform-watch/internal/logger"
	"github.com/tamzrod/uniform-watch/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values are accepted where Normalize supplies a default.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// REMOTE DETECTION SERVICE
	// ------------------------------------------------------------

	if cfg.Detection.BaseURL != "" {
		u, err := url.Parse(cfg.Detection.BaseURL)
		if err != nil {
			return fmt.Errorf("detection.base_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("detection.base_url: scheme must be http or https, got %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("detection.base_url: host required")
		}
	}
	if cfg.Detection.TimeoutMs < 0 {
		return fmt.Errorf("detection.timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// CADENCE
	// ------------------------------------------------------------

	if cfg.Poll.IntervalMs < 0 {
		return fmt.Errorf("poll.interval_ms must be >= 0")
	}
	if cfg.Poll.IntervalMs > 0 && cfg.Poll.IntervalMs < 50 {
		return fmt.Errorf("poll.interval_ms %d is below the 50ms floor", cfg.Poll.IntervalMs)
	}
	if cfg.Stream.ReconnectMs < 0 {
		return fmt.Errorf("stream.reconnect_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// MODBUS EXPORT (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Export.IsEnabled() {
		if cfg.Export.TimeoutMs < 0 {
			return fmt.Errorf("export.timeout_ms must be >= 0")
		}
		for i := 0; i < len(cfg.Export.DeviceName); i++ {
			if cfg.Export.DeviceName[i] > 0x7F {
				return fmt.Errorf("export.device_name must contain ASCII characters only")
			}
		}
		// The whole block must fit below register 65536.
		if end := int(cfg.Export.BaseSlot)*status.SlotsPerDevice + status.SlotsPerDevice; end > 0x10000 {
			return fmt.Errorf("export.base_slot %d places the status block past register 65535", cfg.Export.BaseSlot)
		}
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}
