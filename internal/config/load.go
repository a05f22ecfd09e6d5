// internal/config/load.go
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Override keys understood by ApplyOverrides.
// CLI flags and UNIFORMWATCH_* environment variables are bound to these.
const (
	KeyDetectionURL = "detection.base_url"
	KeyIntervalMs   = "poll.interval_ms"
	KeyListen       = "dashboard.listen"
	KeyLogLevel     = "log.level"
	KeyRosterDB     = "roster.db_path"
)

// Load reads a YAML config file.
// An empty path yields a zero Config; Normalize fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads a .env file if it exists. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: dotenv %s: %w", path, err)
	}
	return nil
}

// ApplyOverrides copies values set in v (flags or env) over the file config.
// Only keys that are explicitly set win; unset keys leave cfg untouched.
func ApplyOverrides(cfg *Config, v *viper.Viper) {
	if cfg == nil || v == nil {
		return
	}
	if v.IsSet(KeyDetectionURL) && v.GetString(KeyDetectionURL) != "" {
		cfg.Detection.BaseURL = v.GetString(KeyDetectionURL)
	}
	if v.IsSet(KeyIntervalMs) && v.GetInt(KeyIntervalMs) > 0 {
		cfg.Poll.IntervalMs = v.GetInt(KeyIntervalMs)
	}
	if v.IsSet(KeyListen) && v.GetString(KeyListen) != "" {
		cfg.Dashboard.Listen = v.GetString(KeyListen)
	}
	if v.IsSet(KeyLogLevel) && v.GetString(KeyLogLevel) != "" {
		cfg.Log.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyRosterDB) && v.GetString(KeyRosterDB) != "" {
		cfg.Roster.DBPath = v.GetString(KeyRosterDB)
	}
}
