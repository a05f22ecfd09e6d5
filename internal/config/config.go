// internal/config/config.go
package config

type Config struct {
	Detection DetectionConfig `yaml:"detection"`
	Poll      PollConfig      `yaml:"poll"`
	Stream    StreamConfig    `yaml:"stream"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Roster    RosterConfig    `yaml:"roster"`
	Session   SessionConfig   `yaml:"session"`
	Export    ExportConfig    `yaml:"export"`
	Log       LogConfig       `yaml:"log"`
}

// ---- REMOTE DETECTION SERVICE ----

type DetectionConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- VIDEO FEED ----

type StreamConfig struct {
	// Enabled is a pointer so an absent key defaults to true.
	Enabled     *bool `yaml:"enabled"`
	ReconnectMs int   `yaml:"reconnect_ms"`
}

func (s StreamConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// ---- LOCAL DASHBOARD ----

type DashboardConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

func (d DashboardConfig) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// ---- ROSTER ----

type RosterConfig struct {
	DBPath string `yaml:"db_path"`
}

// ---- SESSION ----

// SessionConfig seeds the static identity used when no external provider is wired.
type SessionConfig struct {
	User  string `yaml:"user"`
	Email string `yaml:"email"`
}

// ---- MODBUS STATUS EXPORT (optional, opt-in) ----

type ExportConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	BaseSlot   uint16 `yaml:"base_slot"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	DeviceName string `yaml:"device_name"`
}

func (e ExportConfig) IsEnabled() bool {
	return e.Endpoint != ""
}

// ---- LOGGING ----

type LogConfig struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}
