// Package config loads and defaults the agent's and collector's TOML
// configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// AgentConfig is the configuration for cmd/siem-agent.
type AgentConfig struct {
	AgentID              string           `toml:"agent_id"`
	ServerHost           string           `toml:"server_host"`
	ServerPort           int              `toml:"server_port"`
	Database             string           `toml:"database"`
	Collection           string           `toml:"collection"`
	LogFile              string           `toml:"log_file"`
	SendIntervalSeconds  int              `toml:"send_interval_seconds"`
	BatchSize            int              `toml:"batch_size"`
	MaxBufferSize        int              `toml:"max_buffer_size"`
	PersistentBufferPath string           `toml:"persistent_buffer_path"`
	PositionStorePath    string           `toml:"position_store_path"`
	Sources              []SourceConfig   `toml:"sources"`
	ExcludePatterns      []string         `toml:"exclude_patterns"`
	Telemetry            TelemetryConfig  `toml:"telemetry"`
}

// SourceConfig names one log source the agent tails.
type SourceConfig struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// CollectorConfig is the configuration for cmd/siem-collector.
type CollectorConfig struct {
	Host              string          `toml:"host"`
	Port              int             `toml:"port"`
	DataDir           string          `toml:"data_dir"`
	WorkerCount       int             `toml:"worker_count"`
	MaxConnections    int             `toml:"max_connections"`
	DatabaseLockMillis int            `toml:"database_lock_timeout_millis"`
	NotifyURL         string          `toml:"notify_url"`
	NotifySubject     string          `toml:"notify_subject"`
	Telemetry         TelemetryConfig `toml:"telemetry"`
}

// TelemetryConfig controls optional span export, mirroring the shape of
// the ambient agent stack's own telemetry settings.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Protocol string `toml:"protocol"` // otlp, stdout, noop
}

// DefaultAgentConfig returns an AgentConfig matching the original agent's
// built-in defaults.
func DefaultAgentConfig() *AgentConfig {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &AgentConfig{
		AgentID:              "agent-" + hostname + "-01",
		ServerHost:           "127.0.0.1",
		ServerPort:           8080,
		Database:             "security_db",
		Collection:           "security_events",
		LogFile:              "/var/log/siem_agent.log",
		SendIntervalSeconds:  30,
		BatchSize:            100,
		MaxBufferSize:        1000,
		PersistentBufferPath: "/var/lib/siem_agent/buffer.jsonl",
		PositionStorePath:    "/var/lib/siem_agent/positions.json",
		Sources: []SourceConfig{
			{Name: "auditd", Path: "/var/log/audit/audit.log"},
			{Name: "syslog", Path: "/var/log/syslog"},
			{Name: "auth", Path: "/var/log/auth.log"},
			{Name: "bash_history", Path: "/home/*/.bash_history"},
		},
		Telemetry: TelemetryConfig{Protocol: "noop"},
	}
}

// LoadAgentConfig reads path as TOML over top of DefaultAgentConfig,
// falling back to defaults, with a warning on stderr, when path does not
// exist.
func LoadAgentConfig(path string) (*AgentConfig, error) {
	cfg := DefaultAgentConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: config file %s not found, using defaults\n", path)
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultAgentConfig().Sources
	}
	return cfg, nil
}

// DefaultCollectorConfig returns a CollectorConfig matching the original
// server's built-in defaults.
func DefaultCollectorConfig() *CollectorConfig {
	return &CollectorConfig{
		Host:               "0.0.0.0",
		Port:               8080,
		DataDir:            "/var/lib/siem_collector/data",
		WorkerCount:        8,
		MaxConnections:      256,
		DatabaseLockMillis: 10000,
		Telemetry:          TelemetryConfig{Protocol: "noop"},
	}
}

// LoadCollectorConfig reads path as TOML over top of
// DefaultCollectorConfig, falling back to defaults, with a warning on
// stderr, when path does not exist.
func LoadCollectorConfig(path string) (*CollectorConfig, error) {
	cfg := DefaultCollectorConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: config file %s not found, using defaults\n", path)
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Addr returns the "host:port" dial/listen address for an AgentConfig.
func (c *AgentConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Addr returns the "host:port" listen address for a CollectorConfig.
func (c *CollectorConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ExpandHome resolves a leading "~/" in path against the current user's
// home directory, mirroring the agent's bash_history glob conventions.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
