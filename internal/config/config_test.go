package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAgentConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadAgentConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadAgentConfig: %v", err)
	}
	if cfg.ServerPort != 8080 || cfg.Database != "security_db" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if len(cfg.Sources) != 4 {
		t.Fatalf("expected 4 default sources, got %d", len(cfg.Sources))
	}
}

func TestLoadAgentConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.toml")
	toml := `
agent_id = "agent-test-01"
server_host = "10.0.0.5"
server_port = 9090
database = "custom_db"

[[sources]]
name = "syslog"
path = "/var/log/syslog"
`
	if err := os.WriteFile(path, []byte(toml), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadAgentConfig(path)
	if err != nil {
		t.Fatalf("LoadAgentConfig: %v", err)
	}
	if cfg.AgentID != "agent-test-01" || cfg.ServerHost != "10.0.0.5" || cfg.ServerPort != 9090 {
		t.Fatalf("expected overrides applied, got %+v", cfg)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "syslog" {
		t.Fatalf("expected overridden sources, got %+v", cfg.Sources)
	}
	if cfg.Addr() != "10.0.0.5:9090" {
		t.Fatalf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadCollectorConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadCollectorConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadCollectorConfig: %v", err)
	}
	if cfg.Port != 8080 || cfg.WorkerCount != 8 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("Addr() = %q", cfg.Addr())
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	if got := ExpandHome("~/x"); got != filepath.Join(home, "x") {
		t.Fatalf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Fatalf("ExpandHome should not alter absolute path, got %q", got)
	}
}
