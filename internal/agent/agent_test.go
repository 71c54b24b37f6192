package agent_test

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/cairnwatch/siemguard/internal/agent"
	"github.com/cairnwatch/siemguard/internal/buffer"
	"github.com/cairnwatch/siemguard/internal/collection"
	"github.com/cairnwatch/siemguard/internal/config"
	"github.com/cairnwatch/siemguard/internal/database"
	"github.com/cairnwatch/siemguard/internal/logging"
	"github.com/cairnwatch/siemguard/internal/server"
	"github.com/cairnwatch/siemguard/internal/tailer"
)

func startTestCollector(t *testing.T, dataDir string) *server.Server {
	t.Helper()
	cfg := &config.CollectorConfig{
		Host:               "127.0.0.1",
		Port:               0,
		DataDir:            dataDir,
		WorkerCount:        2,
		MaxConnections:     16,
		DatabaseLockMillis: 2000,
	}
	reg := database.NewRegistry(dataDir)
	srv := server.New(cfg, reg, logging.New(), nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("collector Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv
}

func TestAgentCollectsAndDeliversToCollector(t *testing.T) {
	dataDir := t.TempDir()
	srv := startTestCollector(t, dataDir)
	addr := srv.Addr()
	host, port, err := splitHostPort(addr)
	if err != nil {
		t.Fatalf("splitHostPort: %v", err)
	}

	sourceDir := t.TempDir()
	logPath := filepath.Join(sourceDir, "auth.log")
	if err := os.WriteFile(logPath, []byte("Jul 22 04:26:40 host sshd[123]: Failed password for root from 10.0.0.1\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	posStore, err := tailer.OpenPositionStore(filepath.Join(sourceDir, "positions.json"))
	if err != nil {
		t.Fatalf("OpenPositionStore: %v", err)
	}
	tl := tailer.New(posStore, []tailer.Source{{Name: "auth", Path: logPath}})
	buf := buffer.New(10, filepath.Join(sourceDir, "spill.jsonl"))

	cfg := &config.AgentConfig{
		AgentID:             "agent-test",
		ServerHost:          host,
		ServerPort:          port,
		Database:            "security_db",
		Collection:          "security_events",
		SendIntervalSeconds: 0,
		BatchSize:           10,
	}

	ag := agent.New(cfg, logging.New(), tl, buf)
	if err := ag.Start(); err != nil {
		t.Fatalf("agent Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		coll, err := collection.Open(filepath.Join(dataDir, "security_db"), "security_events")
		if err == nil && coll.Size() > 0 {
			break
		}
		if time.Now().After(deadline) {
			ag.Stop()
			t.Fatalf("timed out waiting for event to reach collector")
		}
		time.Sleep(100 * time.Millisecond)
	}

	ag.Stop()

	coll, err := collection.Open(filepath.Join(dataDir, "security_db"), "security_events")
	if err != nil {
		t.Fatalf("collection.Open: %v", err)
	}
	if coll.Size() != 1 {
		t.Fatalf("expected 1 document, got %d", coll.Size())
	}
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	return host, port, err
}
