package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cairnwatch/siemguard/internal/agent"
	"github.com/cairnwatch/siemguard/internal/buffer"
	"github.com/cairnwatch/siemguard/internal/config"
	"github.com/cairnwatch/siemguard/internal/logging"
	"github.com/cairnwatch/siemguard/internal/tailer"
)

// Run loads the agent config, wires up the tailer and buffer, starts the
// agent, and blocks until SIGINT/SIGTERM.
func (r *RunCmd) Run() error {
	_ = godotenvLoadIfPresent(r.Env)

	cfg, err := config.LoadAgentConfig(r.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.WithFileTee(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	log = log.WithComponent("agent")

	posStore, err := tailer.OpenPositionStore(cfg.PositionStorePath)
	if err != nil {
		return fmt.Errorf("open position store: %w", err)
	}

	sources := make([]tailer.Source, len(cfg.Sources))
	for i, s := range cfg.Sources {
		sources[i] = tailer.Source{Name: s.Name, Path: config.ExpandHome(s.Path)}
	}
	t := tailer.New(posStore, sources)
	buf := buffer.New(cfg.MaxBufferSize, cfg.PersistentBufferPath)

	ag := agent.New(cfg, log, t, buf)
	if err := ag.Start(); err != nil {
		return fmt.Errorf("start agent: %w", err)
	}

	log.Info("agent_running", map[string]interface{}{"agent_id": cfg.AgentID, "sources": len(sources)})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	ag.Stop()
	return nil
}
