package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cairnwatch/siemguard/internal/config"
	"github.com/cairnwatch/siemguard/internal/database"
	"github.com/cairnwatch/siemguard/internal/logging"
	"github.com/cairnwatch/siemguard/internal/notify"
	"github.com/cairnwatch/siemguard/internal/server"
)

// Run loads the collector config, wires up the registry/notifier/server,
// and blocks until SIGINT/SIGTERM.
func (c *ServeCmd) Run() error {
	if _, err := os.Stat(c.Env); err == nil {
		_ = loadDotEnv(c.Env)
	}

	cfg, err := config.LoadCollectorConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New().WithComponent("collector")

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	registry := database.NewRegistry(cfg.DataDir)

	notifier := notify.New(cfg.NotifyURL, cfg.NotifySubject, log)
	defer notifier.Close()

	srv := server.New(cfg, registry, log, notifier)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	srv.Stop()
	return nil
}
