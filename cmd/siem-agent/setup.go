package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cairnwatch/siemguard/internal/config"
)

// Run interactively builds an AgentConfig from stdin prompts and writes it
// to Output as TOML.
func (s *SetupCmd) Run() error {
	reader := bufio.NewReader(os.Stdin)
	cfg := config.DefaultAgentConfig()

	cfg.AgentID = prompt(reader, "Agent ID", cfg.AgentID)
	cfg.ServerHost = prompt(reader, "Collector host", cfg.ServerHost)
	cfg.ServerPort = promptInt(reader, "Collector port", cfg.ServerPort)
	cfg.Database = prompt(reader, "Database name", cfg.Database)
	cfg.Collection = prompt(reader, "Collection name", cfg.Collection)
	cfg.SendIntervalSeconds = promptInt(reader, "Send interval (seconds)", cfg.SendIntervalSeconds)
	cfg.BatchSize = promptInt(reader, "Batch size", cfg.BatchSize)

	f, err := os.Create(s.Output)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.Output, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("write %s: %w", s.Output, err)
	}

	fmt.Printf("Wrote config to %s\n", s.Output)
	return nil
}

func prompt(r *bufio.Reader, label, def string) string {
	fmt.Printf("%s [%s]: ", label, def)
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func promptInt(r *bufio.Reader, label string, def int) int {
	raw := prompt(r, label, strconv.Itoa(def))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
