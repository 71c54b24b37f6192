package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/cairnwatch/siemguard/internal/config"
	"github.com/cairnwatch/siemguard/internal/event"
)

const inspectWidth = 100

// Run pretty-prints a TOML config file or a JSON-lines spill buffer,
// auto-detecting by extension.
func (i *InspectCmd) Run() error {
	if strings.HasSuffix(i.Path, ".toml") {
		return inspectConfig(i.Path)
	}
	return inspectBuffer(i.Path)
}

func inspectConfig(path string) error {
	cfg, err := config.LoadAgentConfig(path)
	if err != nil {
		return err
	}
	lines := []string{
		fmt.Sprintf("agent_id:       %s", cfg.AgentID),
		fmt.Sprintf("collector:      %s", cfg.Addr()),
		fmt.Sprintf("database:       %s.%s", cfg.Database, cfg.Collection),
		fmt.Sprintf("send_interval:  %ds", cfg.SendIntervalSeconds),
		fmt.Sprintf("batch_size:     %d", cfg.BatchSize),
		fmt.Sprintf("max_buffer:     %d", cfg.MaxBufferSize),
		fmt.Sprintf("log_file:       %s", cfg.LogFile),
		"sources:",
	}
	for _, s := range cfg.Sources {
		lines = append(lines, fmt.Sprintf("  - %-14s %s", s.Name, s.Path))
	}
	fmt.Println(wordwrap.String(strings.Join(lines, "\n"), inspectWidth))
	return nil
}

func inspectBuffer(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		e, err := event.FromJSON(line)
		if err != nil {
			fmt.Printf("[%d] (unparseable: %v)\n", i, err)
			continue
		}
		fmt.Println(wordwrap.String(formatEvent(e), inspectWidth))
		fmt.Println(strings.Repeat("-", 40))
	}
	return nil
}

func formatEvent(e event.SecurityEvent) string {
	return strings.Join([]string{
		fmt.Sprintf("timestamp:  %s", e.Timestamp),
		fmt.Sprintf("source:     %s", e.Source),
		fmt.Sprintf("event_type: %s", e.EventType),
		fmt.Sprintf("severity:   %s", e.Severity),
		fmt.Sprintf("user:       %s", e.User),
		fmt.Sprintf("process:    %s", e.Process),
		fmt.Sprintf("command:    %s", e.Command),
		fmt.Sprintf("raw_log:    %s", e.RawLog),
	}, "\n")
}
