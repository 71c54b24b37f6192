package main

import (
	"testing"

	"github.com/alecthomas/kong"
)

func TestCLIParsesRunWithDefaults(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("siem-agent"), kongVars())
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	ctx, err := parser.Parse([]string{"run"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ctx.Command() != "run" {
		t.Fatalf("Command() = %q, want run", ctx.Command())
	}
	if cli.Run.Config != "agent.toml" {
		t.Fatalf("default config path = %q", cli.Run.Config)
	}
}

func TestCLIParsesInspectRequiresPath(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("siem-agent"), kongVars())
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	if _, err := parser.Parse([]string{"inspect"}); err == nil {
		t.Fatalf("expected error for missing required path arg")
	}
	if _, err := parser.Parse([]string{"inspect", "agent.toml"}); err != nil {
		t.Fatalf("Parse with path: %v", err)
	}
}
