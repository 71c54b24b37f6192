package main

import (
	"testing"

	"github.com/alecthomas/kong"
)

func TestCLIParsesServeWithDefaults(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("siem-collector"), kongVars())
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	ctx, err := parser.Parse([]string{"serve"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ctx.Command() != "serve" {
		t.Fatalf("Command() = %q, want serve", ctx.Command())
	}
	if cli.Serve.Config != "collector.toml" {
		t.Fatalf("default config path = %q", cli.Serve.Config)
	}
}

func TestCLIParsesVersion(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("siem-collector"), kongVars())
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	if _, err := parser.Parse([]string{"version"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}
