// Package main is the entry point for the siem-agent CLI.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface for siem-agent.
type CLI struct {
	Run     RunCmd     `cmd:"" default:"withargs" help:"Tail configured log sources and ship events to a collector"`
	Watch   WatchCmd   `cmd:"" help:"Live dashboard of buffer and send activity"`
	Inspect InspectCmd `cmd:"" help:"Pretty-print a config file or spill buffer"`
	Setup   SetupCmd   `cmd:"" help:"Interactive setup wizard"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// RunCmd starts the agent and blocks until interrupted.
type RunCmd struct {
	Config string `short:"c" default:"agent.toml" help:"Path to the agent's TOML config file"`
	Env    string `default:".env" help:"Path to a .env file with credential overrides"`
}

// WatchCmd opens a live terminal dashboard over the agent's spill buffer.
type WatchCmd struct {
	BufferPath string `arg:"" optional:"" default:"/var/lib/siem_agent/buffer.jsonl" help:"Spill buffer file to watch"`
}

// InspectCmd pretty-prints a config file or spill buffer.
type InspectCmd struct {
	Path string `arg:"" help:"Config (.toml) or spill buffer (.jsonl) file to inspect"`
}

// SetupCmd runs the interactive setup wizard.
type SetupCmd struct {
	Output string `short:"o" default:"agent.toml" help:"Where to write the generated config"`
}

// VersionCmd prints build information.
type VersionCmd struct{}

func kongVars() kong.Vars {
	return kong.Vars{"version": version}
}
