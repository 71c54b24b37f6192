// Package main is the entry point for the siem-collector server.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface for siem-collector.
type CLI struct {
	Serve   ServeCmd   `cmd:"" default:"withargs" help:"Start the collector server"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// ServeCmd starts the collector's TCP listener and worker pool.
type ServeCmd struct {
	Config string `short:"c" default:"collector.toml" help:"Path to the collector's TOML config file"`
	Env    string `default:".env" help:"Path to a .env file with credential overrides"`
}

// VersionCmd prints build information.
type VersionCmd struct{}

func kongVars() kong.Vars {
	return kong.Vars{"version": version}
}
