package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("siem-agent"),
		kong.Description("Tails local security logs and ships normalized events to a siem-collector."),
		kongVars(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
