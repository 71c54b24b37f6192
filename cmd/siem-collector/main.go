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
		kong.Name("siem-collector"),
		kong.Description("Accepts insert/find/delete requests from siem-agent instances and persists documents to disk."),
		kongVars(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
