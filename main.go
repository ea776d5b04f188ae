package main

import (
	"os"
	"runtime"

	"github.com/rayen-mansouri/packet-analyzer/commands"
	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/urfave/cli"
)

// Entry point of packet-analyzer
func main() {
	app := cli.NewApp()
	app.Name = "packet-analyzer"
	app.Usage = "Score packet captures for signs of attack."
	app.Version = config.Version

	// Define commands used with this application
	app.Commands = commands.Commands()

	runtime.GOMAXPROCS(runtime.NumCPU())
	app.Run(os.Args)
}
