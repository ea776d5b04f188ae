package commands

import (
	"fmt"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:   "version",
		Usage:  "Show packet-analyzer version",
		Action: showVersion,
	}

	bootstrapCommands(command)
}

func showVersion(c *cli.Context) error {
	fmt.Println(config.Version)
	return nil
}
