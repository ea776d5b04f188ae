package commands

import (
	"github.com/urfave/cli"
)

var allCommands []cli.Command

// humanFlag switches list output from CSV to an aligned table
var humanFlag = cli.BoolFlag{
	Name:  "human-readable, H",
	Usage: "print a table instead of CSV/JSON",
}

// configFlag selects an alternate config file
var configFlag = cli.StringFlag{
	Name:  "config, c",
	Usage: "specify a config file to be used",
	Value: "",
}

// bootstrapCommands registers a command, called from each command's init
func bootstrapCommands(commands ...cli.Command) {
	allCommands = append(allCommands, commands...)
}

// Commands provides all of the defined commands to the front end
func Commands() []cli.Command {
	return allCommands
}
