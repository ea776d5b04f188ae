package commands

import (
	"github.com/rayen-mansouri/packet-analyzer/pkg/analysis"
	"github.com/rayen-mansouri/packet-analyzer/reporting"
	"github.com/urfave/cli"
)

func init() {
	bootstrapCommands(
		showCommand("show-threats", "Print detected threats", "No threats were found in ", reporting.ThreatTable),
		showCommand("show-hosts", "Print the hosts of the network graph", "No hosts were found in ", reporting.HostTable),
		showCommand("show-timeline", "Print the traffic timeline", "No traffic was found in ", reporting.TimelineTable),
	)
}

// showCommand builds a command printing one table of a saved analysis
func showCommand(name, usage, empty string, build func(*analysis.Result) reporting.Table) cli.Command {
	return cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<analysis.json>",
		Flags: []cli.Flag{
			humanFlag,
		},
		Action: func(c *cli.Context) error {
			path := c.Args().Get(0)
			if path == "" {
				return cli.NewExitError("Specify an analysis file", -1)
			}

			env, err := loadAnalysis(path)
			if err != nil {
				return cli.NewExitError(err.Error(), -1)
			}

			table := build(env.Result)
			if len(table.Rows) == 0 {
				return cli.NewExitError(empty+path, -1)
			}

			if c.Bool("human-readable") {
				err = renderHuman(table)
			} else {
				err = renderCSV(table)
			}
			if err != nil {
				return cli.NewExitError(err.Error(), -1)
			}
			return nil
		},
	}
}
