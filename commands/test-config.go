package commands

import (
	"fmt"
	"os"

	"github.com/rayen-mansouri/packet-analyzer/config"
	"github.com/urfave/cli"
	yaml "gopkg.in/yaml.v2"
)

func init() {
	command := cli.Command{
		Flags: []cli.Flag{
			configFlag,
		},
		Name:   "test-config",
		Usage:  "Check the configuration file for validity",
		Action: testConfiguration,
	}

	bootstrapCommands(command)
}

// testConfiguration prints out the result of parsing the config file
func testConfiguration(c *cli.Context) error {
	conf, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Failed to load config: %s", err.Error()), -1)
	}

	staticConfig, err := yaml.Marshal(conf.S)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\n%s\n", string(staticConfig))

	if err := conf.S.Validate(); err != nil {
		return cli.NewExitError(err.Error(), -1)
	}
	fmt.Fprintln(os.Stdout, "\t[-] Configuration is valid")
	return nil
}
