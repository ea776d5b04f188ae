package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rayen-mansouri/packet-analyzer/resources"
	"github.com/rayen-mansouri/packet-analyzer/server"
	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:  "serve",
		Usage: "Serve the analyzer over HTTP",
		Flags: []cli.Flag{
			configFlag,
			cli.StringFlag{
				Name:  "listen, l",
				Usage: "listen on `ADDRESS` instead of the configured address",
			},
		},
		Action: serve,
	}

	bootstrapCommands(command)
}

func serve(c *cli.Context) error {
	res, err := resources.InitResources(c.String("config"))
	if err != nil {
		return cli.NewExitError(err.Error(), -1)
	}
	if _, err := res.Config.Prepare(); err != nil {
		return cli.NewExitError(err.Error(), -1)
	}
	if addr := c.String("listen"); addr != "" {
		res.Config.S.Server.ListenAddr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "\t[-] Listening on %s\n", res.Config.S.Server.ListenAddr)
	err = server.New(res, nil).ListenAndServe(ctx)
	if err != nil && err != http.ErrServerClosed {
		return cli.NewExitError(err.Error(), -1)
	}
	return nil
}
