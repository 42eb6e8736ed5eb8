// Command endorser runs a single signing witness process: one TCP
// listener serving rpcwire requests against an endorser.Store (spec.md
// §6: "CLI surface (endorser): a single listen-address argument").
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/forestrie/nimble/endorser"
)

func main() {
	app := &cli.App{
		Name:      "endorser",
		Usage:     "run a Nimble endorser",
		ArgsUsage: "<listen-address>",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	addr := c.Args().First()
	if addr == "" {
		return cli.Exit("listen address is required", 1)
	}

	logger.New("INFO")
	log := logger.Sugar.WithServiceName("endorser")

	store, err := endorser.NewStore(log)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}

	service := endorser.NewService(log, store)
	server := endorser.NewServer(log, service)

	return server.ListenAndServe(addr)
}
