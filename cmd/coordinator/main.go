// Command coordinator connects to a fixed set of endorsers at startup and
// exposes the resulting coordinator.Coordinator for client-facing
// front-ends to embed. The RPC surface a client talks to is outside the
// core (spec.md §1: "the client library ... are explicit non-goals"), so
// this binary's job ends at forming the quorum connection.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/forestrie/nimble/coordinator"
)

func main() {
	app := &cli.App{
		Name:      "coordinator",
		Usage:     "connect a Nimble coordinator to a set of endorsers",
		ArgsUsage: "<endorser-address> [endorser-address ...]",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	addrs := c.Args().Slice()
	if len(addrs) == 0 {
		return cli.Exit("at least one endorser address is required", 1)
	}

	logger.New("INFO")
	log := logger.Sugar.WithServiceName("coordinator")

	conns := coordinator.NewConnectionStore(log)
	for _, addr := range addrs {
		pk, err := conns.ConnectEndorser(addr)
		if err != nil {
			return fmt.Errorf("connecting to endorser %s: %w", addr, err)
		}
		log.Infof("endorser %x ready at %s", pk.Bytes(), addr)
	}

	_ = coordinator.NewCoordinator(log, conns)
	log.Infof("coordinator ready with %d endorsers", len(conns.GetAll()))

	select {}
}
