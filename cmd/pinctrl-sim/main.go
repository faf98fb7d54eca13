// Package main is pinctrl-sim, a diagnostic tool that runs the pin-control driver against
// simulated registers.
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"go.viam.com/pinctrl/pinctrl"
	"go.viam.com/pinctrl/topology/sunrisepoint"
)

const (
	flagDebug       = "debug"
	flagSoC         = "soc"
	flagSettleDelay = "settle-delay"
	flagDebounce    = "debounce"
	flagEdge        = "edge"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		errorf(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pinctrl-sim",
		Usage: "inspect and exercise GPIO controller topologies on simulated registers",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagSoC,
				Value: sunrisepoint.Name,
				Usage: "registered topology to use",
			},
			&cli.DurationFlag{
				Name:  flagSettleDelay,
				Usage: "pause between pad groups during dispatch",
			},
			&cli.BoolFlag{
				Name:  flagDebounce,
				Value: true,
				Usage: "simulate a controller revision with debounce registers",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "socs",
				Usage:  "list registered topologies",
				Action: listSoCsAction,
			},
			{
				Name:   "topology",
				Usage:  "print communities, pad groups and mux functions",
				Action: topologyAction,
			},
			{
				Name:      "resolve",
				Usage:     "print the register addresses of a GPIO",
				ArgsUsage: "<gpio>",
				Action:    resolveAction,
			},
			{
				Name:  "selftest",
				Usage: "run interrupt and suspend/resume checks against simulated registers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagEdge,
						Value: "rising",
						Usage: "trigger programmed for the dispatch check: rising, falling or both",
					},
				},
				Action: selftestAction,
			},
		},
	}
}

func configFromFlags(c *cli.Context) *pinctrl.Config {
	return &pinctrl.Config{
		SoC:         c.String(flagSoC),
		SettleDelay: c.Duration(flagSettleDelay),
	}
}
