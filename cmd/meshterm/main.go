package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/meshterm/internal/infra/buildinfo"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "meshterm",
		Usage:   "Interactive command terminal for a mesh network node",
		Version: buildinfo.String(),
		Flags:   appFlags(),
		Action:  run,
	}
}

func appFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to YAML configuration file",
			EnvVars: []string{"MESHTERM_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "Command prefix character",
		},
		&cli.BoolFlag{
			Name:  "no-echo",
			Usage: "Do not echo typed characters",
		},
		&cli.BoolFlag{
			Name:  "no-prompt",
			Usage: "Do not print a prompt after each line",
		},
		&cli.StringFlag{
			Name:    "node-id",
			Aliases: []string{"n"},
			Usage:   "Mesh node ID (defaults to the host name)",
		},
		&cli.StringFlag{
			Name:  "bind",
			Usage: "Gossip bind address",
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Gossip bind port",
		},
		&cli.StringSliceFlag{
			Name:    "seed",
			Aliases: []string{"s"},
			Usage:   "Seed node host:port (repeatable)",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve /metrics and /healthz on this address",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
	}
}

// flagOverrides maps explicitly set flags onto dotted config keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)

	if c.IsSet("prefix") {
		overrides["terminal.prefix"] = c.String("prefix")
	}
	if c.Bool("no-echo") {
		overrides["terminal.echo"] = false
	}
	if c.Bool("no-prompt") {
		overrides["terminal.prompt"] = false
	}
	if c.IsSet("node-id") {
		overrides["mesh.node_id"] = c.String("node-id")
	}
	if c.IsSet("bind") {
		overrides["mesh.bind_addr"] = c.String("bind")
	}
	if c.IsSet("port") {
		overrides["mesh.bind_port"] = c.Int("port")
	}
	if c.IsSet("seed") {
		overrides["mesh.seeds"] = c.StringSlice("seed")
	}
	if c.IsSet("metrics-addr") {
		overrides["metrics.enabled"] = true
		overrides["metrics.addr"] = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}

	return overrides
}
