package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to config.yaml (default $XDG_CONFIG_HOME/forward/config.yaml)",
		},
		&cli.StringFlag{
			Name:  "device",
			Usage: "active device (auto, cpu, webgpu)",
		},
		&cli.Int64Flag{
			Name:  "device-id",
			Usage: "ordinal of the active device",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "log format (pretty, json, text)",
		},
	}
}
