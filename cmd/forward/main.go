// Package main provides the forward CLI: it lists the device runtimes of
// this build, runs operator cases against the inference kernels and
// inspects SafeTensors weight files.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "forward",
		Usage: "Inference kernels for transformer forward passes",
		Flags: globalFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			versionCmd(),
			devicesCmd(),
			runCmd(),
			inspectCmd(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
