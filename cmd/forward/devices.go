package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/forward/internal/backend"
)

func devicesCmd() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List the device runtimes available to this build",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tctx, _, closeFn, err := setup(cmd)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer closeFn()

			w := cmd.Root().Writer
			active, activeID := tctx.Device()
			for _, d := range tctx.Devices() {
				rt, err := tctx.Runtime(d)
				if err != nil {
					return err
				}
				for id := range rt.DeviceCount() {
					line := fmt.Sprintf("%s:%d", d, id)
					if named, ok := rt.(interface{ AdapterName() string }); ok && named.AdapterName() != "" {
						line += "  " + named.AdapterName()
					}
					if d == active && id == activeID {
						line += "  (active)"
					}
					fmt.Fprintln(w, line)
				}
			}
			fmt.Fprintf(w, "backends: %s\n", backend.Available())
			return nil
		},
	}
}
