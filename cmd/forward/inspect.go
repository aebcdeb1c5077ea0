package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/forward/internal/safetensors"
)

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "List the tensors of a SafeTensors file",
		ArgsUsage: "<file.safetensors>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("error: exactly one file is required", 1)
			}
			path := cmd.Args().First()

			r, err := safetensors.Open(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer r.Close()

			w := cmd.Root().Writer
			if md := r.Metadata(); len(md) > 0 {
				keys := make([]string, 0, len(md))
				for k := range md {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(w, "# %s: %s\n", k, md[k])
				}
			}

			var total int64
			for _, name := range r.Names() {
				info, _ := r.Info(name)
				fmt.Fprintf(w, "%-48s %-5s %v\n", name, info.DType, info.Shape)
				total += info.Size()
			}
			fmt.Fprintf(w, "\n%d tensor(s), %d bytes\n", len(r.Names()), total)
			return nil
		},
	}
}
