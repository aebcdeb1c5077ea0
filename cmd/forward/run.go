package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/forward/internal/opcase"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run operator cases from YAML files",
		ArgsUsage: "<case.yaml>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format (text, json)",
				Value: "text",
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "compare outputs with the cases' expectations",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				return cli.Exit("error: at least one case file is required", 1)
			}
			format := cmd.String("format")
			if format != "text" && format != "json" {
				return cli.Exit(fmt.Sprintf("error: unknown format %q (expected text or json)", format), 1)
			}

			tctx, log, closeFn, err := setup(cmd)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer closeFn()

			w := cmd.Root().Writer
			failed := 0
			for _, file := range files {
				c, err := opcase.LoadFile(file)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				res, err := opcase.Run(tctx, c)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %s: %v", file, err), 1)
				}

				if format == "json" {
					err = res.WriteJSON(w)
				} else {
					err = writeText(w, file, res)
				}
				if err != nil {
					return err
				}

				if cmd.Bool("check") {
					if err := res.Check(c); err != nil {
						log.Error("case failed", "file", file, "error", err)
						failed++
						continue
					}
					log.Debug("case passed", "file", file)
				}
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d case(s) failed", failed, len(files)), 1)
			}
			return nil
		},
	}
}

func writeText(w io.Writer, file string, res *opcase.Result) error {
	title := res.Name
	if title == "" {
		title = file
	}
	if _, err := fmt.Fprintf(w, "%s: %s %s on %s\n", title, res.Op, res.DType, res.Device); err != nil {
		return err
	}

	names := make([]string, 0, len(res.Outputs))
	for name := range res.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out := res.Outputs[name]
		if _, err := fmt.Fprintf(w, "  %s %v = %v\n", name, out.Shape, out.Data); err != nil {
			return err
		}
	}
	return nil
}
