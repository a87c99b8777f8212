// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/dirload/cmd/dirload/cli"
	"github.com/bureau-foundation/dirload/lib/namespace"
)

func shapeCommand(stdout io.Writer) *cli.Command {
	var shape namespace.Shape
	return &cli.Command{
		Name:        "shape",
		Summary:     "Show how many directories a tree shape declares",
		Description: "Print the directory count of each level of a tree shape and the\ntotal, without touching the filesystem.",
		Examples: []cli.Example{
			{Description: "A four-level tree of width eight", Command: "dirload shape --depth 4 --width 8"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("shape", pflag.ContinueOnError)
			flagSet.IntVar(&shape.Depth, "depth", 2, "levels below the anchor")
			flagSet.IntVar(&shape.Width, "width", 10, "children per directory")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			if err := shape.Validate(); err != nil {
				return err
			}
			counts, err := shape.LevelCounts()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(tw, "LEVEL\tDIRECTORIES\t\n")
			total := 0
			for level, count := range counts {
				fmt.Fprintf(tw, "%d\t%d\t\n", level+1, count)
				total += count
			}
			fmt.Fprintf(tw, "total\t%d\t\n", total)
			return tw.Flush()
		},
	}
}
