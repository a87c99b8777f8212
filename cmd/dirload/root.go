// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/dirload/cmd/dirload/cli"
	"github.com/bureau-foundation/dirload/lib/version"
)

func rootCommand(stdout io.Writer) *cli.Command {
	var showVersion bool
	return &cli.Command{
		Name:        "dirload",
		Summary:     "Directory lifecycle workload generator",
		Description: "dirload creates and deletes a synthetic directory tree with many\nconcurrent workers and reports what the workers saw.",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("dirload", pflag.ContinueOnError)
			flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
			return flagSet
		},
		Subcommands: []*cli.Command{
			runCommand(stdout),
			shapeCommand(stdout),
			versionCommand(stdout),
		},
		Run: func(ctx context.Context, args []string) error {
			if showVersion {
				fmt.Fprintf(stdout, "dirload %s\n", version.Info())
				return nil
			}
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return fmt.Errorf("command required\n\nRun 'dirload --help' for usage.")
		},
	}
}

func versionCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print build information",
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("version takes no arguments")
			}
			fmt.Fprintf(stdout, "dirload %s\n", version.Full())
			return nil
		},
	}
}
