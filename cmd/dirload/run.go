// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/dirload/cmd/dirload/cli"
	"github.com/bureau-foundation/dirload/lib/config"
	"github.com/bureau-foundation/dirload/lib/fsys"
	"github.com/bureau-foundation/dirload/lib/fwg"
	"github.com/bureau-foundation/dirload/lib/report"
)

// runFlags holds the run command's flag values. Flags that were not
// given on the command line leave the loaded workload untouched.
type runFlags struct {
	configPath       string
	anchor           string
	depth            int
	width            int
	format           bool
	operations       []string
	elapsed          time.Duration
	maxOperations    uint64
	seed             uint64
	progressInterval time.Duration
	rounds           int
	dryRun           bool
	summaryFile      string
	logLevel         string
	color            string
}

func runCommand(stdout io.Writer) *cli.Command {
	var flags runFlags
	var flagSet *pflag.FlagSet
	return &cli.Command{
		Name:    "run",
		Summary: "Run a directory workload",
		Description: `Run creates and deletes directories of a synthetic tree with pools of
concurrent workers until every worker gives up or a limit is reached.

The workload comes from --config, else from the file named by
$DIRLOAD_CONFIG, else from built-in defaults. Flags given on the
command line override the workload's values.`,
		Examples: []cli.Example{
			{
				Description: "Create a three-level tree, one top-level subtree per worker",
				Command:     "dirload run --anchor /mnt/test/dirload --depth 3 --width 10 --format",
			},
			{
				Description: "Create and delete concurrently for one minute",
				Command:     "dirload run --operation mkdir:16:random --operation rmdir:4:random --elapsed 1m",
			},
			{
				Description: "Exercise the workload without touching the disk",
				Command:     "dirload run --config workload.yaml --dry-run",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.StringVar(&flags.configPath, "config", "", "workload file (default $DIRLOAD_CONFIG)")
			flagSet.StringVar(&flags.anchor, "anchor", "", "directory the tree is rooted at")
			flagSet.IntVar(&flags.depth, "depth", 0, "levels below the anchor")
			flagSet.IntVar(&flags.width, "width", 0, "children per directory")
			flagSet.BoolVar(&flags.format, "format", false, "create each top-level directory with its whole subtree")
			flagSet.StringArrayVar(&flags.operations, "operation", nil, "worker pool as KIND[:THREADS[:SELECTION]], repeatable (e.g. mkdir:8:random)")
			flagSet.DurationVar(&flags.elapsed, "elapsed", 0, "stop after this long")
			flagSet.Uint64Var(&flags.maxOperations, "max-operations", 0, "stop after this many completed operations")
			flagSet.Uint64Var(&flags.seed, "seed", 0, "seed for random selection")
			flagSet.DurationVar(&flags.progressInterval, "progress-interval", 0, "period of progress log lines (0 disables)")
			flagSet.IntVar(&flags.rounds, "rounds", 1, "repeat the workload, each round starting from what the previous left on disk")
			flagSet.BoolVar(&flags.dryRun, "dry-run", false, "run against an in-memory filesystem")
			flagSet.StringVar(&flags.summaryFile, "summary-file", "", "also write each round's summary as CBOR to this file")
			flagSet.StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, or error")
			flagSet.StringVar(&flags.color, "color", "auto", "color the report: auto, always, or never")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return executeRun(ctx, stdout, &flags, flagSet)
		},
	}
}

func executeRun(ctx context.Context, stdout io.Writer, flags *runFlags, flagSet *pflag.FlagSet) error {
	level, err := cli.ParseLevel(flags.logLevel)
	if err != nil {
		return err
	}
	color, err := colorEnabled(flags.color, stdout)
	if err != nil {
		return err
	}

	cfg, err := loadWorkload(flags.configPath)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg, flags, flagSet); err != nil {
		return err
	}

	options, err := cfg.RunOptions()
	if err != nil {
		return fmt.Errorf("invalid workload:\n%w", err)
	}
	options.Logger = cli.NewCommandLogger(level)
	if flags.dryRun {
		options.Filesystem = fsys.NewMemory()
	}

	runner, err := fwg.NewRunner(options)
	if err != nil {
		return err
	}

	var summaries []*fwg.Summary
	failed := false
	for round := 1; round <= cfg.Rounds && ctx.Err() == nil; round++ {
		summary, err := runner.Run(ctx)
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		summaries = append(summaries, summary)

		if round > 1 {
			fmt.Fprintln(stdout)
		}
		if err := report.Render(stdout, summary, color); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		if len(summary.Failures) > 0 || len(summary.LeakedLocks) > 0 {
			failed = true
			break
		}
	}

	if flags.summaryFile != "" && len(summaries) > 0 {
		if err := report.WriteSummaries(flags.summaryFile, summaries); err != nil {
			return err
		}
	}
	if failed {
		return &cli.ExitError{Code: 2}
	}
	return nil
}

// loadWorkload loads path if set, else the file named by
// DIRLOAD_CONFIG if set, else the built-in defaults.
func loadWorkload(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv(config.EnvironmentVariable) != "" {
		return config.Load()
	}
	// Parse expands the default anchor's ${TMPDIR}.
	return config.Parse(nil)
}

// applyRunFlags overrides cfg with every flag set on the command line.
func applyRunFlags(cfg *config.Config, flags *runFlags, flagSet *pflag.FlagSet) error {
	changed := flagSet.Changed
	if changed("anchor") {
		cfg.Anchor = flags.anchor
	}
	if changed("depth") {
		cfg.Shape.Depth = flags.depth
	}
	if changed("width") {
		cfg.Shape.Width = flags.width
	}
	if changed("format") {
		cfg.Format = flags.format
	}
	if changed("operation") {
		cfg.Operations = cfg.Operations[:0:0]
		for _, value := range flags.operations {
			operation, err := parseOperation(value)
			if err != nil {
				return err
			}
			cfg.Operations = append(cfg.Operations, operation)
		}
	}
	if changed("elapsed") {
		cfg.Elapsed = flags.elapsed
	}
	if changed("max-operations") {
		cfg.MaxOperations = flags.maxOperations
	}
	if changed("seed") {
		cfg.Seed = flags.seed
	}
	if changed("progress-interval") {
		cfg.ProgressInterval = flags.progressInterval
	}
	if changed("rounds") {
		cfg.Rounds = flags.rounds
	}
	return nil
}

// parseOperation parses KIND[:THREADS[:SELECTION]]. Threads default to
// one and selection to random. Values are checked by config validation.
func parseOperation(value string) (config.Operation, error) {
	parts := strings.Split(value, ":")
	if len(parts) > 3 || parts[0] == "" {
		return config.Operation{}, fmt.Errorf("invalid --operation %q (want KIND[:THREADS[:SELECTION]])", value)
	}
	operation := config.Operation{
		Operation: parts[0],
		Threads:   1,
		Selection: config.SelectionRandom,
	}
	if len(parts) > 1 {
		threads, err := strconv.Atoi(parts[1])
		if err != nil {
			return config.Operation{}, fmt.Errorf("invalid --operation %q: threads %q is not a number", value, parts[1])
		}
		operation.Threads = threads
	}
	if len(parts) > 2 {
		operation.Selection = parts[2]
	}
	return operation, nil
}

func colorEnabled(mode string, stdout io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		file, ok := stdout.(*os.File)
		return ok && cli.IsTerminal(file) && os.Getenv("NO_COLOR") == "", nil
	default:
		return false, fmt.Errorf("invalid --color %q (want auto, always, or never)", mode)
	}
}
