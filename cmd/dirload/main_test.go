// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/dirload/cmd/dirload/cli"
	"github.com/bureau-foundation/dirload/lib/config"
	"github.com/bureau-foundation/dirload/lib/report"
	"github.com/bureau-foundation/dirload/lib/testutil"
)

// execute runs the dirload command line with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvironmentVariable, "")
	var stdout bytes.Buffer
	err := rootCommand(&stdout).Execute(context.Background(), args)
	return stdout.String(), err
}

func TestRunFormatDryRun(t *testing.T) {
	summaryPath := filepath.Join(t.TempDir(), "summary.cbor")
	output, err := execute(t, "run",
		"--anchor", "/dirload/anchor",
		"--depth", "2", "--width", "3",
		"--format",
		"--operation", "mkdir:4:random",
		"--dry-run",
		"--log-level", "error",
		"--color", "never",
		"--summary-file", summaryPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, output)
	}

	for _, want := range []string{"dirload run /dirload/anchor", "mode format", "existing 12/12", "no worker failures, no leaked locks"} {
		if !strings.Contains(output, want) {
			t.Errorf("report missing %q:\n%s", want, output)
		}
	}

	summaries, err := report.ReadSummaries(summaryPath)
	if err != nil {
		t.Fatalf("ReadSummaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summary file holds %d rounds, want 1", len(summaries))
	}
	summary := summaries[0]
	if summary.Existing != 12 || summary.Directories != 12 {
		t.Errorf("summary existing %d of %d, want 12 of 12", summary.Existing, summary.Directories)
	}
	if len(summary.Pools) != 1 || summary.Pools[0].Threads != 4 {
		t.Errorf("pools = %+v, want one pool of 4 threads", summary.Pools)
	}
}

func TestRunAgainstDisk(t *testing.T) {
	anchor := testutil.AnchorDir(t)
	output, err := execute(t, "run",
		"--anchor", anchor,
		"--depth", "2", "--width", "2",
		"--operation", "mkdir:3:sequential",
		"--log-level", "error")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, output)
	}

	for _, path := range []string{"d1_1", "d1_2", "d1_1/d2_1", "d1_1/d2_2", "d1_2/d2_1", "d1_2/d2_2"} {
		info, err := os.Stat(filepath.Join(anchor, path))
		if err != nil {
			t.Errorf("%s: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", path)
		}
	}
}

func TestRunRoundsContinueFromDisk(t *testing.T) {
	anchor := testutil.AnchorDir(t)
	summaryPath := filepath.Join(t.TempDir(), "rounds.cbor")
	output, err := execute(t, "run",
		"--anchor", anchor,
		"--depth", "2", "--width", "2",
		"--format",
		"--operation", "mkdir:2",
		"--rounds", "2",
		"--log-level", "error",
		"--color", "never",
		"--summary-file", summaryPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, output)
	}
	if !strings.Contains(output, "dirload run, round 2") {
		t.Errorf("report has no second round:\n%s", output)
	}

	summaries, err := report.ReadSummaries(summaryPath)
	if err != nil {
		t.Fatalf("ReadSummaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summary file holds %d rounds, want 2", len(summaries))
	}
	if summaries[0].Operations != 6 || summaries[1].Operations != 0 || summaries[1].Existing != 6 {
		t.Errorf("rounds did %d then %d operations, second found %d existing",
			summaries[0].Operations, summaries[1].Operations, summaries[1].Existing)
	}

	// A later delete-only run finds the tree on disk and removes it.
	output, err = execute(t, "run",
		"--anchor", anchor,
		"--depth", "2", "--width", "2",
		"--operation", "rmdir:2",
		"--log-level", "error")
	if err != nil {
		t.Fatalf("delete run: %v\n%s", err, output)
	}
	entries, err := os.ReadDir(anchor)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("anchor still holds %d entries after the delete run", len(entries))
	}
}

func TestRunConfigFileWithOverrides(t *testing.T) {
	directory := t.TempDir()
	configPath := filepath.Join(directory, "workload.yaml")
	workloadFile := `anchor: /dirload/from-file
shape:
  depth: 1
  width: 4
operations:
  - operation: mkdir
    threads: 2
    selection: sequential
`
	if err := os.WriteFile(configPath, []byte(workloadFile), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := execute(t, "run", "--config", configPath, "--width", "2", "--dry-run", "--log-level", "error")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, output)
	}
	if !strings.Contains(output, "dirload run /dirload/from-file") {
		t.Errorf("anchor from file not used:\n%s", output)
	}
	if !strings.Contains(output, "existing 2/2") {
		t.Errorf("--width did not override the file:\n%s", output)
	}
	if !strings.Contains(output, "sequential") {
		t.Errorf("pool from file not used:\n%s", output)
	}
}

func TestRunWorkerFailureExitsWithCode(t *testing.T) {
	anchor := testutil.AnchorDir(t)
	if err := os.MkdirAll(anchor, 0o755); err != nil {
		t.Fatal(err)
	}
	// A regular file where a directory belongs fails the worker.
	if err := os.WriteFile(filepath.Join(anchor, "d1_1"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := execute(t, "run",
		"--anchor", anchor,
		"--depth", "1", "--width", "2",
		"--operation", "mkdir:1:sequential",
		"--log-level", "error",
		"--color", "never")

	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("run error = %v, want exit code 2", err)
	}
	if !strings.Contains(output, "1 worker(s) failed") {
		t.Errorf("report does not show the failure:\n%s", output)
	}
}

func TestRunRejectsInvalidWorkload(t *testing.T) {
	_, err := execute(t, "run",
		"--anchor", "relative/path",
		"--operation", "mkdir:2",
		"--operation", "rmdir:2",
		"--dry-run")
	if err == nil {
		t.Fatal("run succeeded, want validation error")
	}
	for _, want := range []string{"invalid workload", "absolute path", "needs elapsed or max_operations"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"log level", []string{"--log-level", "loud"}, "invalid log level"},
		{"color", []string{"--color", "sometimes"}, "invalid --color"},
		{"operation threads", []string{"--operation", "mkdir:many"}, "is not a number"},
		{"operation parts", []string{"--operation", "mkdir:1:random:extra"}, "KIND[:THREADS[:SELECTION]]"},
		{"argument", []string{"stray"}, "unexpected argument"},
		{"rounds", []string{"--rounds", "0"}, "rounds must be at least 1"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"run", "--dry-run"}, test.args...)...)
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %v, want one containing %q", err, test.want)
			}
		})
	}
}

func TestParseOperation(t *testing.T) {
	tests := []struct {
		value string
		want  config.Operation
	}{
		{"mkdir", config.Operation{Operation: "mkdir", Threads: 1, Selection: config.SelectionRandom}},
		{"rmdir:4", config.Operation{Operation: "rmdir", Threads: 4, Selection: config.SelectionRandom}},
		{"mkdir:16:sequential", config.Operation{Operation: "mkdir", Threads: 16, Selection: config.SelectionSequential}},
	}
	for _, test := range tests {
		got, err := parseOperation(test.value)
		if err != nil {
			t.Errorf("parseOperation(%q): %v", test.value, err)
			continue
		}
		if got != test.want {
			t.Errorf("parseOperation(%q) = %+v, want %+v", test.value, got, test.want)
		}
	}
	if _, err := parseOperation(""); err == nil {
		t.Error("parseOperation(\"\") succeeded, want error")
	}
}

func TestShapeCommand(t *testing.T) {
	output, err := execute(t, "shape", "--depth", "3", "--width", "4")
	if err != nil {
		t.Fatalf("shape: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 5 {
		t.Fatalf("shape printed %d lines, want 5:\n%s", len(lines), output)
	}
	for i, want := range []string{"4", "16", "64", "84"} {
		fields := strings.Fields(lines[i+1])
		if got := fields[len(fields)-1]; got != want {
			t.Errorf("line %q ends in %q, want %q", lines[i+1], got, want)
		}
	}

	if _, err := execute(t, "shape", "--depth", "2", "--width", "0"); err == nil {
		t.Error("shape with zero width succeeded, want error")
	}
}

func TestVersionOutput(t *testing.T) {
	output, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.HasPrefix(output, "dirload ") || strings.Contains(output, "Platform") {
		t.Errorf("--version output = %q", output)
	}

	output, err = execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(output, "dirload ") || !strings.Contains(output, "Platform") {
		t.Errorf("version output = %q", output)
	}
}

func TestRootRequiresCommand(t *testing.T) {
	if _, err := execute(t); err == nil {
		t.Error("dirload with no arguments succeeded, want error")
	}
	if _, err := execute(t, "rnu"); err == nil || !strings.Contains(err.Error(), `did you mean "run"`) {
		t.Errorf("error = %v, want suggestion for run", err)
	}
}
