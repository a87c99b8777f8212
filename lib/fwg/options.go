// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fwg

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/dirload/lib/clock"
	"github.com/bureau-foundation/dirload/lib/fsys"
	"github.com/bureau-foundation/dirload/lib/namespace"
	"github.com/bureau-foundation/dirload/lib/workload"
)

// MaxThreads bounds the worker count of one operation.
const MaxThreads = 4096

// OperationSpec is one worker pool.
type OperationSpec struct {
	Kind    workload.Kind
	Threads int
	// Random selects candidates at random instead of round-robin.
	Random bool
}

// Options configures a run.
type Options struct {
	// Anchor is the directory the tree is rooted at. It is created if
	// missing.
	Anchor string
	Shape  namespace.Shape

	// Format restricts create workers to top-level directories and
	// creates each one's whole subtree with it.
	Format bool

	Operations []OperationSpec

	// Elapsed ends the run after this long. Zero means no limit.
	Elapsed time.Duration
	// MaxOperations ends the run after this many completed operations.
	// Zero means no limit.
	MaxOperations uint64

	// Seed makes random selection reproducible when non-zero.
	Seed uint64

	// ProgressInterval is the period of progress log lines. Zero
	// disables them.
	ProgressInterval time.Duration

	// Filesystem defaults to fsys.NewUnix(fsys.DefaultMode).
	Filesystem fsys.Filesystem
	// Clock defaults to clock.Real().
	Clock clock.Clock
	// Logger may be nil.
	Logger *slog.Logger
}

// Validate checks the options without touching the filesystem.
func (o *Options) Validate() error {
	var errs []error
	if o.Anchor == "" {
		errs = append(errs, errors.New("anchor is required"))
	}
	if err := o.Shape.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(o.Operations) == 0 {
		errs = append(errs, errors.New("at least one operation is required"))
	}
	for i, operation := range o.Operations {
		if operation.Threads < 1 || operation.Threads > MaxThreads {
			errs = append(errs, fmt.Errorf("operation %d (%s): threads must be between 1 and %d, got %d",
				i, operation.Kind, MaxThreads, operation.Threads))
		}
	}
	if o.Elapsed < 0 {
		errs = append(errs, fmt.Errorf("elapsed must not be negative, got %s", o.Elapsed))
	}
	if o.ProgressInterval < 0 {
		errs = append(errs, fmt.Errorf("progress interval must not be negative, got %s", o.ProgressInterval))
	}
	return errors.Join(errs...)
}

func (o *Options) withDefaults() Options {
	resolved := *o
	if resolved.Filesystem == nil {
		resolved.Filesystem = fsys.NewUnix(fsys.DefaultMode)
	}
	if resolved.Clock == nil {
		resolved.Clock = clock.Real()
	}
	if resolved.Logger == nil {
		resolved.Logger = slog.New(slog.DiscardHandler)
	}
	return resolved
}
