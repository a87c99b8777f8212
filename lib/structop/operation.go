// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package structop

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/bureau-foundation/dirload/lib/blocked"
	"github.com/bureau-foundation/dirload/lib/clock"
	"github.com/bureau-foundation/dirload/lib/namespace"
	"github.com/bureau-foundation/dirload/lib/workload"
)

// MissingParentBackoff is how long a format-run worker sleeps after its
// candidate's parent turned out not to exist yet.
const MissingParentBackoff = 200 * time.Microsecond

const (
	// childSpinYield is how many failed child lock attempts happen
	// between clock sleeps.
	childSpinYield = 64
	// childSpinLimit bounds the child lock spin. Reaching it means the
	// lock protocol is broken.
	childSpinLimit = 100_000
)

// Operation is one structural worker.
type Operation interface {
	// Kind returns the operation kind.
	Kind() workload.Kind

	// Do performs one operation. It returns false when the worker
	// should stop.
	Do() (bool, error)
}

// Selector chooses candidate directories. *anchor.Anchor implements it.
type Selector interface {
	Select(random, format bool) *namespace.Directory
	// Exhausted reports whether every create candidate exists.
	Exhausted(format bool) bool
	// Empty reports whether no delete candidate exists.
	Empty() bool
	// Name is the anchor path, used in diagnostics.
	Name() string
}

// Config is the shared state a worker is built from. Anchor, Ledger,
// Counters, Registry, Oracle, and Filesystem are required.
type Config struct {
	// Worker identifies the lock holder. It must be unique in the run
	// and not namespace.NoWorker.
	Worker namespace.WorkerID

	Anchor     Selector
	Ledger     *blocked.Ledger
	Counters   *workload.Counters
	Registry   *workload.Registry
	Oracle     workload.Oracle
	Filesystem namespace.Filesystem

	// Clock drives the missing-parent backoff and the child spin sleep.
	// Nil means clock.Real().
	Clock clock.Clock

	// Logger may be nil.
	Logger *slog.Logger

	// Format selects format-run behavior: only top-level candidates,
	// with their whole subtree created alongside.
	Format bool

	// Random selects candidates randomly instead of round-robin.
	Random bool
}

// worker is the state common to Mkdir and Rmdir.
type worker struct {
	config Config
	clock  clock.Clock
	logger *slog.Logger

	// gaveUp is set once the worker has logged that it cannot make
	// progress. A worker is only used from its own goroutine.
	gaveUp bool

	// yield runs when the candidate space is exhausted but the other
	// family is still active, so that a spinning worker lets the workers
	// that can change the tree run.
	yield func()
}

func newWorker(config Config, kind workload.Kind) worker {
	if config.Worker == namespace.NoWorker {
		panic("structop: worker id must not be zero")
	}
	if config.Anchor == nil || config.Ledger == nil || config.Counters == nil ||
		config.Registry == nil || config.Oracle == nil || config.Filesystem == nil {
		panic(fmt.Sprintf("structop: incomplete %s worker config", kind))
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return worker{
		config: config,
		clock:  clk,
		logger: logger.With("worker", int64(config.Worker), "operation", kind.String()),
		yield:  runtime.Gosched,
	}
}

// giveUp logs the exhaustion message once per worker.
func (w *worker) giveUp(message string) {
	if w.gaveUp {
		return
	}
	w.gaveUp = true
	w.logger.Info(message, "anchor", w.config.Anchor.Name())
}
