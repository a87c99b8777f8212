// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fwg

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/dirload/lib/anchor"
	"github.com/bureau-foundation/dirload/lib/blocked"
	"github.com/bureau-foundation/dirload/lib/namespace"
	"github.com/bureau-foundation/dirload/lib/structop"
	"github.com/bureau-foundation/dirload/lib/workload"
)

// Runner runs a workload one or more times over the same tree. Each
// round starts from what the filesystem holds, so a second round sees the
// directories the first one left behind. Rounds must not overlap.
type Runner struct {
	options Options
	tree    *namespace.Tree
	anchor  *anchor.Anchor
	ledger  *blocked.Ledger
	rounds  int
}

// run is the state of one round.
type run struct {
	options    Options
	round      int
	tree       *namespace.Tree
	anchor     *anchor.Anchor
	ledger     *blocked.Ledger
	counters   *workload.Counters
	registry   *workload.Registry
	completion *workload.Completion

	failuresMu sync.Mutex
	failures   []Failure
}

// pool is one configured operation and its workers.
type pool struct {
	spec      OperationSpec
	workers   []member
	completed atomic.Uint64
}

type member struct {
	id        namespace.WorkerID
	operation structop.Operation
}

// Run executes the workload once and returns its summary once every
// worker has stopped. The error is non-nil only when the run could not
// start.
func Run(ctx context.Context, options Options) (*Summary, error) {
	runner, err := NewRunner(options)
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx)
}

// NewRunner validates options and builds the tree. Nothing touches the
// filesystem until Run.
func NewRunner(options Options) (*Runner, error) {
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run options: %w", err)
	}
	resolved := options.withDefaults()

	tree, err := namespace.Build(resolved.Anchor, resolved.Shape)
	if err != nil {
		return nil, err
	}

	var anchorOptions []anchor.Option
	if resolved.Seed != 0 {
		anchorOptions = append(anchorOptions, anchor.WithSeed(resolved.Seed))
	}
	return &Runner{
		options: resolved,
		tree:    tree,
		anchor:  anchor.New(tree, anchorOptions...),
		ledger:  &blocked.Ledger{},
	}, nil
}

// Run executes one round. The anchor is created if missing and the tree
// is restored from the directories already on the filesystem; counters,
// the ledger, and the completion oracle start from zero.
func (rn *Runner) Run(ctx context.Context) (*Summary, error) {
	fs := rn.options.Filesystem
	if err := fs.EnsureDirectory(rn.tree.Root().Path()); err != nil {
		return nil, fmt.Errorf("creating anchor: %w", err)
	}
	if err := rn.tree.Restore(fs.DirectoryExists); err != nil {
		return nil, fmt.Errorf("scanning existing directories: %w", err)
	}
	rn.ledger.Reset()
	rn.rounds++

	r := &run{
		options:    rn.options,
		round:      rn.rounds,
		tree:       rn.tree,
		anchor:     rn.anchor,
		ledger:     rn.ledger,
		registry:   &workload.Registry{},
		completion: workload.NewCompletion(),
	}
	r.counters = workload.NewCounters(r.onOperation)
	return r.execute(ctx), nil
}

func (r *run) onOperation(total uint64) {
	if limit := r.options.MaxOperations; limit > 0 && total >= limit {
		r.completion.Finish(fmt.Sprintf("%d operations reached", limit))
	}
}

func (r *run) execute(ctx context.Context) *Summary {
	logger := r.options.Logger
	clk := r.options.Clock

	pools := r.buildPools()
	started := clk.Now()

	r.completion.FinishOnCancel(ctx)
	if r.options.Elapsed > 0 {
		cancel := r.completion.FinishAfter(clk, r.options.Elapsed)
		defer cancel()
	}

	// Every worker is registered before any starts so that the
	// termination policy sees the full set of deleters and creators.
	for _, p := range pools {
		for range p.workers {
			r.registry.Start(p.spec.Kind)
		}
	}

	logger.Info("run starting",
		"anchor", r.tree.Root().Path(),
		"round", r.round,
		"directories", r.tree.Len(),
		"existing", r.tree.Existing(),
		"format", r.options.Format,
		"pools", len(pools),
	)

	var wg sync.WaitGroup
	for _, p := range pools {
		for _, worker := range p.workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer r.registry.Stop(p.spec.Kind)
				r.drive(p, worker)
			}()
		}
	}

	stopped := make(chan struct{})
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		r.reportProgress(stopped)
	}()

	wg.Wait()
	close(stopped)
	<-progressDone

	elapsed := clk.Now().Sub(started)
	r.completion.Finish("all workers stopped")
	summary := r.summarize(pools, started, elapsed)

	logger.Info("run finished",
		"round", r.round,
		"reason", summary.Reason,
		"operations", summary.Operations,
		"elapsed", summary.Elapsed,
		"failures", len(summary.Failures),
	)
	for _, path := range summary.LeakedLocks {
		logger.Error("directory lock still held after run", "path", path)
	}
	return summary
}

func (r *run) buildPools() []*pool {
	var pools []*pool
	worker := namespace.NoWorker
	for _, spec := range r.options.Operations {
		p := &pool{spec: spec}
		for range spec.Threads {
			worker++
			config := structop.Config{
				Worker:     worker,
				Anchor:     r.anchor,
				Ledger:     r.ledger,
				Counters:   r.counters,
				Registry:   r.registry,
				Oracle:     r.completion,
				Filesystem: r.options.Filesystem,
				Clock:      r.options.Clock,
				Logger:     r.options.Logger,
				Format:     r.options.Format,
				Random:     spec.Random,
			}
			var operation structop.Operation
			switch spec.Kind {
			case workload.KindMkdir:
				operation = structop.NewMkdir(config)
			case workload.KindRmdir:
				operation = structop.NewRmdir(config)
			default:
				panic(fmt.Sprintf("fwg: no worker for operation %s", spec.Kind))
			}
			p.workers = append(p.workers, member{id: worker, operation: operation})
		}
		pools = append(pools, p)
	}
	return pools
}

// drive calls Do until the worker stops. Errors and panics end this
// worker only.
func (r *run) drive(p *pool, worker member) {
	for {
		more, err := r.do(worker.operation)
		if err != nil {
			r.fail(p, worker.id, err)
			return
		}
		if !more {
			return
		}
		p.completed.Add(1)
	}
}

func (r *run) do(worker structop.Operation) (more bool, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("worker panic: %v\n%s", recovered, debug.Stack())
		}
	}()
	return worker.Do()
}

func (r *run) fail(p *pool, id namespace.WorkerID, err error) {
	r.options.Logger.Error("worker stopped",
		"worker", int64(id),
		"operation", p.spec.Kind.String(),
		"error", err,
	)

	r.failuresMu.Lock()
	defer r.failuresMu.Unlock()
	r.failures = append(r.failures, Failure{
		Worker:    int64(id),
		Operation: p.spec.Kind.String(),
		Error:     err.Error(),
	})
}

func (r *run) reportProgress(stopped <-chan struct{}) {
	interval := r.options.ProgressInterval
	if interval <= 0 {
		return
	}
	ticker := r.options.Clock.NewTicker(interval)
	defer ticker.Stop()

	var previous uint64
	for {
		select {
		case <-ticker.C:
			operations := r.counters.Operations()
			r.options.Logger.Info("progress",
				"operations", operations,
				"rate", float64(operations-previous)/interval.Seconds(),
				"existing", r.tree.Existing(),
				"blocked", r.ledger.Total(),
				"active_workers", r.registry.ActiveCreators()+r.registry.ActiveDeleters(),
			)
			previous = operations
		case <-stopped:
			return
		}
	}
}

func (r *run) summarize(pools []*pool, started time.Time, elapsed time.Duration) *Summary {
	summary := &Summary{
		Anchor:      r.tree.Root().Path(),
		Round:       r.round,
		Shape:       r.tree.Shape(),
		Format:      r.options.Format,
		Reason:      r.completion.Reason(),
		Started:     started,
		Elapsed:     elapsed,
		Operations:  r.counters.Operations(),
		Events:      r.counters.Snapshot(),
		Blocked:     r.ledger.Snapshot(),
		Directories: r.tree.Len(),
		Existing:    r.tree.Existing(),
	}
	for _, p := range pools {
		selection := "sequential"
		if p.spec.Random {
			selection = "random"
		}
		summary.Pools = append(summary.Pools, PoolSummary{
			Operation: p.spec.Kind.String(),
			Threads:   p.spec.Threads,
			Selection: selection,
			Completed: p.completed.Load(),
		})
	}

	r.failuresMu.Lock()
	summary.Failures = append([]Failure(nil), r.failures...)
	r.failuresMu.Unlock()

	for _, d := range r.tree.Busy() {
		summary.LeakedLocks = append(summary.LeakedLocks, d.Path())
	}
	return summary
}
