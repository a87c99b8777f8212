// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package structop

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/dirload/lib/anchor"
	"github.com/bureau-foundation/dirload/lib/blocked"
	"github.com/bureau-foundation/dirload/lib/clock"
	"github.com/bureau-foundation/dirload/lib/fsys"
	"github.com/bureau-foundation/dirload/lib/namespace"
	"github.com/bureau-foundation/dirload/lib/testutil"
	"github.com/bureau-foundation/dirload/lib/workload"
)

// harness is the shared state of one run.
type harness struct {
	tree       *namespace.Tree
	anchor     *anchor.Anchor
	ledger     *blocked.Ledger
	counters   *workload.Counters
	registry   *workload.Registry
	completion *workload.Completion
	fs         *fsys.Memory

	// setup is the number of mutations made before any worker ran.
	setup int
}

func newHarness(t *testing.T, shape namespace.Shape) *harness {
	t.Helper()
	tree, err := namespace.Build("/anchor", shape)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	memory := fsys.NewMemory()
	if err := memory.EnsureDirectory("/anchor"); err != nil {
		t.Fatalf("EnsureDirectory: %v", err)
	}
	tree.AnchorPresent()
	return &harness{
		tree:       tree,
		anchor:     anchor.New(tree, anchor.WithSeed(1)),
		ledger:     &blocked.Ledger{},
		counters:   workload.NewCounters(nil),
		registry:   &workload.Registry{},
		completion: workload.NewCompletion(),
		fs:         memory,
		setup:      len(memory.Log()),
	}
}

// log returns the mutations made by workers, without the anchor setup.
func (h *harness) log() []fsys.Mutation {
	return h.fs.Log()[h.setup:]
}

func (h *harness) config(worker namespace.WorkerID, format, random bool) Config {
	return Config{
		Worker:     worker,
		Anchor:     h.anchor,
		Ledger:     h.ledger,
		Counters:   h.counters,
		Registry:   h.registry,
		Oracle:     h.completion,
		Filesystem: h.fs,
		Clock:      clock.Real(),
		Format:     format,
		Random:     random,
	}
}

// drain calls Do until the operation reports it is finished.
func drain(t *testing.T, operation Operation) int {
	t.Helper()
	done := 0
	for {
		ok, err := operation.Do()
		if err != nil {
			t.Errorf("%s Do: %v", operation.Kind(), err)
			return done
		}
		if !ok {
			return done
		}
		done++
	}
}

// runConcurrently drains every operation from its own goroutine and fails
// the test if they do not all stop in time.
func runConcurrently(t *testing.T, registry *workload.Registry, operations ...Operation) {
	t.Helper()
	for _, operation := range operations {
		registry.Start(operation.Kind())
	}

	var wg sync.WaitGroup
	for _, operation := range operations {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer registry.Stop(operation.Kind())
			drain(t, operation)
		}()
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	testutil.RequireClosed(t, finished, 30*time.Second, "workers did not stop")
}

func requireNoLocks(t *testing.T, tree *namespace.Tree) {
	t.Helper()
	for _, d := range tree.Busy() {
		t.Errorf("lock on %s still held by worker %d", d.Path(), d.Holder())
	}
}

// requireConsistent checks that the in-memory tree agrees with the
// filesystem and that no directory was created twice.
func requireConsistent(t *testing.T, h *harness) {
	t.Helper()
	existing := 0
	for i := range h.tree.Len() {
		d := h.tree.At(i)
		if d.Exists() != h.fs.Exists(d.Path()) {
			t.Errorf("%s: tree exists=%v, filesystem exists=%v", d.Path(), d.Exists(), h.fs.Exists(d.Path()))
		}
		if d.Exists() {
			existing++
		}
		children := 0
		for j := range d.Children() {
			if d.Children()[j].Exists() {
				children++
			}
		}
		if d.ExistingChildren() != children {
			t.Errorf("%s: ExistingChildren() = %d, counted %d", d.Path(), d.ExistingChildren(), children)
		}
	}
	if h.tree.Existing() != existing {
		t.Errorf("tree.Existing() = %d, counted %d", h.tree.Existing(), existing)
	}
	if got := h.counters.Get(workload.EventMkdirExisting); got != 0 {
		t.Errorf("%d creates found the directory already present", got)
	}
}

// requireParentsFirst checks that every mkdir in the log comes after the
// latest mkdir of its parent and before any later rmdir of it.
func requireParentsFirst(t *testing.T, log []fsys.Mutation) {
	t.Helper()
	present := map[string]bool{"/anchor": true}
	for _, mutation := range log {
		parent := mutation.Path[:strings.LastIndex(mutation.Path, "/")]
		switch mutation.Op {
		case "mkdir":
			if !present[parent] {
				t.Fatalf("mutation %d created %s before its parent", mutation.Sequence, mutation.Path)
			}
			present[mutation.Path] = true
		case "rmdir":
			delete(present, mutation.Path)
		}
	}
}

// scriptedSelector cycles through a fixed list of candidates.
type scriptedSelector struct {
	candidates []*namespace.Directory
	next       int
}

func (s *scriptedSelector) Select(random, format bool) *namespace.Directory {
	d := s.candidates[s.next%len(s.candidates)]
	s.next++
	return d
}

func (s *scriptedSelector) Exhausted(format bool) bool {
	for _, d := range s.candidates {
		if !d.Exists() {
			return false
		}
	}
	return true
}

func (s *scriptedSelector) Empty() bool {
	for _, d := range s.candidates {
		if d.Exists() {
			return false
		}
	}
	return true
}

func (s *scriptedSelector) Name() string { return "/anchor" }

func TestMkdirTwoWorkersRaceForGrandchild(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 2, Width: 2})
	a := h.tree.Find("d1_1")
	a1 := h.tree.Find("d1_1/d2_1")
	b := h.tree.Find("d1_2")

	var operations []Operation
	for worker := range 2 {
		config := h.config(namespace.WorkerID(worker+1), false, false)
		// Both workers go for the grandchild before its parent exists.
		config.Anchor = &scriptedSelector{candidates: []*namespace.Directory{a1, a}}
		operations = append(operations, NewMkdir(config))
	}
	runConcurrently(t, h.registry, operations...)

	for _, d := range []*namespace.Directory{a, a1} {
		if !d.Exists() {
			t.Errorf("%s does not exist", d.Path())
		}
		if creates := h.fs.Creates(d.Path()); creates != 1 {
			t.Errorf("%s created %d times, want 1", d.Path(), creates)
		}
	}
	if b.Exists() {
		t.Errorf("%s was never a candidate but exists", b.Path())
	}
	if got := h.counters.Get(workload.EventMkdir); got != 2 {
		t.Errorf("EventMkdir = %d, want 2", got)
	}
	if h.ledger.Count(blocked.MissingParent)+h.ledger.Count(blocked.ParentDirBusy) == 0 {
		t.Error("no worker observed the missing or busy parent")
	}
	if h.ledger.Count(blocked.DirExists) == 0 {
		t.Error("no worker observed the finished grandchild")
	}
	requireNoLocks(t, h.tree)
	requireConsistent(t, h)
	requireParentsFirst(t, h.log())
}

func TestMkdirFormatCreatesWholeSubtree(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 3, Width: 2})
	operation := NewMkdir(h.config(1, true, false))

	if done := drain(t, operation); done != 2 {
		t.Errorf("completed %d top-level creates, want 2", done)
	}
	if h.tree.Existing() != h.tree.Len() {
		t.Errorf("%d of %d directories exist", h.tree.Existing(), h.tree.Len())
	}
	if got := h.counters.Get(workload.EventMkdir); got != uint64(h.tree.Len()) {
		t.Errorf("EventMkdir = %d, want %d", got, h.tree.Len())
	}
	for i := range h.tree.Len() {
		if creates := h.fs.Creates(h.tree.At(i).Path()); creates != 1 {
			t.Errorf("%s created %d times", h.tree.At(i).Path(), creates)
		}
	}

	// Depth first: each top-level directory's subtree is complete before
	// the next top-level directory starts.
	log := h.log()
	want := []string{
		"/anchor/d1_1", "/anchor/d1_1/d2_1", "/anchor/d1_1/d2_1/d3_1", "/anchor/d1_1/d2_1/d3_2",
		"/anchor/d1_1/d2_2", "/anchor/d1_1/d2_2/d3_1", "/anchor/d1_1/d2_2/d3_2",
		"/anchor/d1_2",
	}
	for i, path := range want {
		if log[i].Path != path {
			t.Fatalf("mutation %d = %s, want %s", i+1, log[i].Path, path)
		}
	}
	requireNoLocks(t, h.tree)
	requireConsistent(t, h)
}

func TestMkdirConcurrentFormatCreatesEachDirectoryOnce(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 3, Width: 4})

	var operations []Operation
	for worker := range 8 {
		operations = append(operations, NewMkdir(h.config(namespace.WorkerID(worker+1), true, worker%2 == 0)))
	}
	runConcurrently(t, h.registry, operations...)

	if h.tree.Existing() != h.tree.Len() {
		t.Errorf("%d of %d directories exist", h.tree.Existing(), h.tree.Len())
	}
	for i := range h.tree.Len() {
		if creates := h.fs.Creates(h.tree.At(i).Path()); creates != 1 {
			t.Errorf("%s created %d times", h.tree.At(i).Path(), creates)
		}
	}
	requireNoLocks(t, h.tree)
	requireConsistent(t, h)
	requireParentsFirst(t, h.log())
}

func TestMkdirRandomSelectionUnderContentionTerminates(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 3, Width: 2})

	var operations []Operation
	for worker := range 16 {
		operations = append(operations, NewMkdir(h.config(namespace.WorkerID(worker+1), false, true)))
	}
	runConcurrently(t, h.registry, operations...)

	if h.tree.Existing() != h.tree.Len() {
		t.Errorf("%d of %d directories exist", h.tree.Existing(), h.tree.Len())
	}
	if got := h.counters.Get(workload.EventMkdir); got != uint64(h.tree.Len()) {
		t.Errorf("EventMkdir = %d, want %d", got, h.tree.Len())
	}
	requireNoLocks(t, h.tree)
	requireConsistent(t, h)
	requireParentsFirst(t, h.log())
}

func TestMkdirStopsOnExistingTreeWithoutDeleters(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 2, Width: 3})
	drain(t, NewMkdir(h.config(1, true, false)))
	before := len(h.log())

	var output bytes.Buffer
	config := h.config(2, false, true)
	config.Logger = slog.New(slog.NewTextHandler(&output, nil))
	operation := NewMkdir(config)

	for range 3 {
		ok, err := operation.Do()
		if ok || err != nil {
			t.Fatalf("Do() = %v, %v on a complete tree", ok, err)
		}
	}
	if len(h.log()) != before {
		t.Error("filesystem changed on a complete tree")
	}
	if h.ledger.Count(blocked.DirExists) == 0 {
		t.Error("DirExists not recorded")
	}
	if count := strings.Count(output.String(), "no workers are deleting"); count != 1 {
		t.Errorf("exhaustion logged %d times, want once:\n%s", count, output.String())
	}
	if !strings.Contains(output.String(), "anchor=/anchor") {
		t.Errorf("exhaustion message lacks the anchor:\n%s", output.String())
	}
	requireNoLocks(t, h.tree)
}

// limitOracle reports done after a number of polls.
type limitOracle struct {
	remaining atomic.Int64
}

func (o *limitOracle) Done() bool { return o.remaining.Add(-1) < 0 }

func TestMkdirKeepsTryingWhileDeletersAreActive(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 1, Width: 2})
	drain(t, NewMkdir(h.config(1, false, false)))
	before := h.ledger.Count(blocked.DirExists)

	oracle := &limitOracle{}
	oracle.remaining.Store(50)
	config := h.config(2, false, false)
	config.Oracle = oracle
	h.registry.Start(workload.KindRmdir)
	defer h.registry.Stop(workload.KindRmdir)

	mkdir := NewMkdir(config)
	yields := 0
	mkdir.yield = func() { yields++ }

	ok, err := mkdir.Do()
	if ok || err != nil {
		t.Fatalf("Do() = %v, %v", ok, err)
	}
	if got := h.ledger.Count(blocked.DirExists) - before; got != 50 {
		t.Errorf("DirExists = %d, want one per poll (50)", got)
	}
	if yields != 50 {
		t.Errorf("yielded %d times, want once per retry on the exhausted tree (50)", yields)
	}
}

func TestMkdirReturnsImmediatelyWhenRunIsOver(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 2, Width: 2})
	h.completion.Finish("test")

	ok, err := NewMkdir(h.config(1, true, true)).Do()
	if ok || err != nil {
		t.Fatalf("Do() = %v, %v after Finish", ok, err)
	}
	if h.ledger.Total() != 0 || len(h.log()) != 0 {
		t.Error("finished run still did work")
	}
}

func TestMkdirFormatBacksOffOnMissingParent(t *testing.T) {
	tree, err := namespace.Build("/anchor", namespace.Shape{Depth: 1, Width: 1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	memory := fsys.NewMemory()
	if err := memory.EnsureDirectory("/anchor"); err != nil {
		t.Fatalf("EnsureDirectory: %v", err)
	}
	fake := clock.Fake(time.Unix(0, 0))
	ledger := &blocked.Ledger{}
	operation := NewMkdir(Config{
		Worker:     1,
		Anchor:     anchor.New(tree),
		Ledger:     ledger,
		Counters:   workload.NewCounters(nil),
		Registry:   &workload.Registry{},
		Oracle:     workload.NewCompletion(),
		Filesystem: memory,
		Clock:      fake,
		Format:     true,
	})

	// The anchor is not marked present yet, so the only candidate's
	// parent is missing.
	result := make(chan bool, 1)
	go func() {
		ok, err := operation.Do()
		if err != nil {
			t.Errorf("Do: %v", err)
		}
		result <- ok
	}()

	fake.WaitForTimers(1)
	if got := ledger.Count(blocked.MissingParent); got != 1 {
		t.Fatalf("MissingParent = %d, want 1", got)
	}
	if got := ledger.LastPath(blocked.MissingParent); got != "/anchor/d1_1" {
		t.Errorf("MissingParent path = %q", got)
	}
	requireNoLocks(t, tree)

	tree.AnchorPresent()
	fake.Advance(MissingParentBackoff)
	if ok := testutil.RequireReceive(t, result, 5*time.Second, "waiting for Do"); !ok {
		t.Fatal("Do() = false after the parent appeared")
	}
	if !tree.At(0).Exists() {
		t.Error("directory not created")
	}
}

func TestMkdirParentBusyIsRecordedWithPath(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 2, Width: 1})
	parent := h.tree.Find("d1_1")
	child := h.tree.Find("d1_1/d2_1")

	oracle := &limitOracle{}
	oracle.remaining.Store(1)
	config := h.config(1, false, false)
	config.Oracle = oracle
	config.Anchor = &scriptedSelector{candidates: []*namespace.Directory{child}}

	if !parent.TrySetBusy(99) {
		t.Fatal("could not lock parent")
	}
	ok, err := NewMkdir(config).Do()
	parent.ClearBusy(99)
	if ok || err != nil {
		t.Fatalf("Do() = %v, %v", ok, err)
	}
	if got := h.ledger.LastPath(blocked.ParentDirBusy); got != child.Path() {
		t.Errorf("ParentDirBusy path = %q, want %q", got, child.Path())
	}
	if child.Holder() != namespace.NoWorker {
		t.Error("candidate lock leaked after parent lock failed")
	}
}

// failingFS fails every create.
type failingFS struct{}

var errDiskFull = errors.New("disk full")

func (failingFS) CreateDirectory(path string) (bool, error) {
	return false, &fsys.PathError{Op: "mkdir", Path: path, Err: errDiskFull}
}

func (failingFS) RemoveDirectory(path string) (bool, error) {
	return false, &fsys.PathError{Op: "rmdir", Path: path, Err: fs.ErrPermission}
}

func TestMkdirFilesystemErrorReleasesLocks(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 2, Width: 2})
	config := h.config(1, true, false)
	config.Filesystem = failingFS{}

	ok, err := NewMkdir(config).Do()
	if ok {
		t.Fatal("Do() succeeded on a failing filesystem")
	}
	var pathErr *fsys.PathError
	if !errors.As(err, &pathErr) || !errors.Is(err, errDiskFull) {
		t.Fatalf("Do() error = %v, want a PathError wrapping errDiskFull", err)
	}
	if h.tree.Existing() != 0 {
		t.Error("failed create marked a directory existing")
	}
	requireNoLocks(t, h.tree)
}

func TestMkdirChildSpinLimitPanics(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 2, Width: 1})
	child := h.tree.Find("d1_1/d2_1")
	if !child.TrySetBusy(99) {
		t.Fatal("could not lock child")
	}

	defer func() {
		value := recover()
		if value == nil {
			t.Fatal("expected a panic")
		}
		if !strings.Contains(value.(string), child.Path()) {
			t.Errorf("panic %q does not name %s", value, child.Path())
		}
	}()
	NewMkdir(h.config(1, true, false)).Do()
}

func TestRmdirRemovesLeavesBeforeParents(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 3, Width: 2})
	drain(t, NewMkdir(h.config(1, true, false)))

	done := drain(t, NewRmdir(h.config(2, false, false)))
	if done != h.tree.Len() {
		t.Errorf("removed %d directories, want %d", done, h.tree.Len())
	}
	if h.tree.Existing() != 0 {
		t.Errorf("%d directories left", h.tree.Existing())
	}
	if h.fs.Len() != 2 {
		t.Errorf("filesystem holds %d directories, want / and /anchor", h.fs.Len())
	}
	if h.ledger.Count(blocked.DirStillHasChild) == 0 {
		t.Error("DirStillHasChild not recorded")
	}
	if got := h.counters.Get(workload.EventRmdir); got != uint64(h.tree.Len()) {
		t.Errorf("EventRmdir = %d, want %d", got, h.tree.Len())
	}
	requireNoLocks(t, h.tree)
	requireConsistent(t, h)
}

func TestRmdirStopsOnEmptyTreeWithoutCreators(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 2, Width: 2})
	ok, err := NewRmdir(h.config(1, false, true)).Do()
	if ok || err != nil {
		t.Fatalf("Do() = %v, %v on an empty tree", ok, err)
	}
	if h.ledger.Count(blocked.DirDoesNotExist) != 1 {
		t.Errorf("DirDoesNotExist = %d, want 1", h.ledger.Count(blocked.DirDoesNotExist))
	}
}

func TestRmdirYieldsWhileCreatorsAreActive(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 2, Width: 2})
	oracle := &limitOracle{}
	oracle.remaining.Store(20)
	config := h.config(1, false, true)
	config.Oracle = oracle
	h.registry.Start(workload.KindMkdir)
	defer h.registry.Stop(workload.KindMkdir)

	rmdir := NewRmdir(config)
	yields := 0
	rmdir.yield = func() { yields++ }

	ok, err := rmdir.Do()
	if ok || err != nil {
		t.Fatalf("Do() = %v, %v", ok, err)
	}
	if got := h.ledger.Count(blocked.DirDoesNotExist); got != 20 {
		t.Errorf("DirDoesNotExist = %d, want one per poll (20)", got)
	}
	if yields != 20 {
		t.Errorf("yielded %d times, want 20", yields)
	}
}

func TestRmdirFilesystemErrorKeepsDirectory(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 1, Width: 1})
	drain(t, NewMkdir(h.config(1, false, false)))

	config := h.config(2, false, false)
	config.Filesystem = failingFS{}
	_, err := NewRmdir(config).Do()
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("Do() error = %v, want ErrPermission", err)
	}
	if !h.tree.At(0).Exists() {
		t.Error("failed delete marked the directory missing")
	}
	requireNoLocks(t, h.tree)
}

func TestMkdirAndRmdirUnderLoadStayConsistent(t *testing.T) {
	h := newHarness(t, namespace.Shape{Depth: 3, Width: 2})
	h.counters = workload.NewCounters(func(total uint64) {
		if total >= 5000 {
			h.completion.Finish("operation limit")
		}
	})

	var operations []Operation
	for worker := range 12 {
		config := h.config(namespace.WorkerID(worker+1), false, true)
		if worker%3 == 0 {
			operations = append(operations, NewRmdir(config))
		} else {
			operations = append(operations, NewMkdir(config))
		}
	}
	runConcurrently(t, h.registry, operations...)

	if !h.completion.Done() {
		t.Fatal("workers stopped before the operation limit")
	}
	if h.counters.Get(workload.EventRmdirMissing) != 0 {
		t.Error("a delete found its directory already gone")
	}
	for _, kind := range []workload.Kind{workload.KindMkdir, workload.KindRmdir} {
		if active := h.registry.Active(kind); active != 0 {
			t.Errorf("%d %s workers still registered", active, kind)
		}
	}
	requireNoLocks(t, h.tree)
	requireConsistent(t, h)
	requireParentsFirst(t, h.log())
}
