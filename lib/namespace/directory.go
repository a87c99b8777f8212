// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"fmt"
	"sync/atomic"
)

// WorkerID identifies the holder of a busy lock. The zero value means the
// lock is free, so real workers are numbered from 1.
type WorkerID int64

// NoWorker is the holder value of a free lock.
const NoWorker WorkerID = 0

// Filesystem is the I/O boundary used to materialize directories. An
// already existing directory is not an error for CreateDirectory, and a
// missing one is not an error for RemoveDirectory: both report false.
type Filesystem interface {
	CreateDirectory(path string) (created bool, err error)
	RemoveDirectory(path string) (removed bool, err error)
}

// Directory is one node of the synthetic tree.
type Directory struct {
	name     string
	path     string
	depth    int
	parent   *Directory
	children []Directory
	tree     *Tree

	busy             atomic.Int64
	exists           atomic.Bool
	existingChildren atomic.Int64
}

// Name returns the directory's local name.
func (d *Directory) Name() string { return d.name }

// Path returns the full path, rooted at the anchor.
func (d *Directory) Path() string { return d.path }

// Depth returns the level below the anchor; the anchor itself is 0.
func (d *Directory) Depth() int { return d.depth }

// Parent returns the parent directory, or nil for the anchor.
func (d *Directory) Parent() *Directory { return d.parent }

// Children returns the pre-declared children. The slice aliases the tree
// arena and must not be modified.
func (d *Directory) Children() []Directory { return d.children }

// Exists reports whether the directory has been materialized. Reading it
// without the lock is only good for an optimistic pre-check; decisions to
// mutate must re-read it while holding the lock.
func (d *Directory) Exists() bool { return d.exists.Load() }

// ExistingChildren returns how many children currently exist.
func (d *Directory) ExistingChildren() int { return int(d.existingChildren.Load()) }

// Holder returns the worker holding the busy lock, or NoWorker.
func (d *Directory) Holder() WorkerID { return WorkerID(d.busy.Load()) }

// TrySetBusy attempts to take the busy lock for owner without waiting.
// It panics if owner already holds it.
func (d *Directory) TrySetBusy(owner WorkerID) bool {
	if owner == NoWorker {
		panic(fmt.Sprintf("namespace: lock %s requested without a worker id", d.path))
	}
	if d.busy.CompareAndSwap(int64(NoWorker), int64(owner)) {
		return true
	}
	if d.Holder() == owner {
		panic(fmt.Sprintf("namespace: worker %d locking %s it already holds", owner, d.path))
	}
	return false
}

// ClearBusy releases the busy lock. It panics if owner is not the holder.
func (d *Directory) ClearBusy(owner WorkerID) {
	if !d.busy.CompareAndSwap(int64(owner), int64(NoWorker)) {
		panic(fmt.Sprintf("namespace: worker %d releasing %s held by worker %d",
			owner, d.path, d.Holder()))
	}
}

// Materialize creates the directory on fs and marks it existing. The
// caller must hold the lock. created is what the filesystem reported: false
// means the directory was already there, which the protocol should prevent
// but real filesystems allow through out-of-band changes.
func (d *Directory) Materialize(fs Filesystem, owner WorkerID) (created bool, err error) {
	d.mustHold(owner, "materialize")
	if d.parent == nil {
		panic(fmt.Sprintf("namespace: materialize called on anchor %s", d.path))
	}

	created, err = fs.CreateDirectory(d.path)
	if err != nil {
		return false, err
	}
	if d.exists.CompareAndSwap(false, true) {
		d.parent.existingChildren.Add(1)
		d.tree.existing.Add(1)
	}
	return created, nil
}

// Dematerialize removes the directory from fs and marks it missing. The
// caller must hold the lock and must have checked that no child exists.
func (d *Directory) Dematerialize(fs Filesystem, owner WorkerID) (removed bool, err error) {
	d.mustHold(owner, "dematerialize")
	if d.parent == nil {
		panic(fmt.Sprintf("namespace: dematerialize called on anchor %s", d.path))
	}
	if children := d.ExistingChildren(); children != 0 {
		panic(fmt.Sprintf("namespace: dematerialize %s with %d existing children", d.path, children))
	}

	removed, err = fs.RemoveDirectory(d.path)
	if err != nil {
		return false, err
	}
	if d.exists.CompareAndSwap(true, false) {
		d.parent.existingChildren.Add(-1)
		d.tree.existing.Add(-1)
	}
	return removed, nil
}

func (d *Directory) mustHold(owner WorkerID, operation string) {
	if holder := d.Holder(); holder != owner || owner == NoWorker {
		panic(fmt.Sprintf("namespace: worker %d cannot %s %s: lock held by worker %d",
			owner, operation, d.path, holder))
	}
}
