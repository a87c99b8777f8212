// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package structop

import (
	"fmt"

	"github.com/bureau-foundation/dirload/lib/blocked"
	"github.com/bureau-foundation/dirload/lib/namespace"
	"github.com/bureau-foundation/dirload/lib/workload"
)

// Rmdir deletes directories that have no existing children.
type Rmdir struct {
	worker
}

// NewRmdir returns a delete worker. The Format setting is ignored: deletes
// choose from the whole tree.
func NewRmdir(config Config) *Rmdir {
	config.Format = false
	return &Rmdir{worker: newWorker(config, workload.KindRmdir)}
}

// Kind returns workload.KindRmdir.
func (r *Rmdir) Kind() workload.Kind { return workload.KindRmdir }

// Do deletes one directory.
func (r *Rmdir) Do() (bool, error) {
	self := r.config.Worker
	ledger := r.config.Ledger

	var dir, parent *namespace.Directory
	for {
		if r.config.Oracle.Done() {
			return false, nil
		}

		dir = r.config.Anchor.Select(r.config.Random, false)
		if dir == nil {
			return false, nil
		}

		if !dir.Exists() {
			ledger.Record(blocked.DirDoesNotExist)
			if !r.canGetMoreDirectories() {
				return false, nil
			}
			continue
		}

		if !dir.TrySetBusy(self) {
			ledger.Record(blocked.DirBusyRmdir)
			continue
		}

		if !dir.Exists() {
			dir.ClearBusy(self)
			ledger.Record(blocked.DirDoesNotExist)
			if !r.canGetMoreDirectories() {
				return false, nil
			}
			continue
		}

		// Children are created and deleted only with dir locked, so the
		// count is stable from here on.
		if dir.ExistingChildren() > 0 {
			dir.ClearBusy(self)
			ledger.RecordPath(blocked.DirStillHasChild, dir.Path())
			continue
		}

		parent = dir.Parent()
		if !parent.TrySetBusy(self) {
			ledger.RecordPath(blocked.ParentDirBusy, dir.Path())
			dir.ClearBusy(self)
			continue
		}
		break
	}

	defer dir.ClearBusy(self)
	defer parent.ClearBusy(self)

	removed, err := dir.Dematerialize(r.config.Filesystem, self)
	if err != nil {
		return false, fmt.Errorf("removing directory: %w", err)
	}
	r.config.Counters.Count(workload.EventRmdir)
	if !removed {
		r.config.Counters.Count(workload.EventRmdirMissing)
	}
	return true, nil
}

// canGetMoreDirectories reports whether a delete can still succeed: some
// directory exists, or a create worker may make one exist.
func (r *Rmdir) canGetMoreDirectories() bool {
	if !r.config.Anchor.Empty() {
		return true
	}
	if r.config.Registry.ActiveCreators() > 0 {
		r.yield()
		return true
	}
	r.giveUp("no directories are left to delete and no workers are creating directories")
	return false
}
