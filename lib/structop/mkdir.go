// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package structop

import (
	"fmt"
	"runtime"

	"github.com/bureau-foundation/dirload/lib/blocked"
	"github.com/bureau-foundation/dirload/lib/namespace"
	"github.com/bureau-foundation/dirload/lib/workload"
)

// Mkdir creates directories.
type Mkdir struct {
	worker
}

// NewMkdir returns a create worker. It panics on an incomplete config.
func NewMkdir(config Config) *Mkdir {
	return &Mkdir{worker: newWorker(config, workload.KindMkdir)}
}

// Kind returns workload.KindMkdir.
func (m *Mkdir) Kind() workload.Kind { return workload.KindMkdir }

// Do creates one directory, and during a format run its whole subtree.
func (m *Mkdir) Do() (bool, error) {
	self := m.config.Worker
	ledger := m.config.Ledger

	var dir, parent *namespace.Directory
	for {
		if m.config.Oracle.Done() {
			return false, nil
		}

		dir = m.config.Anchor.Select(m.config.Random, m.config.Format)
		if dir == nil {
			return false, nil
		}

		// During a format a top-level directory that exists is finished,
		// subtree included.
		if m.config.Format && dir.Exists() {
			ledger.Record(blocked.DirExists)
			if !m.canGetMoreDirectories() {
				return false, nil
			}
			continue
		}

		if !dir.TrySetBusy(self) {
			ledger.Record(blocked.DirBusyMkdir)
			continue
		}

		if dir.Exists() {
			dir.ClearBusy(self)
			ledger.Record(blocked.DirExists)
			if !m.canGetMoreDirectories() {
				return false, nil
			}
			continue
		}

		// The parent is locked so that nobody deletes it under us.
		parent = dir.Parent()
		if !parent.TrySetBusy(self) {
			ledger.RecordPath(blocked.ParentDirBusy, dir.Path())
			dir.ClearBusy(self)
			continue
		}

		if !parent.Exists() {
			parent.ClearBusy(self)
			dir.ClearBusy(self)
			ledger.RecordPath(blocked.MissingParent, dir.Path())
			if m.config.Format {
				m.clock.Sleep(MissingParentBackoff)
			}
			continue
		}
		break
	}

	defer dir.ClearBusy(self)
	defer parent.ClearBusy(self)

	if err := m.create(dir); err != nil {
		return false, err
	}
	if m.config.Format {
		if err := m.createChildren(dir); err != nil {
			return false, err
		}
	}
	return true, nil
}

// create materializes dir, which the caller holds locked together with
// its parent.
func (m *Mkdir) create(dir *namespace.Directory) error {
	created, err := dir.Materialize(m.config.Filesystem, m.config.Worker)
	if err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	m.config.Counters.Count(workload.EventMkdir)
	if !created {
		m.config.Counters.Count(workload.EventMkdirExisting)
	}
	return nil
}

// createChildren creates the subtree below parent depth first. parent
// stays locked throughout.
func (m *Mkdir) createChildren(parent *namespace.Directory) error {
	children := parent.Children()
	for i := range children {
		if err := m.createChild(&children[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mkdir) createChild(child *namespace.Directory) error {
	m.lockChild(child)
	defer child.ClearBusy(m.config.Worker)

	if err := m.create(child); err != nil {
		return err
	}
	return m.createChildren(child)
}

// lockChild spins until it holds child. Others can only hold a child of a
// locked parent briefly, on their way to failing the parent lock.
func (m *Mkdir) lockChild(child *namespace.Directory) {
	for attempt := 1; !child.TrySetBusy(m.config.Worker); attempt++ {
		if attempt >= childSpinLimit {
			panic(fmt.Sprintf("structop: worker %d could not lock child %s after %d attempts (held by worker %d)",
				m.config.Worker, child.Path(), attempt, child.Holder()))
		}
		if attempt%childSpinYield == 0 {
			m.clock.Sleep(MissingParentBackoff)
		} else {
			runtime.Gosched()
		}
	}
}

// canGetMoreDirectories reports whether a create can still succeed: some
// candidate is missing, or a delete worker may make one missing.
func (m *Mkdir) canGetMoreDirectories() bool {
	if !m.config.Anchor.Exhausted(m.config.Format) {
		return true
	}
	if m.config.Registry.ActiveDeleters() > 0 {
		m.yield()
		return true
	}
	m.giveUp("all directories already exist and no workers are deleting directories")
	return false
}
