// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// Tree owns every directory of a run.
type Tree struct {
	// arena holds the anchor at index 0 followed by each level in order.
	arena    []Directory
	shape    Shape
	existing atomic.Int64
}

// Build allocates the tree declared by shape below the anchor directory.
// Directory names are "d<level>_<n>" with n counted from 1 among siblings.
func Build(anchor string, shape Shape) (*Tree, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	total, _ := shape.Total()

	anchor = filepath.Clean(anchor)
	t := &Tree{
		arena: make([]Directory, total+1),
		shape: shape,
	}
	root := &t.arena[0]
	root.name = filepath.Base(anchor)
	root.path = anchor
	root.tree = t

	// Level order: the children of the directory at index i occupy the
	// next Width free slots, so parents are always laid out first.
	next := 1
	for i := 0; i < len(t.arena) && next < len(t.arena); i++ {
		parent := &t.arena[i]
		if parent.depth >= shape.Depth {
			continue
		}
		parent.children = t.arena[next : next+shape.Width : next+shape.Width]
		for n := range parent.children {
			child := &parent.children[n]
			child.name = fmt.Sprintf("d%d_%d", parent.depth+1, n+1)
			child.path = filepath.Join(parent.path, child.name)
			child.depth = parent.depth + 1
			child.parent = parent
			child.tree = t
		}
		next += shape.Width
	}
	return t, nil
}

// Root returns the anchor directory.
func (t *Tree) Root() *Directory { return &t.arena[0] }

// Shape returns the shape the tree was built from.
func (t *Tree) Shape() Shape { return t.shape }

// Len returns the number of directories below the anchor.
func (t *Tree) Len() int { return len(t.arena) - 1 }

// At returns the i-th directory below the anchor in level order,
// 0 <= i < Len().
func (t *Tree) At(i int) *Directory { return &t.arena[i+1] }

// Existing returns how many directories below the anchor exist.
func (t *Tree) Existing() int { return int(t.existing.Load()) }

// AnchorPresent marks the anchor itself as existing. The anchor is created
// by the run before any worker starts and is never locked for creation.
func (t *Tree) AnchorPresent() { t.arena[0].exists.Store(true) }

// Find returns the directory at rel, a slash-separated path relative to
// the anchor, or nil. An empty rel or "." is the anchor.
func (t *Tree) Find(rel string) *Directory {
	current := t.Root()
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return current
	}
	for _, name := range strings.Split(rel, "/") {
		var found *Directory
		for i := range current.children {
			if current.children[i].name == name {
				found = &current.children[i]
				break
			}
		}
		if found == nil {
			return nil
		}
		current = found
	}
	return current
}

// Busy returns the directories whose lock is currently held. Once every
// worker of a run has returned this must be empty.
func (t *Tree) Busy() []*Directory {
	var held []*Directory
	for i := range t.arena {
		if t.arena[i].Holder() != NoWorker {
			held = append(held, &t.arena[i])
		}
	}
	return held
}

// Reset clears all run state so the tree can serve another run. It must
// not be called while workers are active.
func (t *Tree) Reset() {
	for i := range t.arena {
		d := &t.arena[i]
		d.busy.Store(int64(NoWorker))
		d.exists.Store(false)
		d.existingChildren.Store(0)
	}
	t.existing.Store(0)
}

// Restore resets the tree and marks as existing every directory that
// exists reports present, so a run can start from what an earlier run
// left on disk. The anchor is marked present. Directories whose parent is
// absent are not checked. It must not be called while workers are active.
func (t *Tree) Restore(exists func(path string) (bool, error)) error {
	t.Reset()
	t.AnchorPresent()
	for i := 1; i < len(t.arena); i++ {
		d := &t.arena[i]
		if !d.parent.exists.Load() {
			continue
		}
		present, err := exists(d.path)
		if err != nil {
			return err
		}
		if present {
			d.exists.Store(true)
			d.parent.existingChildren.Add(1)
			t.existing.Add(1)
		}
	}
	return nil
}
