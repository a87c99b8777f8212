// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package anchor

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/dirload/lib/namespace"
)

// Anchor selects candidate directories from a tree.
type Anchor struct {
	tree   *namespace.Tree
	cursor atomic.Uint64

	// rng is nil unless a seed was given; the package-level source is
	// already safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures an Anchor.
type Option func(*Anchor)

// WithSeed makes random selection reproducible.
func WithSeed(seed uint64) Option {
	return func(a *Anchor) {
		a.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// New returns an Anchor over tree.
func New(tree *namespace.Tree, options ...Option) *Anchor {
	a := &Anchor{tree: tree}
	for _, option := range options {
		option(a)
	}
	return a
}

// Name returns the anchor directory path.
func (a *Anchor) Name() string { return a.tree.Root().Path() }

// Tree returns the underlying tree.
func (a *Anchor) Tree() *namespace.Tree { return a.tree }

// Select returns the next candidate, or nil when the candidate space is
// empty. Sequential selection walks the candidates round-robin in level
// order, so parents come up before their children.
func (a *Anchor) Select(random, format bool) *namespace.Directory {
	size := a.candidates(format)
	if size == 0 {
		return nil
	}

	var index int
	if random {
		index = a.intN(size)
	} else {
		index = int((a.cursor.Add(1) - 1) % uint64(size))
	}

	if format {
		return &a.tree.Root().Children()[index]
	}
	return a.tree.At(index)
}

// Exhausted reports whether every candidate of the given mode exists, so
// that a create worker can only make progress if someone deletes.
func (a *Anchor) Exhausted(format bool) bool {
	if format {
		root := a.tree.Root()
		return root.ExistingChildren() >= len(root.Children())
	}
	return a.tree.Existing() >= a.tree.Len()
}

// Empty reports whether no directory below the anchor exists, so that a
// delete worker can only make progress if someone creates.
func (a *Anchor) Empty() bool {
	return a.tree.Existing() == 0
}

func (a *Anchor) candidates(format bool) int {
	if format {
		return len(a.tree.Root().Children())
	}
	return a.tree.Len()
}

func (a *Anchor) intN(n int) int {
	if a.rng == nil {
		return rand.IntN(n)
	}
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.rng.IntN(n)
}
