// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import (
	"fmt"
	"sync/atomic"
)

// Registry counts active workers per Kind. The zero value is ready to use.
type Registry struct {
	active [kindCount]atomic.Int64
}

// Start records that a worker of kind became active.
func (r *Registry) Start(kind Kind) {
	r.active[kind].Add(1)
}

// Stop records that a worker of kind finished. Panics on underflow, which
// means a Start/Stop pairing bug.
func (r *Registry) Stop(kind Kind) {
	if r.active[kind].Add(-1) < 0 {
		panic(fmt.Sprintf("workload: %s registry stopped more workers than started", kind))
	}
}

// Active returns the number of active workers of kind.
func (r *Registry) Active(kind Kind) int {
	return int(r.active[kind].Load())
}

// ActiveDeleters returns the number of active workers whose kind deletes.
func (r *Registry) ActiveDeleters() int {
	total := 0
	for i := range r.active {
		if Kind(i).Deletes() {
			total += int(r.active[i].Load())
		}
	}
	return total
}

// ActiveCreators returns the number of active workers whose kind creates.
func (r *Registry) ActiveCreators() int {
	return r.Active(KindMkdir)
}
