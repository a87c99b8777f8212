// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fwg

import (
	"time"

	"github.com/bureau-foundation/dirload/lib/blocked"
	"github.com/bureau-foundation/dirload/lib/namespace"
)

// Summary is the outcome of one run.
type Summary struct {
	Anchor string          `cbor:"anchor"`
	Shape  namespace.Shape `cbor:"shape"`
	Format bool            `cbor:"format"`

	// Round counts the runs made by one Runner, starting at 1.
	Round int `cbor:"round"`

	// Reason is why the completion oracle finished, or "all workers
	// stopped" when every worker ran out of work first.
	Reason  string        `cbor:"reason"`
	Started time.Time     `cbor:"started"`
	Elapsed time.Duration `cbor:"elapsed"`

	Pools []PoolSummary `cbor:"pools"`

	// Operations is the number of completed creates and deletes.
	Operations uint64            `cbor:"operations"`
	Events     map[string]uint64 `cbor:"events"`
	Blocked    []blocked.Entry   `cbor:"blocked"`

	Directories int `cbor:"directories"`
	Existing    int `cbor:"existing"`

	Failures []Failure `cbor:"failures,omitempty"`

	// LeakedLocks lists directories still locked after every worker
	// stopped. Non-empty means a lock protocol bug.
	LeakedLocks []string `cbor:"leaked_locks,omitempty"`
}

// PoolSummary describes one worker pool.
type PoolSummary struct {
	Operation string `cbor:"operation"`
	Threads   int    `cbor:"threads"`
	Selection string `cbor:"selection"`
	// Completed is the number of successful Do calls across the pool.
	Completed uint64 `cbor:"completed"`
}

// Failure is a worker that stopped on an error or panic.
type Failure struct {
	Worker    int64  `cbor:"worker"`
	Operation string `cbor:"operation"`
	Error     string `cbor:"error"`
}

// Rate returns completed operations per second.
func (s *Summary) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Operations) / s.Elapsed.Seconds()
}

// Blocks returns the total of all blocking reasons.
func (s *Summary) Blocks() uint64 {
	var total uint64
	for _, entry := range s.Blocked {
		total += entry.Count
	}
	return total
}
