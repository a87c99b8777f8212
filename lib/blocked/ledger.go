// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package blocked

import (
	"fmt"
	"sync/atomic"
)

// Reason is why a worker could not proceed with its current candidate.
type Reason int

const (
	// DirExists: a create candidate is already materialized.
	DirExists Reason = iota
	// DirBusyMkdir: a create candidate is locked by another worker.
	DirBusyMkdir
	// ParentDirBusy: the candidate's parent is locked by another worker.
	ParentDirBusy
	// MissingParent: the candidate's parent has not been created yet.
	MissingParent
	// DirDoesNotExist: a delete candidate is not materialized.
	DirDoesNotExist
	// DirBusyRmdir: a delete candidate is locked by another worker.
	DirBusyRmdir
	// DirStillHasChild: a delete candidate still has existing children.
	DirStillHasChild

	reasonCount
)

var reasonNames = [reasonCount]string{
	DirExists:        "dir_exists",
	DirBusyMkdir:     "dir_busy_mkdir",
	ParentDirBusy:    "parent_dir_busy",
	MissingParent:    "missing_parent",
	DirDoesNotExist:  "dir_does_not_exist",
	DirBusyRmdir:     "dir_busy_rmdir",
	DirStillHasChild: "dir_still_has_child",
}

// Reasons returns every reason in declaration order.
func Reasons() []Reason {
	reasons := make([]Reason, reasonCount)
	for i := range reasons {
		reasons[i] = Reason(i)
	}
	return reasons
}

func (r Reason) String() string {
	if r < 0 || r >= reasonCount {
		return fmt.Sprintf("reason(%d)", int(r))
	}
	return reasonNames[r]
}

// ParseReason is the inverse of Reason.String.
func ParseReason(name string) (Reason, error) {
	for i, candidate := range reasonNames {
		if candidate == name {
			return Reason(i), nil
		}
	}
	return 0, fmt.Errorf("blocked: unknown reason %q", name)
}

// MarshalText encodes the reason by name so summaries stay readable.
func (r Reason) MarshalText() ([]byte, error) {
	if r < 0 || r >= reasonCount {
		return nil, fmt.Errorf("blocked: invalid reason %d", int(r))
	}
	return []byte(reasonNames[r]), nil
}

// UnmarshalText decodes a reason name.
func (r *Reason) UnmarshalText(text []byte) error {
	parsed, err := ParseReason(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Entry is a point-in-time view of one reason.
type Entry struct {
	Reason   Reason `cbor:"reason"`
	Count    uint64 `cbor:"count"`
	LastPath string `cbor:"last_path,omitempty"`
}

// Ledger is the set of blocking counters for one run. The zero value is
// ready to use.
type Ledger struct {
	counts [reasonCount]atomic.Uint64
	last   [reasonCount]atomic.Pointer[string]
}

// Record counts one occurrence of reason.
func (l *Ledger) Record(reason Reason) {
	l.counts[reason].Add(1)
}

// RecordPath counts one occurrence of reason and remembers path as the
// most recent trigger.
func (l *Ledger) RecordPath(reason Reason, path string) {
	l.counts[reason].Add(1)
	l.last[reason].Store(&path)
}

// Count returns how often reason has been recorded.
func (l *Ledger) Count(reason Reason) uint64 {
	return l.counts[reason].Load()
}

// LastPath returns the most recent path recorded for reason, if any.
func (l *Ledger) LastPath(reason Reason) string {
	if path := l.last[reason].Load(); path != nil {
		return *path
	}
	return ""
}

// Total returns the sum over all reasons.
func (l *Ledger) Total() uint64 {
	var total uint64
	for i := range l.counts {
		total += l.counts[i].Load()
	}
	return total
}

// Snapshot returns one entry per reason in declaration order.
func (l *Ledger) Snapshot() []Entry {
	entries := make([]Entry, reasonCount)
	for i := range entries {
		reason := Reason(i)
		entries[i] = Entry{
			Reason:   reason,
			Count:    l.Count(reason),
			LastPath: l.LastPath(reason),
		}
	}
	return entries
}

// Reset zeroes every counter and forgets every path. Must not race with a
// run that is still recording if exact zeroes matter.
func (l *Ledger) Reset() {
	for i := range l.counts {
		l.counts[i].Store(0)
		l.last[i].Store(nil)
	}
}
