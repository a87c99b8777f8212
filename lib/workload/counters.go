// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import (
	"fmt"
	"sync/atomic"
)

// Event is something the statistics sink counts.
type Event int

const (
	// EventMkdir is a completed directory create.
	EventMkdir Event = iota
	// EventMkdirExisting is a create the filesystem reported as already
	// present. Also counted as EventMkdir.
	EventMkdirExisting
	// EventRmdir is a completed directory delete.
	EventRmdir
	// EventRmdirMissing is a delete the filesystem reported as already
	// gone. Also counted as EventRmdir.
	EventRmdirMissing

	eventCount
)

var eventNames = [eventCount]string{
	EventMkdir:         "mkdir",
	EventMkdirExisting: "mkdir_existing",
	EventRmdir:         "rmdir",
	EventRmdirMissing:  "rmdir_missing",
}

func (e Event) String() string {
	if e < 0 || e >= eventCount {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

// Operations reports whether the event is a completed operation, as
// opposed to an annotation of one.
func (e Event) Operations() bool { return e == EventMkdir || e == EventRmdir }

// Events returns every event in declaration order.
func Events() []Event {
	events := make([]Event, eventCount)
	for i := range events {
		events[i] = Event(i)
	}
	return events
}

// Counters is the run statistics sink. The zero value is ready to use.
type Counters struct {
	counts [eventCount]atomic.Uint64
	// onOperation, if set, is called after every completed operation with
	// the new operation total.
	onOperation func(total uint64)
	operations  atomic.Uint64
}

// NewCounters returns Counters that call onOperation after each completed
// operation. onOperation may be nil.
func NewCounters(onOperation func(total uint64)) *Counters {
	return &Counters{onOperation: onOperation}
}

// Count records one event.
func (c *Counters) Count(event Event) {
	c.counts[event].Add(1)
	if !event.Operations() {
		return
	}
	total := c.operations.Add(1)
	if c.onOperation != nil {
		c.onOperation(total)
	}
}

// Get returns the count of event.
func (c *Counters) Get(event Event) uint64 { return c.counts[event].Load() }

// Operations returns the number of completed operations of any kind.
func (c *Counters) Operations() uint64 { return c.operations.Load() }

// Snapshot returns the current counts keyed by event name.
func (c *Counters) Snapshot() map[string]uint64 {
	snapshot := make(map[string]uint64, eventCount)
	for i := range c.counts {
		snapshot[Event(i).String()] = c.counts[i].Load()
	}
	return snapshot
}
