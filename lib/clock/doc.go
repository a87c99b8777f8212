// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by the workload
// engine.
//
// Every place that waits or measures time in a run (the parent-missing
// backoff, the child-lock spin sleep, the elapsed-time limit, the progress
// ticker) goes through a [Clock] instead of the time package. Production
// code uses [Real]; tests use [Fake], which only moves when Advance is called.
//
// # FakeClock synchronization
//
// A goroutine that calls Sleep, After, AfterFunc, or NewTicker on a
// [FakeClock] registers a pending waiter. Tests call WaitForTimers to block
// until the expected number of waiters exist, then Advance to fire them:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go worker(c)
//	c.WaitForTimers(1)
//	c.Advance(200 * time.Microsecond)
package clock
