// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package structop implements the structural workers: the directory
// create and delete operations that a run drives from many goroutines at
// once against a shared [namespace.Tree].
//
// Each call to [Operation.Do] performs at most one top-level operation.
// It loops selecting candidates from the anchor until one can be locked
// together with its parent, then mutates it. Contention is never an error:
// every reason a candidate had to be skipped is recorded in the blocking
// ledger and the loop starts over with a fresh candidate.
//
// Lock order is always candidate first, then parent, both acquired with
// [namespace.Directory.TrySetBusy]. A failure to get the second lock
// releases the first before retrying, so workers never wait while
// holding a lock. The single exception is the format-run recursion in
// [Mkdir], which spins on child locks while holding the parent. Nobody
// else can need a child of a directory that is being created (the parent
// is locked and did not exist a moment ago), so the spin is bounded.
//
// Do returns (false, nil) when the worker should stop: the run is over or
// no candidate can ever become available. It returns an error only for
// filesystem failures, and panics on lock protocol violations.
package structop
