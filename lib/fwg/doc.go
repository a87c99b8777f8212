// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fwg runs a filesystem workload: a fixed pool of structural
// workers per configured operation, all sharing one namespace tree,
// blocking ledger, statistics sink, and completion oracle.
//
// [Run] builds the tree from the shape, creates the anchor directory,
// restores the tree from the directories already on the filesystem,
// registers every worker with the activity registry before any of them
// starts (so that no worker sees an empty registry and gives up early),
// and then calls Do on each worker until it reports it is finished. The
// run ends when every worker has stopped, which happens when the
// completion oracle finishes (context cancellation, elapsed time, or
// operation count) or when each worker finds no further work.
//
// A [Runner] repeats the workload over one tree. Each round rescans the
// filesystem and starts with a cleared ledger and fresh counters.
//
// A worker that fails with a filesystem error or a lock protocol panic
// stops alone; the failure is logged and reported in [Summary.Failures].
// The rest of the run continues.
package fwg
