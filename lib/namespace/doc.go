// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package namespace holds the in-memory directory tree that structural
// workers mutate.
//
// A [Tree] is built once from a [Shape] (depth and fan-out) and owns every
// [Directory] in a single arena slice laid out level by level, so the
// children of a directory are a contiguous sub-slice and parent links are
// plain pointers into the arena. Nothing is freed until the tree itself is
// dropped at the end of a run.
//
// Each directory carries two pieces of mutable state:
//
//   - busy: an exclusive, non-blocking lock holding the [WorkerID] of its
//     owner. [Directory.TrySetBusy] never waits; callers record why they
//     could not proceed and go pick other work.
//   - exists: whether this process has materialized the directory on the
//     filesystem. It is never answered by stat; it only changes inside
//     [Directory.Materialize] and [Directory.Dematerialize], both of which
//     require the caller to hold the busy lock.
//
// Misusing the lock (taking a lock the caller already holds, releasing a
// lock held by someone else, mutating without the lock) is a programming
// error and panics with the path and worker involved.
package namespace
