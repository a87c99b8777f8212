// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fsys is the I/O boundary of the workload engine: the only place
// that touches a filesystem.
//
// Two adapters implement [Filesystem]:
//
//   - [Unix] issues mkdir(2) and rmdir(2) through golang.org/x/sys/unix,
//     retrying on EINTR. An already existing directory is reported as
//     (false, nil) by CreateDirectory and a missing one as (false, nil) by
//     RemoveDirectory; those are normal outcomes under concurrency, not
//     failures.
//   - [Memory] keeps the namespace in a map. It enforces parent-before-child
//     and empty-before-remove the way a real filesystem does and keeps an
//     ordered log of every successful mutation, which tests use to check
//     ordering properties and which backs dry runs.
//
// No retry or backoff policy lives here; that belongs to the callers.
package fsys
