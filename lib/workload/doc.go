// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package workload holds the run-wide state that structural workers
// consult but do not own:
//
//   - [Completion] is the completion oracle. Workers poll Done at the top
//     of every retry iteration; the run finishes it exactly once.
//   - [Registry] tracks how many workers of each [Kind] are active, which
//     is what the termination policy asks ("is anyone still deleting?").
//   - [Counters] is the statistics sink for structural events.
//
// All three are safe for concurrent use and never block their callers.
package workload
