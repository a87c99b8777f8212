// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package blocked counts why structural workers could not make progress.
//
// A [Ledger] is owned by one run and handed to every worker. Recording is
// a lock-free increment plus an atomic store of the triggering path; it
// never fails and never blocks. Counts are diagnostic: concurrent readers
// may observe slightly stale values.
package blocked
