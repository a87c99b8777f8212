// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds test helpers shared by dirload packages.
//
// [RequireReceive] and [RequireClosed] bound every wait on a worker
// goroutine with a wall-clock timeout, so a deadlocked lock protocol
// fails the test instead of hanging it. They are the only real timers in
// the test suite; everything else runs on lib/clock's fake clock.
//
// [AnchorDir] gives a test a not-yet-created anchor path under
// t.TempDir() for runs against the real filesystem.
package testutil
