// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

// AnchorDir returns a path for a run's anchor directory inside the test's
// temporary directory. The anchor itself is not created, so tests can
// check that a run creates it. Everything is removed when the test
// completes.
func AnchorDir(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "anchor")
}
