// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package anchor picks the directory a structural worker should try next.
//
// An [Anchor] wraps the namespace tree rooted at the anchor directory and
// is shared by every worker of a run. Selection never locks a directory;
// it only hands out candidates, and the worker's lock protocol decides
// what to do with them.
//
// The candidate space depends on the run mode. A format run only hands out
// the directories directly below the anchor, because creating one of those
// materializes its whole declared subtree. Other runs hand out every
// directory in the tree.
package anchor
