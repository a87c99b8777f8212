// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the dirload binary:
// a tree of [Command] values with pflag flag sets, structured help
// output, and typo suggestions for unknown commands and flags.
//
// Commands that need a logger build one with [NewCommandLogger], which
// writes text to a terminal and JSON otherwise. A command that has
// already reported its outcome and only needs a non-zero exit status
// returns an [ExitError].
package cli
