// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build information for the dirload binary.
//
// Variables are injected at build time via -ldflags -X, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/dirload/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/dirload
//
// They default to "unknown" and "0.1.0-dev" in development builds and
// tests. [Info] is the --version line; [Full] adds the Go version,
// platform, and CPU count, which matter when comparing workload numbers
// between machines.
package version
