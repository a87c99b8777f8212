// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the binary entrypoint helper for dirload:
// reporting an error from main() before or after the structured logger
// exists, and exiting with the right code.
package process
