// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// dirload drives concurrent directory create and delete workloads
// against a synthetic tree below an anchor directory.
//
// Usage:
//
//	dirload run --config workload.yaml
//	dirload run --anchor /mnt/test/dirload --depth 3 --width 10 --format
//	dirload run --operation mkdir:16:random --operation rmdir:4:random --elapsed 1m
//	dirload run --config workload.yaml --rounds 3 --summary-file rounds.cbor
//	dirload shape --depth 4 --width 8
//	dirload version
//
// A run prints a report to stdout when every worker has stopped and
// logs progress to stderr. SIGINT and SIGTERM end the run early; the
// report is still printed. Every round starts from the directories
// already below the anchor, including those left by an earlier run. The
// exit status is 2 when any worker failed or a directory lock was left
// held; no further rounds run after that.
package main
