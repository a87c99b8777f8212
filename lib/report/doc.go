// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package report presents a run summary: [Render] draws it as terminal
// tables with lipgloss, and [WriteSummaries] stores the summaries of a
// run's rounds as a CBOR stream that [ReadSummaries] loads back.
package report
