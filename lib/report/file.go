// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/dirload/lib/codec"
	"github.com/bureau-foundation/dirload/lib/fwg"
)

// WriteSummaries stores the summaries of a run's rounds at path as a
// sequence of CBOR items, one per round. The file is written to a
// temporary name in the same directory and renamed into place, so
// readers never see a partial file.
func WriteSummaries(path string, summaries []*fwg.Summary) error {
	temporary, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	defer os.Remove(temporary.Name())

	buffered := bufio.NewWriter(temporary)
	encoder := codec.NewEncoder(buffered)
	for _, summary := range summaries {
		if err := encoder.Encode(summary); err != nil {
			temporary.Close()
			return fmt.Errorf("encoding summary of round %d: %w", summary.Round, err)
		}
	}
	if err := buffered.Flush(); err != nil {
		temporary.Close()
		return fmt.Errorf("writing summary: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// ReadSummaries loads every summary written by WriteSummaries, in round
// order.
func ReadSummaries(path string) ([]*fwg.Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := codec.NewDecoder(bufio.NewReader(file))
	var summaries []*fwg.Summary
	for {
		var summary fwg.Summary
		err := decoder.Decode(&summary)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding summary %d of %s: %w", len(summaries)+1, path, err)
		}
		summaries = append(summaries, &summary)
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("%s holds no summaries", path)
	}
	return summaries, nil
}
