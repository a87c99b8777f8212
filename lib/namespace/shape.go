// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"errors"
	"fmt"
)

// MaxDirectories caps the size of a declared tree. The whole tree is
// allocated up front, so an absurd shape fails fast instead of exhausting
// memory.
const MaxDirectories = 10_000_000

// Shape declares the synthetic tree below the anchor: Depth levels of
// directories, each directory having Width children (the deepest level has
// none).
type Shape struct {
	Depth int `yaml:"depth" cbor:"depth"`
	Width int `yaml:"width" cbor:"width"`
}

// ErrShapeTooLarge is returned when a shape declares more than
// MaxDirectories directories.
var ErrShapeTooLarge = errors.New("namespace: shape declares too many directories")

// Validate reports whether the shape can be built.
func (s Shape) Validate() error {
	if s.Depth < 0 {
		return fmt.Errorf("namespace: depth must not be negative, got %d", s.Depth)
	}
	if s.Depth > 0 && s.Width < 1 {
		return fmt.Errorf("namespace: width must be at least 1, got %d", s.Width)
	}
	_, err := s.Total()
	return err
}

// LevelCounts returns the number of directories at each level, starting
// with the level directly below the anchor.
func (s Shape) LevelCounts() ([]int, error) {
	counts := make([]int, 0, max(s.Depth, 0))
	level, total := 1, 0
	for range s.Depth {
		level *= s.Width
		total += level
		if level > MaxDirectories || total > MaxDirectories {
			return nil, fmt.Errorf("%w: depth %d width %d exceeds %d",
				ErrShapeTooLarge, s.Depth, s.Width, MaxDirectories)
		}
		counts = append(counts, level)
	}
	return counts, nil
}

// Total returns the number of directories the shape declares, excluding
// the anchor itself.
func (s Shape) Total() (int, error) {
	counts, err := s.LevelCounts()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, count := range counts {
		total += count
	}
	return total, nil
}
