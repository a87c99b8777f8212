// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fsys

import (
	"errors"
	"fmt"
)

// Filesystem creates and removes single directories.
type Filesystem interface {
	// CreateDirectory creates path. created is false when a directory
	// already exists there.
	CreateDirectory(path string) (created bool, err error)

	// RemoveDirectory removes the empty directory path. removed is false
	// when nothing exists there.
	RemoveDirectory(path string) (removed bool, err error)

	// EnsureDirectory creates path and any missing ancestors.
	EnsureDirectory(path string) error

	// DirectoryExists reports whether a directory is at path. A missing
	// path or a non-directory is false.
	DirectoryExists(path string) (bool, error)
}

// PathError is a filesystem failure other than the tolerated
// already-exists and does-not-exist outcomes.
type PathError struct {
	// Op is "mkdir", "rmdir", or "stat".
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

var (
	// ErrNotDirectory is returned when a non-directory occupies a path
	// that should hold a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotEmpty is returned by Memory when removing a directory that
	// still has children.
	ErrNotEmpty = errors.New("directory not empty")
)
