// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package fsys

import (
	"errors"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DefaultMode is the permission mode for created directories, before the
// process umask.
const DefaultMode = 0o755

// Unix is the real filesystem adapter.
type Unix struct {
	mode uint32
}

// NewUnix returns a Unix adapter creating directories with mode.
func NewUnix(mode uint32) *Unix {
	return &Unix{mode: mode}
}

func (u *Unix) CreateDirectory(path string) (bool, error) {
	for {
		err := unix.Mkdir(path, u.mode)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EEXIST):
			// Only an existing directory is tolerated.
			if err := u.checkDirectory(path); err != nil {
				return false, err
			}
			return false, nil
		default:
			return false, &PathError{Op: "mkdir", Path: path, Err: err}
		}
	}
}

func (u *Unix) RemoveDirectory(path string) (bool, error) {
	for {
		err := unix.Rmdir(path)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ENOENT):
			return false, nil
		default:
			return false, &PathError{Op: "rmdir", Path: path, Err: err}
		}
	}
}

func (u *Unix) EnsureDirectory(path string) error {
	path = filepath.Clean(path)
	_, err := u.CreateDirectory(path)
	if err == nil {
		return nil
	}
	var pathErr *PathError
	if !errors.As(err, &pathErr) || !errors.Is(pathErr.Err, unix.ENOENT) {
		return err
	}

	parent := filepath.Dir(path)
	if parent == path {
		return err
	}
	if err := u.EnsureDirectory(parent); err != nil {
		return err
	}
	_, err = u.CreateDirectory(path)
	return err
}

func (u *Unix) DirectoryExists(path string) (bool, error) {
	var stat unix.Stat_t
	for {
		err := unix.Lstat(path, &stat)
		switch {
		case err == nil:
			return stat.Mode&unix.S_IFMT == unix.S_IFDIR, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENOTDIR):
			return false, nil
		default:
			return false, &PathError{Op: "stat", Path: path, Err: err}
		}
	}
}

func (u *Unix) checkDirectory(path string) error {
	var stat unix.Stat_t
	for {
		err := unix.Lstat(path, &stat)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return &PathError{Op: "stat", Path: path, Err: err}
		}
		break
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFDIR {
		return &PathError{Op: "mkdir", Path: path, Err: ErrNotDirectory}
	}
	return nil
}
