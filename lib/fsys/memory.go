// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fsys

import (
	"io/fs"
	"path/filepath"
	"sync"
)

// Mutation is one successful change recorded by Memory.
type Mutation struct {
	// Sequence orders mutations; it starts at 1 and has no gaps.
	Sequence uint64
	// Op is "mkdir" or "rmdir".
	Op   string
	Path string
}

// Memory is an in-memory Filesystem. It is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	dirs     map[string]int // path -> number of child directories
	creates  map[string]int
	log      []Mutation
	sequence uint64
}

// NewMemory returns an empty Memory containing only the filesystem root.
func NewMemory() *Memory {
	return &Memory{
		dirs:    map[string]int{string(filepath.Separator): 0},
		creates: make(map[string]int),
	}
}

func (m *Memory) CreateDirectory(path string) (bool, error) {
	path = filepath.Clean(path)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(path)
}

func (m *Memory) RemoveDirectory(path string) (bool, error) {
	path = filepath.Clean(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	children, ok := m.dirs[path]
	if !ok {
		return false, nil
	}
	if children > 0 {
		return false, &PathError{Op: "rmdir", Path: path, Err: ErrNotEmpty}
	}
	delete(m.dirs, path)
	m.dirs[filepath.Dir(path)]--
	m.appendLocked("rmdir", path)
	return true, nil
}

func (m *Memory) EnsureDirectory(path string) error {
	path = filepath.Clean(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	var missing []string
	for current := path; ; current = filepath.Dir(current) {
		if _, ok := m.dirs[current]; ok {
			break
		}
		missing = append(missing, current)
		if filepath.Dir(current) == current {
			break
		}
	}
	for i := len(missing) - 1; i >= 0; i-- {
		if _, err := m.createLocked(missing[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) DirectoryExists(path string) (bool, error) {
	return m.Exists(path), nil
}

// Exists reports whether path is a directory.
func (m *Memory) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.dirs[filepath.Clean(path)]
	return ok
}

// Creates returns how many times path was newly created.
func (m *Memory) Creates(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates[filepath.Clean(path)]
}

// Log returns a copy of every recorded mutation in order.
func (m *Memory) Log() []Mutation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mutation(nil), m.log...)
}

// Len returns the number of directories, including the filesystem root.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dirs)
}

func (m *Memory) createLocked(path string) (bool, error) {
	if _, ok := m.dirs[path]; ok {
		return false, nil
	}
	parent := filepath.Dir(path)
	if _, ok := m.dirs[parent]; !ok {
		return false, &PathError{Op: "mkdir", Path: path, Err: fs.ErrNotExist}
	}
	m.dirs[path] = 0
	m.dirs[parent]++
	m.creates[path]++
	m.appendLocked("mkdir", path)
	return true, nil
}

func (m *Memory) appendLocked(op, path string) {
	m.sequence++
	m.log = append(m.log, Mutation{Sequence: m.sequence, Op: op, Path: path})
}
