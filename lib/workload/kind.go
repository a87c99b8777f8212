// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import "fmt"

// Kind is a family of structural operation.
type Kind int

const (
	// KindMkdir creates directories.
	KindMkdir Kind = iota
	// KindRmdir deletes directories.
	KindRmdir

	kindCount
)

var kindNames = [kindCount]string{
	KindMkdir: "mkdir",
	KindRmdir: "rmdir",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps an operation name from a workload definition to a Kind.
func ParseKind(name string) (Kind, error) {
	for i, candidate := range kindNames {
		if candidate == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("workload: unknown operation %q (want mkdir or rmdir)", name)
}

// Deletes reports whether the kind removes directories.
func (k Kind) Deletes() bool { return k == KindRmdir }
