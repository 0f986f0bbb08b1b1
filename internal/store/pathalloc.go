// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// maxCandidates bounds the probe for a free mirror database slot.
const maxCandidates = 300

// PathAllocator hands out mirror database paths under one support
// directory. It is a field on the engine's top-level context rather
// than a package-level singleton, so distinct processes (and distinct
// tests) never share state through an unexported global.
type PathAllocator struct {
	mu         sync.Mutex
	supportDir string
	inUse      map[string]struct{}
}

// NewPathAllocator returns an allocator rooted at supportDir. It does
// not create the directory; callers that need it to exist should
// MkdirAll before the first Allocate.
func NewPathAllocator(supportDir string) *PathAllocator {
	return &PathAllocator{
		supportDir: supportDir,
		inUse:      make(map[string]struct{}),
	}
}

// Allocate claims the first free sharing-db-<i> path, 0 <= i <
// maxCandidates, in deterministic probe order. A path already in the
// allocator's in-use set is skipped; a stale file at a free path is
// removed before the slot is claimed. Returns an error wrapping
// ErrNoFreeSlot if every candidate is in use.
func (a *PathAllocator) Allocate() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < maxCandidates; i++ {
		path := filepath.Join(a.supportDir, fmt.Sprintf("sharing-db-%d", i))
		if _, busy := a.inUse[path]; busy {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return "", fmt.Errorf("store: remove stale mirror database %s: %w", path, err)
		}
		a.inUse[path] = struct{}{}
		return path, nil
	}
	return "", fmt.Errorf("store: no free mirror database slot under %s: %w", a.supportDir, ErrNoFreeSlot)
}

// Release frees path for reuse by a later Allocate call. Safe to call
// on a path not currently held, a no-op in that case.
func (a *PathAllocator) Release(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inUse, path)
}
