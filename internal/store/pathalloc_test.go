// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathAllocatorClaimsDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	a := NewPathAllocator(dir)

	first, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sharing-db-0"), first)

	second, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sharing-db-1"), second)
}

func TestPathAllocatorReleaseAllowsReuse(t *testing.T) {
	dir := t.TempDir()
	a := NewPathAllocator(dir)

	first, err := a.Allocate()
	require.NoError(t, err)

	a.Release(first)

	reused, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, first, reused)
}

func TestPathAllocatorRemovesStaleFile(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "sharing-db-0")
	require.NoError(t, os.WriteFile(stale, []byte("leftover"), 0o600))

	a := NewPathAllocator(dir)
	path, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, stale, path)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestPathAllocatorExhaustion(t *testing.T) {
	dir := t.TempDir()
	a := NewPathAllocator(dir)
	for i := 0; i < maxCandidates; i++ {
		_, err := a.Allocate()
		require.NoError(t, err)
	}

	_, err := a.Allocate()
	assert.ErrorIs(t, err, ErrNoFreeSlot)
}

func TestPathAllocatorSkipsFilesForOtherShares(t *testing.T) {
	dir := t.TempDir()
	a := NewPathAllocator(dir)

	claimed := make(map[string]bool)
	for i := 0; i < 5; i++ {
		path, err := a.Allocate()
		require.NoError(t, err)
		require.False(t, claimed[path], "path %s allocated twice", path)
		claimed[path] = true
	}
	assert.Len(t, claimed, 5)
	for i := 0; i < 5; i++ {
		assert.True(t, claimed[filepath.Join(dir, fmt.Sprintf("sharing-db-%d", i))])
	}
}
