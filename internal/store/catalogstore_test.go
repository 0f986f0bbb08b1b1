// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/meridian/internal/config"
	"github.com/tomtom215/meridian/internal/models"
)

func openTestCatalogStore(t *testing.T) *CatalogStore {
	t.Helper()
	testMirrorSemaphore <- struct{}{}
	t.Cleanup(func() { <-testMirrorSemaphore })

	s, err := OpenCatalogStore(config.DatabaseConfig{Path: ":memory:", Threads: 1})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCatalogStorePutAndLoadItems(t *testing.T) {
	s := openTestCatalogStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutItem(ctx, models.ServerItemRecord{
		ItemID: 1, Title: "Song", Revision: 5, Valid: true,
	}))
	require.NoError(t, s.PutItem(ctx, models.ServerItemRecord{
		ItemID: 2, Title: "Deleted Song", Revision: 6, Valid: false,
	}))

	items, err := s.LoadItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byID := make(map[int64]models.ServerItemRecord)
	for _, it := range items {
		byID[it.ItemID] = it
	}
	assert.True(t, byID[1].Valid)
	assert.False(t, byID[2].Valid)
	assert.Equal(t, models.Revision(6), byID[2].Revision)
}

func TestCatalogStorePutItemReplacesOnConflict(t *testing.T) {
	s := openTestCatalogStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutItem(ctx, models.ServerItemRecord{ItemID: 1, Title: "Old", Revision: 1, Valid: true}))
	require.NoError(t, s.PutItem(ctx, models.ServerItemRecord{ItemID: 1, Title: "New", Revision: 2, Valid: true}))

	items, err := s.LoadItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "New", items[0].Title)
	assert.Equal(t, models.Revision(2), items[0].Revision)
}

func TestCatalogStorePutAndLoadPlaylists(t *testing.T) {
	s := openTestCatalogStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutPlaylist(ctx, models.ServerPlaylistRecord{
		PlaylistID: 10, Name: "Library", PersistentID: 10, Revision: 1, Valid: true,
	}))

	playlists, err := s.LoadPlaylists(ctx)
	require.NoError(t, err)
	require.Len(t, playlists, 1)
	assert.Equal(t, "Library", playlists[0].Name)
}
