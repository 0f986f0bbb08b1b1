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

	"github.com/tomtom215/meridian/internal/models"
)

// testMirrorSemaphore serializes DuckDB CGO connection creation across
// this package's tests, matching the concurrency-limiting idiom used
// elsewhere for in-process DuckDB tests.
var testMirrorSemaphore = make(chan struct{}, 1)

func openTestMirror(t *testing.T) *MirrorDB {
	t.Helper()
	testMirrorSemaphore <- struct{}{}
	t.Cleanup(func() { <-testMirrorSemaphore })

	m, err := OpenMirror(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestMirrorDBUpsertAndList(t *testing.T) {
	m := openTestMirror(t)
	ctx := context.Background()

	item := &models.SharingItem{
		ShareID: 1, DAAPID: 100, Title: "Track One", Artist: "Artist",
		FileType: models.FileTypeAudio, Kind: models.ItemKindMovie,
		Show: "Some Show", Season: 2, EpisodeID: "S02E05", Episode: 5,
	}
	require.NoError(t, m.UpsertItem(ctx, item))

	items, err := m.ListItems(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Track One", items[0].Title)
	assert.Equal(t, models.FileTypeAudio, items[0].FileType)
	assert.Equal(t, "Some Show", items[0].Show)
	assert.Equal(t, "S02E05", items[0].EpisodeID, "episode-num-str must round-trip distinct from the numeric episode sort key")
	assert.Equal(t, 5, items[0].Episode)
}

func TestMirrorDBUpsertReplacesExisting(t *testing.T) {
	m := openTestMirror(t)
	ctx := context.Background()

	require.NoError(t, m.UpsertItem(ctx, &models.SharingItem{ShareID: 1, DAAPID: 1, Title: "Old"}))
	require.NoError(t, m.UpsertItem(ctx, &models.SharingItem{ShareID: 1, DAAPID: 1, Title: "New"}))

	items, err := m.ListItems(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "New", items[0].Title)
}

func TestMirrorDBDeleteItem(t *testing.T) {
	m := openTestMirror(t)
	ctx := context.Background()

	require.NoError(t, m.UpsertItem(ctx, &models.SharingItem{ShareID: 1, DAAPID: 1, Title: "Gone Soon"}))
	require.NoError(t, m.DeleteItem(ctx, 1, 1))

	items, err := m.ListItems(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMirrorDBPurgeEmptiesAllShares(t *testing.T) {
	m := openTestMirror(t)
	ctx := context.Background()

	require.NoError(t, m.UpsertItem(ctx, &models.SharingItem{ShareID: 1, DAAPID: 1, Title: "A"}))
	require.NoError(t, m.UpsertItem(ctx, &models.SharingItem{ShareID: 2, DAAPID: 1, Title: "B"}))

	require.NoError(t, m.Purge(ctx))

	items1, err := m.ListItems(ctx, 1)
	require.NoError(t, err)
	items2, err := m.ListItems(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, items1)
	assert.Empty(t, items2)
}

func TestMirrorDBListItemsScopedToShare(t *testing.T) {
	m := openTestMirror(t)
	ctx := context.Background()

	require.NoError(t, m.UpsertItem(ctx, &models.SharingItem{ShareID: 1, DAAPID: 1, Title: "Mine"}))
	require.NoError(t, m.UpsertItem(ctx, &models.SharingItem{ShareID: 2, DAAPID: 1, Title: "Theirs"}))

	items, err := m.ListItems(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mine", items[0].Title)
}
