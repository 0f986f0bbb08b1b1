// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package hostbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/meridian/internal/catalog"
	"github.com/tomtom215/meridian/internal/models"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	bus, err := NewGoChannelBus(DefaultConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func runBus(t *testing.T, bus *Bus) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = bus.Run(ctx)
	}()
	select {
	case <-bus.Running():
	case <-time.After(2 * time.Second):
		t.Fatal("bus did not start running in time")
	}
}

func TestCatalogSinkUnscopedItemList(t *testing.T) {
	bus := newTestBus(t)
	cat := catalog.New()
	sink := NewCatalogSink(bus, cat)
	sink.Start(nil)
	runBus(t, bus)

	require.NoError(t, bus.PublishItemList(nil, []catalog.HostItem{
		{ItemID: 1, Title: "One", FileType: models.FileTypeAudio},
	}))

	require.Eventually(t, func() bool {
		_, ok := cat.GetItem(1)
		return ok
	}, time.Second, 10*time.Millisecond)

	item, ok := cat.GetItem(1)
	require.True(t, ok)
	assert.Equal(t, "One", item.Title)
}

func TestCatalogSinkScopedItemsChanged(t *testing.T) {
	bus := newTestBus(t)
	cat := catalog.New()
	playlistID := int64(10)
	sink := NewCatalogSink(bus, cat)
	sink.Start([]int64{playlistID})
	runBus(t, bus)

	require.NoError(t, bus.PublishItemsChanged(&playlistID,
		[]catalog.HostItem{{ItemID: 5, Title: "Five", FileType: models.FileTypeAudio}}, nil, nil))

	require.Eventually(t, func() bool {
		return len(cat.GetItems(&playlistID)) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestCatalogSinkPlaylistAddedAndRemoved(t *testing.T) {
	bus := newTestBus(t)
	cat := catalog.New()
	sink := NewCatalogSink(bus, cat)
	sink.Start(nil)
	runBus(t, bus)

	require.NoError(t, bus.PublishPlaylistAdded([]catalog.HostPlaylist{
		{PlaylistID: 1, Name: "Mix"},
	}))
	require.Eventually(t, func() bool {
		return len(cat.GetPlaylists()) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.PublishPlaylistRemoved([]int64{1}))
	require.Eventually(t, func() bool {
		playlists := cat.GetPlaylists()
		return len(playlists) == 1 && !playlists[0].Valid
	}, time.Second, 10*time.Millisecond)
}

func TestEnvelopeTopicRouting(t *testing.T) {
	assert.Equal(t, "host.items", Envelope{Kind: KindItemList}.Topic())
	id := int64(7)
	assert.Equal(t, "host.items.7", Envelope{Kind: KindItemList, PlaylistID: &id}.Topic())
	assert.Equal(t, "host.playlists", Envelope{Kind: KindPlaylistAdded}.Topic())
	assert.Equal(t, "host.playlists", Envelope{Kind: KindPlaylistRemoved}.Topic())
}

func TestEnvelopeMarshalRoundTrip(t *testing.T) {
	id := int64(3)
	e := Envelope{
		Kind:       KindItemsChanged,
		PlaylistID: &id,
		Added:      []catalog.HostItem{{ItemID: 1, Title: "One"}},
		Removed:    []int64{2},
	}
	data, err := Marshal(e)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, e.Kind, got.Kind)
	require.NotNil(t, got.PlaylistID)
	assert.Equal(t, int64(3), *got.PlaylistID)
	assert.Equal(t, []int64{2}, got.Removed)
}
