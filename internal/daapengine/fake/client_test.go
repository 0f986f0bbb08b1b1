// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package fake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/meridian/internal/daapengine"
)

func connectedClient(t *testing.T, remote *Remote) daapengine.Client {
	t.Helper()
	c := NewDialer(remote).Dial("192.0.2.1", 3689)
	require.NoError(t, c.Connect(context.Background()))
	return c
}

func TestClientItemsSnapshotThenIncrementalDiff(t *testing.T) {
	remote := NewRemote(true)
	remote.SetItem(1, daapengine.ItemFields{ItemName: "Track One"})
	remote.SetItem(2, daapengine.ItemFields{ItemName: "Track Two"})

	c := connectedClient(t, remote)

	added, deleted, err := c.Items(context.Background(), nil, false, nil)
	require.NoError(t, err)
	assert.Len(t, added, 2)
	assert.Empty(t, deleted)

	remote.SetItem(1, daapengine.ItemFields{ItemName: "Track One Renamed"})
	remote.DeleteItem(2)

	added, deleted, err = c.Items(context.Background(), nil, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "Track One Renamed", added[1].ItemName)
	assert.Equal(t, []int64{2}, deleted)
}

func TestClientItemsScopedByPlaylist(t *testing.T) {
	remote := NewRemote(true)
	remote.SetItem(1, daapengine.ItemFields{ItemName: "In playlist"})
	remote.SetItem(2, daapengine.ItemFields{ItemName: "Not in playlist"})
	remote.SetPlaylist(10, daapengine.PlaylistFields{ItemName: "Favorites"})
	remote.SetPlaylistMembership(10, []int64{1})

	c := connectedClient(t, remote)
	playlistID := int64(10)

	added, _, err := c.Items(context.Background(), nil, false, &playlistID)
	require.NoError(t, err)
	assert.Len(t, added, 1)
	_, ok := added[1]
	assert.True(t, ok)
}

func TestClientUpdateUnblocksOnRemoteChange(t *testing.T) {
	remote := NewRemote(true)
	c := connectedClient(t, remote)

	done := make(chan error, 1)
	go func() {
		done <- c.Update(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	remote.SetItem(1, daapengine.ItemFields{ItemName: "New"})

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Update did not unblock on remote change")
	}
}

func TestClientUpdateUnblocksOnContextCancel(t *testing.T) {
	remote := NewRemote(true)
	c := connectedClient(t, remote)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Update(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Update did not unblock on context cancel")
	}
}

func TestClientUpdateUnblocksOnDisconnect(t *testing.T) {
	remote := NewRemote(true)
	c := connectedClient(t, remote)

	done := make(chan error, 1)
	go func() {
		done <- c.Update(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.Disconnect())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, daapengine.ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("Update did not unblock on disconnect")
	}
}

func TestClientDAAPGetFileRequestUnknownItem(t *testing.T) {
	remote := NewRemote(true)
	c := connectedClient(t, remote)

	_, err := c.DAAPGetFileRequest(99, "mp3")
	assert.ErrorIs(t, err, daapengine.ErrNotFound)
}

func TestClientConnectToClosedRemote(t *testing.T) {
	remote := NewRemote(true)
	remote.Close()

	c := NewDialer(remote).Dial("192.0.2.1", 3689)
	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, daapengine.ErrNetwork)
}
