// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package fake

import (
	"strconv"
	"sync"

	"github.com/tomtom215/meridian/internal/daapengine"
)

// Remote is the test fixture behind a fake Client: the state of one
// simulated DAAP server, mutated directly by a test to model the
// remote host publishing changes. Every mutator bumps the generation
// counter and wakes any Client blocked in Update.
type Remote struct {
	mu   sync.Mutex
	cond *sync.Cond

	supportsUpdate bool
	closed         bool
	generation     uint64

	databases     []int64
	items         map[int64]daapengine.ItemFields
	playlists     map[int64]daapengine.PlaylistFields
	playlistItems map[int64]map[int64]struct{}

	fileURL func(itemID int64, songFormat string) (string, error)
}

// NewRemote returns an empty fixture. supportsUpdate controls what
// Client.SupportsUpdate reports.
func NewRemote(supportsUpdate bool) *Remote {
	r := &Remote{
		supportsUpdate: supportsUpdate,
		databases:      []int64{1},
		items:          make(map[int64]daapengine.ItemFields),
		playlists:      make(map[int64]daapengine.PlaylistFields),
		playlistItems:  make(map[int64]map[int64]struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	r.fileURL = func(itemID int64, songFormat string) (string, error) {
		return fakeStreamURL(itemID, songFormat), nil
	}
	return r
}

func fakeStreamURL(itemID int64, songFormat string) string {
	return "fake://stream/" + strconv.FormatInt(itemID, 10) + "." + songFormat
}

// SetFileURLFunc overrides how DAAPGetFileRequest builds a stream URL;
// useful to simulate daapengine.ErrNotFound for an unknown item.
func (r *Remote) SetFileURLFunc(f func(itemID int64, songFormat string) (string, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fileURL = f
}

// SetItem adds or replaces an item and bumps the generation.
func (r *Remote) SetItem(id int64, fields daapengine.ItemFields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = fields
	r.bumpLocked()
}

// DeleteItem removes an item, and any playlist membership referencing
// it, and bumps the generation.
func (r *Remote) DeleteItem(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	for _, members := range r.playlistItems {
		delete(members, id)
	}
	r.bumpLocked()
}

// SetPlaylist adds or replaces a playlist and bumps the generation.
func (r *Remote) SetPlaylist(id int64, fields daapengine.PlaylistFields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playlists[id] = fields
	if _, ok := r.playlistItems[id]; !ok {
		r.playlistItems[id] = make(map[int64]struct{})
	}
	r.bumpLocked()
}

// DeletePlaylist removes a playlist and bumps the generation.
func (r *Remote) DeletePlaylist(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.playlists, id)
	delete(r.playlistItems, id)
	r.bumpLocked()
}

// SetPlaylistMembership replaces the full item-id membership of a
// playlist and bumps the generation.
func (r *Remote) SetPlaylistMembership(playlistID int64, itemIDs []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		members[id] = struct{}{}
	}
	r.playlistItems[playlistID] = members
	r.bumpLocked()
}

// Close marks the remote unreachable: Connect on a new Client fails,
// and any Client blocked in Update unblocks with an error wrapping
// daapengine.ErrNetwork.
func (r *Remote) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cond.Broadcast()
}

func (r *Remote) bumpLocked() {
	r.generation++
	r.cond.Broadcast()
}
