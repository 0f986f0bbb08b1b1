// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package models

// Virtual playlist ids always present per share, regardless of the
// remote server's own playlist set.
const (
	VirtualPlaylistPodcast  = "podcast"
	VirtualPlaylistPlaylist = "playlist"
)

// PlaylistInfo is the stable identity and display metadata for a
// mirrored remote playlist.
type PlaylistInfo struct {
	ID       int64
	Name     string
	Podcast  bool
	ItemIDs  int // count, used for tab visibility (must be > 0)
	BasePlay bool
}

// Visible reports whether this playlist should appear as a tab: it has
// at least one item, carries both an id and a name, and is not the
// server's hidden base playlist.
func (p PlaylistInfo) Visible() bool {
	return !p.BasePlay && p.ItemIDs > 0 && p.ID != 0 && p.Name != ""
}

// PlaylistMembership maps (ShareID, playlist id) to the set of member
// item DAAP ids, plus the two virtual playlists derived from it.
type PlaylistMembership struct {
	ShareID ShareID
	// ByPlaylist holds real, remote-advertised playlist membership.
	ByPlaylist map[int64]map[int64]struct{}
	// Podcast is the virtual union of items in podcast-flagged playlists.
	Podcast map[int64]struct{}
	// Playlist is the virtual union of items in non-podcast playlists.
	Playlist map[int64]struct{}
}

// NewPlaylistMembership returns an empty membership set for a share.
func NewPlaylistMembership(shareID ShareID) *PlaylistMembership {
	return &PlaylistMembership{
		ShareID:    shareID,
		ByPlaylist: make(map[int64]map[int64]struct{}),
		Podcast:    make(map[int64]struct{}),
		Playlist:   make(map[int64]struct{}),
	}
}
