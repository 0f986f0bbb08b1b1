// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package hostbus

import "github.com/tomtom215/meridian/internal/catalog"

// PublishItemList publishes a full-replacement item list, scoped to
// playlistID (nil for the catalog-wide list).
func (b *Bus) PublishItemList(playlistID *int64, items []catalog.HostItem) error {
	return b.Publish(Envelope{Kind: KindItemList, PlaylistID: playlistID, Items: items})
}

// PublishItemsChanged publishes an incremental item delta, scoped to
// playlistID (nil for catalog-wide).
func (b *Bus) PublishItemsChanged(playlistID *int64, added, changed []catalog.HostItem, removed []int64) error {
	return b.Publish(Envelope{Kind: KindItemsChanged, PlaylistID: playlistID, Added: added, Changed: changed, Removed: removed})
}

// PublishPlaylistAdded publishes newly reported playlists/feeds.
func (b *Bus) PublishPlaylistAdded(playlists []catalog.HostPlaylist) error {
	return b.Publish(Envelope{Kind: KindPlaylistAdded, Playlists: playlists})
}

// PublishPlaylistRemoved publishes removed playlist/feed ids.
func (b *Bus) PublishPlaylistRemoved(ids []int64) error {
	return b.Publish(Envelope{Kind: KindPlaylistRemoved, Removed: ids})
}
