// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package hostbus

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/meridian/internal/catalog"
)

// Kind identifies which ServerCatalog ingest call an Envelope carries.
type Kind string

const (
	KindItemList        Kind = "item_list"
	KindItemsChanged    Kind = "items_changed"
	KindPlaylistAdded   Kind = "playlist_added"
	KindPlaylistRemoved Kind = "playlist_removed"
)

// Envelope is the wire format for one host-model change event. Only the
// fields relevant to Kind are populated; PlaylistID is nil for the
// unscoped item stream, matching the original's item_list_callbacks/
// item_changed_callbacks registration keyed by (type, playlist_id).
type Envelope struct {
	Kind       Kind                  `json:"kind"`
	PlaylistID *int64                `json:"playlist_id,omitempty"`
	Items      []catalog.HostItem    `json:"items,omitempty"`
	Added      []catalog.HostItem    `json:"added,omitempty"`
	Changed    []catalog.HostItem    `json:"changed,omitempty"`
	Removed    []int64               `json:"removed,omitempty"`
	Playlists  []catalog.HostPlaylist `json:"playlists,omitempty"`
}

// Topic returns the subject an Envelope is published/subscribed under.
// Playlist-scoped item events get their own subject per playlist id so
// CatalogSink can subscribe one handler per tracked playlist, exactly
// as the original scopes its callbacks.
func (e Envelope) Topic() string {
	switch e.Kind {
	case KindPlaylistAdded, KindPlaylistRemoved:
		return "host.playlists"
	default:
		if e.PlaylistID == nil {
			return "host.items"
		}
		return fmt.Sprintf("host.items.%d", *e.PlaylistID)
	}
}

// ItemListTopic computes a subscription subject from a playlist id
// without needing to build an Envelope first.
func ItemListTopic(playlistID *int64) string {
	if playlistID == nil {
		return "host.items"
	}
	return fmt.Sprintf("host.items.%d", *playlistID)
}

// PlaylistsTopic is the single subject both PlaylistAdded and
// PlaylistRemoved events publish to; CatalogSink dispatches on Kind.
const PlaylistsTopic = "host.playlists"

// Marshal encodes an Envelope to JSON.
func Marshal(e Envelope) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("hostbus: marshal envelope: %w", err)
	}
	return data, nil
}

// Unmarshal decodes an Envelope from JSON.
func Unmarshal(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("hostbus: unmarshal envelope: %w", err)
	}
	return e, nil
}
