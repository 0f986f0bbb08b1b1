// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package daapengine

// ItemFields is a single remote item as handed back by Client.Items,
// keyed on the wire's own DMAP tag names rather than the local
// SharingItem attribute names; the ClientSession, not this package,
// owns translating between the two (see the DAAP field mapping a
// ClientSession applies on ingest).
type ItemFields struct {
	SongFormat    string
	MediaKind     int // com.apple.itunes.mediakind numeric value
	ItemName      string
	SongTime      int64 // daap.songtime, milliseconds
	SongSize      int64
	SongArtist    string
	AlbumArtist   string
	SongAlbum     string
	SongYear      int
	SongGenre     string
	TrackNumber   int
	MiroItemKind  int // bitmask: movie=1, podcast=2, show=4, clip=8
	SeriesName    string
	SeasonNumber  int
	EpisodeNumStr string
	EpisodeNumber int
}

// PlaylistFields is a single remote playlist or podcast feed as handed
// back by Client.Playlists.
type PlaylistFields struct {
	ItemName          string
	IsPodcastPlaylist bool
	BasePlaylist      bool
	ItemCount         int
}

// ItemUpdate is the outbound counterpart: the fields a Server computes
// from a local ServerItemRecord to answer a remote client's request.
// name substitutes for title per the outbound direction of the mapping.
type ItemUpdate struct {
	ItemID     int64
	Name       string
	ItemFields ItemFields
}
