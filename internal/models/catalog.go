// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package models

// Revision is the global, monotonically increasing catalog revision
// counter. Advanced on every structural or content change to any
// ServerItemRecord or ServerPlaylistRecord.
type Revision uint64

// ServerItemRecord is a single exported item in the host catalog.
// Tombstones (Valid=false) are retained so long-poll clients on an
// older revision observe the deletion.
type ServerItemRecord struct {
	ItemID int64

	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Genre       string
	Year        int
	Track       int
	SongTimeMS  int64 // daap.songtime, milliseconds (internal ×1000 of duration)
	Size        int64
	SongFormat  string
	MediaKind   int // com.apple.itunes.mediakind numeric value
	FileType    FileType

	// Path is the filesystem path of the underlying media file.
	Path string
	// CoverArt is the filesystem path of cover art, empty if the item has
	// none or only the default placeholder.
	CoverArt string

	PersistentID int64 // host item id, mirrored to dmap.persistentid

	// Show, Season, EpisodeID, and EpisodeNumber carry the
	// com.apple.itunes.series-name/season-num/episode-num-str/episode-sort
	// quartet. Empty/zero for everything but TV-show items.
	Show          string
	Season        int
	EpisodeID     string
	EpisodeNumber int

	// Podcast is true when the item belongs to a non-ersatz feed, used
	// alongside FileType to gate visibility under the share-types config.
	Podcast bool

	Revision Revision
	Valid    bool
}

// ServerPlaylistRecord is a single exported playlist or feed.
type ServerPlaylistRecord struct {
	PlaylistID   int64
	Name         string
	Podcast      bool
	PersistentID int64 // equals PlaylistID per spec

	Revision Revision
	Valid    bool
}
