// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package catalog

import "github.com/tomtom215/meridian/internal/models"

// ersatzFeedPrefixes are synthetic feed URLs the host model uses for
// manual and search-backed downloads; items behind them never count
// as podcast content no matter their feed membership.
var ersatzFeedPrefixes = []string{"dtv:manualFeed", "dtv:searchDownloads", "dtv:search"}

// HostItem is a single item as reported by the host's item model,
// the ingest-side input to RebuildItemRecord.
type HostItem struct {
	ItemID       int64
	PersistentID int64

	Title       string
	Name        string // fallback source for dmap.itemname if Title is empty
	Artist      string
	Album       string
	AlbumArtist string
	Genre       string
	Year        int
	Track       int

	// DurationTenths is the host's duration, tenths of a second; -1
	// means unknown.
	DurationTenths int64
	Size           int64 // -1 means unknown

	// SongFormat is the item's declared container format, empty if
	// undeclared. FilePath supplies a fallback extension.
	SongFormat string
	FilePath   string
	FileType   models.FileType

	CoverArtPath          string
	CoverArtIsPlaceholder bool

	// Show, Season, EpisodeID, and EpisodeNumber mirror the host's
	// series-name/season-num/episode-num-str/episode-sort fields for TV
	// content; zero-valued for everything else.
	Show          string
	Season        int
	EpisodeID     string
	EpisodeNumber int

	// FeedURL is non-empty when this item was downloaded from a feed.
	// A feed whose URL has an ersatz prefix never counts as a podcast.
	FeedURL string
}

// HostPlaylistKind distinguishes a user playlist from a podcast feed;
// ServerCatalog.PlaylistAdded skips folders entirely.
type HostPlaylistKind int

const (
	HostPlaylistKindPlaylist HostPlaylistKind = iota
	HostPlaylistKindFeed
)

// HostPlaylist is a single playlist or feed as reported by the host's
// playlist/feed model.
type HostPlaylist struct {
	PlaylistID   int64
	PersistentID int64
	Name         string
	Kind         HostPlaylistKind
	IsFolder     bool
	// FeedURL is only meaningful when Kind == HostPlaylistKindFeed.
	FeedURL string
}

// isErsatzFeed reports whether url is one of the synthetic,
// never-a-real-podcast feed URLs.
func isErsatzFeed(url string) bool {
	if url == "" {
		return false
	}
	for _, prefix := range ersatzFeedPrefixes {
		if len(url) >= len(prefix) && url[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// itemFromPodcast reports whether an item should be tagged as podcast
// content: it must come from a feed, and that feed must not be an
// ersatz manual/search feed.
func itemFromPodcast(i HostItem) bool {
	return i.FeedURL != "" && !isErsatzFeed(i.FeedURL)
}

// playlistIsPodcast reports whether a playlist/feed should be exported
// with the podcast flag set.
func playlistIsPodcast(p HostPlaylist) bool {
	return p.Kind == HostPlaylistKindFeed && !isErsatzFeed(p.FeedURL)
}
