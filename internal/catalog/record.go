// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package catalog

import (
	"path/filepath"
	"strings"

	"github.com/tomtom215/meridian/internal/models"
)

const (
	mediaKindAudio = 1
	mediaKindVideo = 6

	defaultAudioExt = "mp3"
	defaultVideoExt = "mp4"
)

var supportedFormats = map[string]struct{}{
	"mp3": {}, "m4a": {}, "aac": {}, "flac": {}, "ogg": {}, "wav": {},
	"mp4": {}, "m4v": {}, "mov": {}, "mkv": {}, "avi": {}, "webm": {},
}

func sentinelToZeroInt(v int) int {
	if v == -1 {
		return 0
	}
	return v
}

func sentinelToZeroInt64(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// resolveFormat implements the songformat fixup: prefer the item's
// declared format if it's one this engine actually serves; otherwise
// derive it from the file extension; otherwise fall back to the
// file-type default. The leading dot is always stripped.
func resolveFormat(declared, filePath string, fileType models.FileType) string {
	d := strings.TrimPrefix(strings.ToLower(declared), ".")
	if _, ok := supportedFormats[d]; ok {
		return d
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	if _, ok := supportedFormats[ext]; ok {
		return ext
	}
	if fileType == models.FileTypeVideo {
		return defaultVideoExt
	}
	return defaultAudioExt
}

func mediaKindFor(fileType models.FileType) int {
	if fileType == models.FileTypeVideo {
		return mediaKindVideo
	}
	return mediaKindAudio
}

// RebuildItemRecord derives a ServerItemRecord from a host item,
// applying the full set of record-construction fixups: -1 sentinels
// become 0, dmap.itemname prefers Title falling back to Name, the
// songformat/mediakind pair is derived from file type, container and
// persistent ids are stamped, the podcast flag is set from feed
// membership, and cover art is only exposed when it isn't the default
// placeholder. The caller supplies the revision to stamp.
func RebuildItemRecord(item HostItem, revision models.Revision) *models.ServerItemRecord {
	title := item.Title
	if title == "" {
		title = item.Name
	}

	rec := &models.ServerItemRecord{
		ItemID:        item.ItemID,
		PersistentID:  item.PersistentID,
		Title:         title,
		Artist:        item.Artist,
		Album:         item.Album,
		AlbumArtist:   item.AlbumArtist,
		Genre:         item.Genre,
		Year:          sentinelToZeroInt(item.Year),
		Track:         sentinelToZeroInt(item.Track),
		SongTimeMS:    sentinelToZeroInt64(item.DurationTenths) * durationScale,
		Size:          sentinelToZeroInt64(item.Size),
		SongFormat:    resolveFormat(item.SongFormat, item.FilePath, item.FileType),
		MediaKind:     mediaKindFor(item.FileType),
		FileType:      item.FileType,
		Path:          item.FilePath,
		Show:          item.Show,
		Season:        sentinelToZeroInt(item.Season),
		EpisodeID:     item.EpisodeID,
		EpisodeNumber: sentinelToZeroInt(item.EpisodeNumber),
		Podcast:       itemFromPodcast(item),
		Revision:      revision,
		Valid:         true,
	}
	if !item.CoverArtIsPlaceholder {
		rec.CoverArt = item.CoverArtPath
	}
	return rec
}

// durationScale is the tenths-of-a-second-to-milliseconds conversion
// factor applied on export, matching the factor applied on import.
const durationScale = 1000

// RebuildPlaylistRecord derives a ServerPlaylistRecord from a host
// playlist or feed. Folders are never passed in here; PlaylistAdded
// filters them out first.
func RebuildPlaylistRecord(p HostPlaylist, revision models.Revision) *models.ServerPlaylistRecord {
	return &models.ServerPlaylistRecord{
		PlaylistID:   p.PlaylistID,
		Name:         p.Name,
		Podcast:      playlistIsPodcast(p),
		PersistentID: p.PlaylistID,
		Revision:     revision,
		Valid:        true,
	}
}

// tombstoneItem returns a record carrying no data but preserving id and
// revision, the shape a client still observes transitions through.
func tombstoneItem(itemID int64, revision models.Revision) *models.ServerItemRecord {
	return &models.ServerItemRecord{ItemID: itemID, Revision: revision, Valid: false}
}

func tombstonePlaylist(playlistID int64, revision models.Revision) *models.ServerPlaylistRecord {
	return &models.ServerPlaylistRecord{PlaylistID: playlistID, PersistentID: playlistID, Revision: revision, Valid: false}
}
