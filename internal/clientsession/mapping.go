// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package clientsession

import (
	"strings"

	"github.com/tomtom215/meridian/internal/daapengine"
	"github.com/tomtom215/meridian/internal/models"
)

// DAAP mediakind numeric values this engine recognizes on ingest.
// Anything absent or unrecognized falls back to audio.
const (
	mediaKindAudio = 1
	mediaKindMovie = 3
	mediaKindTV    = 7
	mediaKindVideo = 6
)

// Miro itemkind bitmask values, per the fixed table.
const (
	miroKindMovie   = 1
	miroKindPodcast = 2
	miroKindShow    = 4
	miroKindClip    = 8
)

// nulScrub removes every NUL byte from s, the one ingest-time string
// sanitization every inbound DAAP field is required to undergo.
func nulScrub(s string) string {
	if !strings.ContainsRune(s, 0) {
		return s
	}
	return strings.ReplaceAll(s, "\x00", "")
}

func fileTypeFor(mediaKind int) models.FileType {
	switch mediaKind {
	case mediaKindMovie, mediaKindTV, mediaKindVideo:
		return models.FileTypeVideo
	default:
		return models.FileTypeAudio
	}
}

func itemKindFor(bitmask int) models.ItemKind {
	switch {
	case bitmask&miroKindMovie != 0:
		return models.ItemKindMovie
	case bitmask&miroKindPodcast != 0:
		return models.ItemKindPodcast
	case bitmask&miroKindShow != 0:
		return models.ItemKindShow
	case bitmask&miroKindClip != 0:
		return models.ItemKindClip
	default:
		return ""
	}
}

// buildSharingItem applies the DAAP field mapping (§6.2 of the wire
// contract) to a single inbound item, deriving every SharingItem
// attribute from its ItemFields plus the share's own connection
// point and the streaming URL the DAAP client constructed for it.
func buildSharingItem(shareID models.ShareID, daapID int64, f daapengine.ItemFields, host string, port int, address, videoPath string) *models.SharingItem {
	return &models.SharingItem{
		ShareID:        shareID,
		DAAPID:         daapID,
		Title:          nulScrub(f.ItemName),
		Artist:         nulScrub(f.SongArtist),
		Album:          nulScrub(f.SongAlbum),
		AlbumArtist:    nulScrub(f.AlbumArtist),
		Genre:          nulScrub(f.SongGenre),
		Year:           f.SongYear,
		Track:          f.TrackNumber,
		DurationTenths: f.SongTime / 1000, // wire ms -> internal duration, scale factor 1000
		Size:           f.SongSize,
		FileFormat:     nulScrub(f.SongFormat),
		FileType:       fileTypeFor(f.MediaKind),
		Kind:           itemKindFor(f.MiroItemKind),
		Show:           nulScrub(f.SeriesName),
		Season:         f.SeasonNumber,
		EpisodeID:      nulScrub(f.EpisodeNumStr),
		Episode:        f.EpisodeNumber,
		Host:           host,
		Port:           port,
		Address:        address,
		VideoPath:      videoPath,
	}
}
