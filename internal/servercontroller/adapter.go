// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package servercontroller

import (
	"github.com/tomtom215/meridian/internal/catalog"
	"github.com/tomtom215/meridian/internal/daapengine"
	"github.com/tomtom215/meridian/internal/models"
)

// catalogAdapter implements daapengine.Catalog over a
// *catalog.ServerCatalog, translating the catalog package's storage
// records into the field shape the DAAP engine answers client requests
// with. It owns no state of its own.
type catalogAdapter struct {
	catalog *catalog.ServerCatalog
}

var _ daapengine.Catalog = (*catalogAdapter)(nil)

func newCatalogAdapter(c *catalog.ServerCatalog) *catalogAdapter {
	return &catalogAdapter{catalog: c}
}

// GetItem implements daapengine.Catalog.
func (a *catalogAdapter) GetItem(itemID int64) (daapengine.ItemUpdate, bool) {
	rec, ok := a.catalog.GetItem(itemID)
	if !ok {
		return daapengine.ItemUpdate{}, false
	}
	return itemUpdateFromRecord(rec), true
}

// GetPlaylists implements daapengine.Catalog.
func (a *catalogAdapter) GetPlaylists() []daapengine.PlaylistFields {
	records := a.catalog.GetPlaylists()
	out := make([]daapengine.PlaylistFields, 0, len(records))
	for _, rec := range records {
		out = append(out, playlistFieldsFromRecord(rec))
	}
	return out
}

func itemUpdateFromRecord(rec models.ServerItemRecord) daapengine.ItemUpdate {
	return daapengine.ItemUpdate{
		ItemID: rec.ItemID,
		Name:   rec.Title,
		ItemFields: daapengine.ItemFields{
			SongFormat:    rec.SongFormat,
			MediaKind:     rec.MediaKind,
			ItemName:      rec.Title,
			SongTime:      rec.SongTimeMS,
			SongSize:      rec.Size,
			SongArtist:    rec.Artist,
			AlbumArtist:   rec.AlbumArtist,
			SongAlbum:     rec.Album,
			SongYear:      rec.Year,
			SongGenre:     rec.Genre,
			TrackNumber:   rec.Track,
			SeriesName:    rec.Show,
			SeasonNumber:  rec.Season,
			EpisodeNumStr: rec.EpisodeID,
			EpisodeNumber: rec.EpisodeNumber,
		},
	}
}

func playlistFieldsFromRecord(rec models.ServerPlaylistRecord) daapengine.PlaylistFields {
	return daapengine.PlaylistFields{
		ItemName:          rec.Name,
		IsPodcastPlaylist: rec.Podcast,
	}
}
