// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/meridian/internal/models"
)

const mirrorSchema = `
CREATE TABLE IF NOT EXISTS items (
	share_id        UBIGINT NOT NULL,
	daap_id         BIGINT  NOT NULL,
	title           TEXT,
	artist          TEXT,
	album           TEXT,
	album_artist    TEXT,
	genre           TEXT,
	year            INTEGER,
	track           INTEGER,
	duration_tenths BIGINT,
	size            BIGINT,
	file_format     TEXT,
	file_type       TEXT,
	kind            TEXT,
	show            TEXT,
	season          INTEGER,
	episode_id      TEXT,
	episode         INTEGER,
	host            TEXT,
	port            INTEGER,
	address         TEXT,
	video_path      TEXT,
	PRIMARY KEY (share_id, daap_id)
);
`

// MirrorDB is one Share's owned mirror database: the local record of
// items a ClientSession has pulled in from the remote DAAP server it
// is attached to. Exclusively owned and accessed from the event loop.
type MirrorDB struct {
	conn *sql.DB
	path string
}

// OpenMirror opens (creating if absent) the mirror database at path.
func OpenMirror(path string) (*MirrorDB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("store: create mirror directory %s: %w", dir, err)
		}
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=1", path)
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("store: open mirror database %s: %w", path, err)
	}
	if _, err := conn.Exec(mirrorSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: initialize mirror schema %s: %w", path, err)
	}
	return &MirrorDB{conn: conn, path: path}, nil
}

// UpsertItem creates or replaces the mirrored row for item.
func (m *MirrorDB) UpsertItem(ctx context.Context, item *models.SharingItem) error {
	_, err := m.conn.ExecContext(ctx, `
		INSERT INTO items (share_id, daap_id, title, artist, album, album_artist, genre,
			year, track, duration_tenths, size, file_format, file_type, kind, show,
			season, episode_id, episode, host, port, address, video_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (share_id, daap_id) DO UPDATE SET
			title = EXCLUDED.title, artist = EXCLUDED.artist, album = EXCLUDED.album,
			album_artist = EXCLUDED.album_artist, genre = EXCLUDED.genre, year = EXCLUDED.year,
			track = EXCLUDED.track, duration_tenths = EXCLUDED.duration_tenths,
			size = EXCLUDED.size, file_format = EXCLUDED.file_format, file_type = EXCLUDED.file_type,
			kind = EXCLUDED.kind, show = EXCLUDED.show, season = EXCLUDED.season,
			episode_id = EXCLUDED.episode_id, episode = EXCLUDED.episode, host = EXCLUDED.host,
			port = EXCLUDED.port, address = EXCLUDED.address, video_path = EXCLUDED.video_path`,
		uint64(item.ShareID), item.DAAPID, item.Title, item.Artist, item.Album, item.AlbumArtist,
		item.Genre, item.Year, item.Track, item.DurationTenths, item.Size, item.FileFormat,
		string(item.FileType), string(item.Kind), item.Show, item.Season, item.EpisodeID, item.Episode,
		item.Host, item.Port, item.Address, item.VideoPath)
	if err != nil {
		return fmt.Errorf("store: upsert item %d/%d: %w", item.ShareID, item.DAAPID, err)
	}
	return nil
}

// DeleteItem removes a mirrored row. Deleting an id that was never
// present is not an error; the caller warn-logs a miss itself.
func (m *MirrorDB) DeleteItem(ctx context.Context, shareID models.ShareID, daapID int64) error {
	_, err := m.conn.ExecContext(ctx, `DELETE FROM items WHERE share_id = ? AND daap_id = ?`, uint64(shareID), daapID)
	if err != nil {
		return fmt.Errorf("store: delete item %d/%d: %w", shareID, daapID, err)
	}
	return nil
}

// ListItems returns every mirrored item for shareID.
func (m *MirrorDB) ListItems(ctx context.Context, shareID models.ShareID) ([]*models.SharingItem, error) {
	rows, err := m.conn.QueryContext(ctx, `
		SELECT daap_id, title, artist, album, album_artist, genre, year, track,
			duration_tenths, size, file_format, file_type, kind, show, season, episode_id, episode,
			host, port, address, video_path
		FROM items WHERE share_id = ?`, uint64(shareID))
	if err != nil {
		return nil, fmt.Errorf("store: list items for share %d: %w", shareID, err)
	}
	defer rows.Close()

	var out []*models.SharingItem
	for rows.Next() {
		item := &models.SharingItem{ShareID: shareID}
		var fileType, kind string
		if err := rows.Scan(&item.DAAPID, &item.Title, &item.Artist, &item.Album, &item.AlbumArtist,
			&item.Genre, &item.Year, &item.Track, &item.DurationTenths, &item.Size, &item.FileFormat,
			&fileType, &kind, &item.Show, &item.Season, &item.EpisodeID, &item.Episode, &item.Host, &item.Port,
			&item.Address, &item.VideoPath); err != nil {
			return nil, fmt.Errorf("store: scan item row for share %d: %w", shareID, err)
		}
		item.FileType = models.FileType(fileType)
		item.Kind = models.ItemKind(kind)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate items for share %d: %w", shareID, err)
	}
	return out, nil
}

// Purge empties the mirror, leaving the database file itself in
// place. Used by Share.stop_tracking, which tears down the
// ClientSession but keeps the slot allocated.
func (m *MirrorDB) Purge(ctx context.Context) error {
	if _, err := m.conn.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("store: purge mirror %s: %w", m.path, err)
	}
	return nil
}

// Close releases the underlying connection without removing the file.
func (m *MirrorDB) Close() error {
	return m.conn.Close()
}

// Remove closes the connection and deletes the backing file. Used by
// Share.destroy for final resource release.
func (m *MirrorDB) Remove() error {
	if err := m.Close(); err != nil {
		return fmt.Errorf("store: close mirror %s: %w", m.path, err)
	}
	if err := os.RemoveAll(m.path); err != nil {
		return fmt.Errorf("store: remove mirror file %s: %w", m.path, err)
	}
	return nil
}
