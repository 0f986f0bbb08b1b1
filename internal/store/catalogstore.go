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
	"runtime"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/meridian/internal/config"
	"github.com/tomtom215/meridian/internal/models"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS catalog_items (
	item_id       BIGINT PRIMARY KEY,
	title         TEXT,
	artist        TEXT,
	album         TEXT,
	album_artist  TEXT,
	genre         TEXT,
	year          INTEGER,
	track         INTEGER,
	song_time_ms  BIGINT,
	size          BIGINT,
	song_format   TEXT,
	media_kind    INTEGER,
	file_type     TEXT,
	path          TEXT,
	cover_art     TEXT,
	persistent_id BIGINT,
	revision      UBIGINT,
	valid         BOOLEAN
);

CREATE TABLE IF NOT EXISTS catalog_playlists (
	playlist_id   BIGINT PRIMARY KEY,
	name          TEXT,
	podcast       BOOLEAN,
	persistent_id BIGINT,
	revision      UBIGINT,
	valid         BOOLEAN
);
`

// CatalogStore persists ServerCatalog's last-known state so a restart
// can warm-start instead of serving an empty catalog until the host
// re-publishes everything. It is written to on every catalog mutation
// and read once, at startup.
type CatalogStore struct {
	conn *sql.DB
}

// OpenCatalogStore opens (creating if absent) the catalog snapshot
// database described by cfg.
func OpenCatalogStore(cfg config.DatabaseConfig) (*CatalogStore, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("store: create catalog directory %s: %w", dir, err)
		}
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d", cfg.Path, threads)
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("store: open catalog database %s: %w", cfg.Path, err)
	}
	if _, err := conn.Exec(catalogSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: initialize catalog schema %s: %w", cfg.Path, err)
	}
	return &CatalogStore{conn: conn}, nil
}

// PutItem persists or replaces one item's snapshot row.
func (s *CatalogStore) PutItem(ctx context.Context, r models.ServerItemRecord) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO catalog_items (item_id, title, artist, album, album_artist, genre, year,
			track, song_time_ms, size, song_format, media_kind, file_type, path, cover_art,
			persistent_id, revision, valid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (item_id) DO UPDATE SET
			title = EXCLUDED.title, artist = EXCLUDED.artist, album = EXCLUDED.album,
			album_artist = EXCLUDED.album_artist, genre = EXCLUDED.genre, year = EXCLUDED.year,
			track = EXCLUDED.track, song_time_ms = EXCLUDED.song_time_ms, size = EXCLUDED.size,
			song_format = EXCLUDED.song_format, media_kind = EXCLUDED.media_kind,
			file_type = EXCLUDED.file_type, path = EXCLUDED.path, cover_art = EXCLUDED.cover_art,
			persistent_id = EXCLUDED.persistent_id, revision = EXCLUDED.revision,
			valid = EXCLUDED.valid`,
		r.ItemID, r.Title, r.Artist, r.Album, r.AlbumArtist, r.Genre, r.Year, r.Track,
		r.SongTimeMS, r.Size, r.SongFormat, r.MediaKind, string(r.FileType), r.Path, r.CoverArt,
		r.PersistentID, uint64(r.Revision), r.Valid)
	if err != nil {
		return fmt.Errorf("store: put catalog item %d: %w", r.ItemID, err)
	}
	return nil
}

// PutPlaylist persists or replaces one playlist's snapshot row.
func (s *CatalogStore) PutPlaylist(ctx context.Context, r models.ServerPlaylistRecord) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO catalog_playlists (playlist_id, name, podcast, persistent_id, revision, valid)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (playlist_id) DO UPDATE SET
			name = EXCLUDED.name, podcast = EXCLUDED.podcast,
			persistent_id = EXCLUDED.persistent_id, revision = EXCLUDED.revision,
			valid = EXCLUDED.valid`,
		r.PlaylistID, r.Name, r.Podcast, r.PersistentID, uint64(r.Revision), r.Valid)
	if err != nil {
		return fmt.Errorf("store: put catalog playlist %d: %w", r.PlaylistID, err)
	}
	return nil
}

// LoadItems returns every persisted item snapshot, valid or tombstoned,
// for ServerCatalog to replay at startup.
func (s *CatalogStore) LoadItems(ctx context.Context) ([]models.ServerItemRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT item_id, title, artist, album, album_artist, genre, year, track, song_time_ms,
			size, song_format, media_kind, file_type, path, cover_art, persistent_id, revision, valid
		FROM catalog_items`)
	if err != nil {
		return nil, fmt.Errorf("store: load catalog items: %w", err)
	}
	defer rows.Close()

	var out []models.ServerItemRecord
	for rows.Next() {
		var r models.ServerItemRecord
		var fileType string
		var revision uint64
		if err := rows.Scan(&r.ItemID, &r.Title, &r.Artist, &r.Album, &r.AlbumArtist, &r.Genre,
			&r.Year, &r.Track, &r.SongTimeMS, &r.Size, &r.SongFormat, &r.MediaKind, &fileType,
			&r.Path, &r.CoverArt, &r.PersistentID, &revision, &r.Valid); err != nil {
			return nil, fmt.Errorf("store: scan catalog item row: %w", err)
		}
		r.FileType = models.FileType(fileType)
		r.Revision = models.Revision(revision)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate catalog items: %w", err)
	}
	return out, nil
}

// LoadPlaylists returns every persisted playlist snapshot.
func (s *CatalogStore) LoadPlaylists(ctx context.Context) ([]models.ServerPlaylistRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT playlist_id, name, podcast, persistent_id, revision, valid FROM catalog_playlists`)
	if err != nil {
		return nil, fmt.Errorf("store: load catalog playlists: %w", err)
	}
	defer rows.Close()

	var out []models.ServerPlaylistRecord
	for rows.Next() {
		var r models.ServerPlaylistRecord
		var revision uint64
		if err := rows.Scan(&r.PlaylistID, &r.Name, &r.Podcast, &r.PersistentID, &revision, &r.Valid); err != nil {
			return nil, fmt.Errorf("store: scan catalog playlist row: %w", err)
		}
		r.Revision = models.Revision(revision)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate catalog playlists: %w", err)
	}
	return out, nil
}

// Close releases the underlying connection.
func (s *CatalogStore) Close() error {
	return s.conn.Close()
}
