// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package hostbus

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/meridian/internal/catalog"
	"github.com/tomtom215/meridian/internal/store"
)

// snapshotTimeout bounds each post-ingest CatalogStore write.
const snapshotTimeout = 5 * time.Second

// CatalogSink feeds Envelopes arriving on a Bus into a
// catalog.ServerCatalog's ingest API, one handler per tracked playlist
// id plus one for the unscoped item stream - exactly the shape of the
// original's item_list_callbacks/item_changed_callbacks registered per
// (type, playlist_id) in start_tracking.
type CatalogSink struct {
	bus   *Bus
	cat   *catalog.ServerCatalog
	store *store.CatalogStore
}

// NewCatalogSink returns a sink that will dispatch onto cat once Start
// registers its handlers.
func NewCatalogSink(bus *Bus, cat *catalog.ServerCatalog) *CatalogSink {
	return &CatalogSink{bus: bus, cat: cat}
}

// NewCatalogSinkWithStore is NewCatalogSink plus a CatalogStore that
// receives a full snapshot after every ingested batch, so a restart
// can warm-start the catalog instead of waiting on the host to
// re-publish everything.
func NewCatalogSinkWithStore(bus *Bus, cat *catalog.ServerCatalog, snapshotStore *store.CatalogStore) *CatalogSink {
	return &CatalogSink{bus: bus, cat: cat, store: snapshotStore}
}

// snapshot persists every currently known item and playlist. Errors are
// swallowed beyond a best-effort log line: a failed snapshot write
// only degrades warm-start fidelity, it never blocks live serving.
func (s *CatalogSink) snapshot() {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	for _, item := range s.cat.GetItems(nil) {
		_ = s.store.PutItem(ctx, item)
	}
	for _, playlist := range s.cat.GetPlaylists() {
		_ = s.store.PutPlaylist(ctx, playlist)
	}
}

// Start registers every handler this sink needs: the unscoped item
// stream, one scoped item stream per id in playlistIDs, and the single
// playlist add/remove stream. Handlers must be registered before the
// owning Bus's Run is called; a playlist created after Start must be
// picked up by restarting the sink with the updated id list, since
// Watermill routers don't support adding handlers once running.
func (s *CatalogSink) Start(playlistIDs []int64) {
	s.bus.AddEnvelopeHandler("catalog-items-unscoped", ItemListTopic(nil), s.handleItems)
	for _, id := range playlistIDs {
		pid := id
		s.bus.AddEnvelopeHandler(fmt.Sprintf("catalog-items-playlist-%d", pid), ItemListTopic(&pid), s.handleItems)
	}
	s.bus.AddEnvelopeHandler("catalog-playlists", PlaylistsTopic, s.handlePlaylists)
}

func (s *CatalogSink) handleItems(e Envelope) error {
	switch e.Kind {
	case KindItemList:
		s.cat.ItemList(e.PlaylistID, e.Items)
	case KindItemsChanged:
		s.cat.ItemsChanged(e.PlaylistID, e.Added, e.Changed, e.Removed)
	default:
		return fmt.Errorf("hostbus: unexpected kind %q on item topic", e.Kind)
	}
	s.snapshot()
	return nil
}

func (s *CatalogSink) handlePlaylists(e Envelope) error {
	switch e.Kind {
	case KindPlaylistAdded:
		s.cat.PlaylistAdded(e.Playlists)
	case KindPlaylistRemoved:
		s.cat.PlaylistRemoved(e.Removed)
	default:
		return fmt.Errorf("hostbus: unexpected kind %q on playlist topic", e.Kind)
	}
	s.snapshot()
	return nil
}
