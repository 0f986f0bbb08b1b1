// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package catalog

import (
	"context"
	"sync"

	"github.com/tomtom215/meridian/internal/metrics"
	"github.com/tomtom215/meridian/internal/models"
)

// SessionID identifies one DAAP client connection for the purpose of
// directed long-poll wakeups; servercontroller assigns these.
type SessionID uint64

// ShareTypes is the audio/video/feed gating config ServerCatalog
// filters its read API against.
type ShareTypes struct {
	Audio bool
	Video bool
	Feed  bool
}

// ServerCatalog holds every exported item and playlist record plus the
// monotonic revision counter DAAP long-poll clients wait on.
type ServerCatalog struct {
	mu   sync.Mutex
	cond *sync.Cond

	revision models.Revision
	// directedSession marks the session a directed wakeup (an HTTP
	// long-poll client disconnecting its own request) targets. nil
	// means the most recent revision bump came from a real content
	// change, which releases every waiter rather than just one.
	directedSession *SessionID

	items               map[int64]*models.ServerItemRecord
	playlists           map[int64]*models.ServerPlaylistRecord
	playlistItems       map[int64][]int64
	deletedFromPlaylist map[int64][]int64

	shareTypes ShareTypes
}

// New returns an empty catalog with every share type enabled.
func New() *ServerCatalog {
	c := &ServerCatalog{
		items:               make(map[int64]*models.ServerItemRecord),
		playlists:           make(map[int64]*models.ServerPlaylistRecord),
		playlistItems:       make(map[int64][]int64),
		deletedFromPlaylist: make(map[int64][]int64),
		shareTypes:          ShareTypes{Audio: true, Video: true, Feed: true},
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// bumpRevisionLocked increments the revision for a real content
// change and wakes every waiter. Callers must hold c.mu.
func (c *ServerCatalog) bumpRevisionLocked() models.Revision {
	c.revision++
	c.directedSession = nil
	c.cond.Broadcast()
	metrics.CatalogRevision.Set(float64(c.revision))
	return c.revision
}

// bumpDirectedRevisionLocked increments the revision on behalf of a
// single session's long-poll wakeup (its own HTTP request was
// cancelled) rather than an actual catalog change. The bump is
// globally visible - the revision is a single shared counter - but
// GetRevision only releases the targeted session for it; every other
// waiter treats it as transparent and keeps waiting. Callers must
// hold c.mu.
func (c *ServerCatalog) bumpDirectedRevisionLocked(session SessionID) models.Revision {
	c.revision++
	c.directedSession = &session
	c.cond.Broadcast()
	metrics.CatalogRevision.Set(float64(c.revision))
	return c.revision
}

// ItemList is the full-replacement ingest call. With playlistID nil it
// replaces the entire item set: anything not present in items becomes
// a tombstone. With playlistID set it replaces that playlist's
// membership and bumps every listed item to the new revision without
// touching items outside the scope.
func (c *ServerCatalog) ItemList(playlistID *int64, items []HostItem) {
	metrics.CatalogMutationsTotal.WithLabelValues("item_list").Inc()
	c.mu.Lock()
	defer c.mu.Unlock()
	rev := c.bumpRevisionLocked()

	if playlistID == nil {
		present := make(map[int64]struct{}, len(items))
		for _, hi := range items {
			present[hi.ItemID] = struct{}{}
			c.items[hi.ItemID] = RebuildItemRecord(hi, rev)
		}
		for id, rec := range c.items {
			if _, ok := present[id]; !ok && rec.Valid {
				c.items[id] = tombstoneItem(id, rev)
			}
		}
		return
	}

	ids := make([]int64, 0, len(items))
	for _, hi := range items {
		c.items[hi.ItemID] = RebuildItemRecord(hi, rev)
		ids = append(ids, hi.ItemID)
	}
	c.playlistItems[*playlistID] = ids
	delete(c.deletedFromPlaylist, *playlistID)
}

// ItemsChanged is the incremental ingest call: added/changed items are
// rebuilt in place, removed ids are dropped from scope. A nil
// playlistID tombstones removed items catalog-wide; a set playlistID
// only adjusts that playlist's membership, restoring any item that
// reappears in added from that playlist's deleted-items record.
func (c *ServerCatalog) ItemsChanged(playlistID *int64, added, changed []HostItem, removed []int64) {
	metrics.CatalogMutationsTotal.WithLabelValues("items_changed").Inc()
	c.mu.Lock()
	defer c.mu.Unlock()
	rev := c.bumpRevisionLocked()

	for _, hi := range added {
		c.items[hi.ItemID] = RebuildItemRecord(hi, rev)
	}
	for _, hi := range changed {
		c.items[hi.ItemID] = RebuildItemRecord(hi, rev)
	}

	if playlistID == nil {
		for _, id := range removed {
			c.items[id] = tombstoneItem(id, rev)
		}
		return
	}

	pid := *playlistID
	set := make(map[int64]struct{})
	for _, id := range c.playlistItems[pid] {
		set[id] = struct{}{}
	}
	for _, id := range removed {
		delete(set, id)
		c.deletedFromPlaylist[pid] = appendUnique(c.deletedFromPlaylist[pid], id)
	}
	for _, hi := range added {
		set[hi.ItemID] = struct{}{}
		c.deletedFromPlaylist[pid] = removeID(c.deletedFromPlaylist[pid], hi.ItemID)
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	c.playlistItems[pid] = ids
}

// PlaylistAdded ingests newly reported playlists and feeds, skipping
// folders.
func (c *ServerCatalog) PlaylistAdded(list []HostPlaylist) {
	metrics.CatalogMutationsTotal.WithLabelValues("playlist_added").Inc()
	c.mu.Lock()
	defer c.mu.Unlock()
	rev := c.bumpRevisionLocked()
	for _, p := range list {
		if p.IsFolder {
			continue
		}
		c.playlists[p.PlaylistID] = RebuildPlaylistRecord(p, rev)
		if _, ok := c.playlistItems[p.PlaylistID]; !ok {
			c.playlistItems[p.PlaylistID] = nil
		}
	}
}

// PlaylistRemoved tombstones playlist records and drops their
// membership.
func (c *ServerCatalog) PlaylistRemoved(ids []int64) {
	metrics.CatalogMutationsTotal.WithLabelValues("playlist_removed").Inc()
	c.mu.Lock()
	defer c.mu.Unlock()
	rev := c.bumpRevisionLocked()
	for _, id := range ids {
		c.playlists[id] = tombstonePlaylist(id, rev)
		delete(c.playlistItems, id)
		delete(c.deletedFromPlaylist, id)
	}
}

// Populate performs the one-time bootstrap: build records for the
// host's saved playlists (including non-ersatz feeds, which are
// carried as HostPlaylist with Kind == HostPlaylistKindFeed) plus
// every known item, and seed membership. Ersatz feeds and folders are
// skipped.
func (c *ServerCatalog) Populate(playlists []HostPlaylist, items []HostItem, membership map[int64][]int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rev := c.bumpRevisionLocked()

	for _, hi := range items {
		c.items[hi.ItemID] = RebuildItemRecord(hi, rev)
	}
	for _, p := range playlists {
		if p.IsFolder {
			continue
		}
		if p.Kind == HostPlaylistKindFeed && isErsatzFeed(p.FeedURL) {
			continue
		}
		c.playlists[p.PlaylistID] = RebuildPlaylistRecord(p, rev)
		c.playlistItems[p.PlaylistID] = append([]int64(nil), membership[p.PlaylistID]...)
	}
}

// RestoreSnapshot installs already-built records loaded from a
// CatalogStore warm-start, without bumping the revision: a freshly
// restored catalog should look, to the first long-poll client, exactly
// like the one that existed right before the restart. Playlist
// membership is not part of the snapshot (CatalogStore persists item
// and playlist rows only); it is re-seeded once the host republishes
// each playlist's ItemList after the messaging layer reconnects.
func (c *ServerCatalog) RestoreSnapshot(items []models.ServerItemRecord, playlists []models.ServerPlaylistRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range items {
		r := rec
		c.items[r.ItemID] = &r
		if r.Revision > c.revision {
			c.revision = r.Revision
		}
	}
	for _, rec := range playlists {
		r := rec
		c.playlists[r.PlaylistID] = &r
		if _, ok := c.playlistItems[r.PlaylistID]; !ok {
			c.playlistItems[r.PlaylistID] = nil
		}
		if r.Revision > c.revision {
			c.revision = r.Revision
		}
	}
}

// SetShareTypes updates the audio/video/feed gating config. If the
// effective set actually changed, every record is re-stamped with a
// fresh revision so clients on an older revision observe the filter
// change.
func (c *ServerCatalog) SetShareTypes(st ShareTypes) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st == c.shareTypes {
		return
	}
	c.shareTypes = st
	rev := c.bumpRevisionLocked()
	for id, rec := range c.items {
		rec.Revision = rev
		c.items[id] = rec
	}
	for id, rec := range c.playlists {
		rec.Revision = rev
		c.playlists[id] = rec
	}
}

// GetPlaylists returns a snapshot of every playlist, replacing any
// podcast playlist with a tombstone when feed sharing is disabled.
func (c *ServerCatalog) GetPlaylists() []models.ServerPlaylistRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ServerPlaylistRecord, 0, len(c.playlists))
	for _, rec := range c.playlists {
		r := *rec
		if r.Valid && r.Podcast && !c.shareTypes.Feed {
			r = *tombstonePlaylist(r.PlaylistID, r.Revision)
		}
		out = append(out, r)
	}
	return out
}

// GetItems returns items in scope (the whole catalog if playlistID is
// nil, else that playlist's membership), filtered by the current
// share-types config. A disallowed item comes back as a tombstone
// preserving its id so an old-revision client still observes the
// transition.
func (c *ServerCatalog) GetItems(playlistID *int64) []models.ServerItemRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []int64
	if playlistID == nil {
		ids = make([]int64, 0, len(c.items))
		for id := range c.items {
			ids = append(ids, id)
		}
	} else {
		ids = c.playlistItems[*playlistID]
	}

	out := make([]models.ServerItemRecord, 0, len(ids))
	for _, id := range ids {
		rec, ok := c.items[id]
		if !ok {
			continue
		}
		if !c.allowedLocked(*rec) {
			out = append(out, *tombstoneItem(rec.ItemID, rec.Revision))
			continue
		}
		out = append(out, *rec)
	}
	return out
}

func (c *ServerCatalog) allowedLocked(rec models.ServerItemRecord) bool {
	if !rec.Valid {
		return true
	}
	var allowed bool
	switch rec.FileType {
	case models.FileTypeAudio:
		allowed = c.shareTypes.Audio
	case models.FileTypeVideo:
		allowed = c.shareTypes.Video
	}
	if allowed && rec.Podcast && !c.shareTypes.Feed {
		allowed = false
	}
	return allowed
}

// GetItem returns a single item record by id, filtered the same way as
// GetItems. internal/servercontroller adapts this (and GetPlaylists)
// into the outbound DAAP field mapping daapengine.Catalog expects.
func (c *ServerCatalog) GetItem(itemID int64) (models.ServerItemRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.items[itemID]
	if !ok {
		return models.ServerItemRecord{}, false
	}
	if !c.allowedLocked(*rec) {
		return *tombstoneItem(rec.ItemID, rec.Revision), true
	}
	return *rec, true
}

// GetRevision blocks until the catalog's revision has advanced past
// oldRevision, returning the new revision. ctx cancellation (an HTTP
// client disconnecting its long-poll request) also unblocks the
// wait, via a directed wakeup aimed at session specifically.
//
// A directed wakeup still advances the shared revision counter - it
// is the same counter every session waits on - but only the targeted
// session treats it as a release; every other waiter on an older
// revision absorbs the bump as transparent and keeps waiting for
// either a real content change or its own directed wakeup.
func (c *ServerCatalog) GetRevision(ctx context.Context, session SessionID, oldRevision models.Revision) models.Revision {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil {
		return c.revision
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.bumpDirectedRevisionLocked(session)
			c.mu.Unlock()
		case <-stop:
		}
	}()
	defer close(stop)

	metrics.CatalogRevisionWaiters.Inc()
	defer metrics.CatalogRevisionWaiters.Dec()

	for {
		for c.revision == oldRevision {
			c.cond.Wait()
		}
		if c.directedSession == nil || *c.directedSession == session {
			return c.revision
		}
		// Directed at a different session: absorb the bump and keep
		// waiting rather than starving that session's own wakeup.
		oldRevision = c.revision
	}
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
