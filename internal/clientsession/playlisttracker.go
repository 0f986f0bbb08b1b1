// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package clientsession

import (
	"github.com/tomtom215/meridian/internal/daapengine"
	"github.com/tomtom215/meridian/internal/models"
)

// PlaylistTracker holds one share's remote playlist metadata and
// membership, and derives the two always-present virtual playlists
// from it on every merge.
type PlaylistTracker struct {
	shareID  models.ShareID
	data     map[int64]daapengine.PlaylistFields
	items    map[int64]map[int64]struct{}
	prevTabs map[int64]models.PlaylistInfo
}

// NewPlaylistTracker returns an empty tracker for one share.
func NewPlaylistTracker(shareID models.ShareID) *PlaylistTracker {
	return &PlaylistTracker{
		shareID:  shareID,
		data:     make(map[int64]daapengine.PlaylistFields),
		items:    make(map[int64]map[int64]struct{}),
		prevTabs: make(map[int64]models.PlaylistInfo),
	}
}

// TabDiff is the added/changed/removed visible-playlist summary a
// merge produces for the single "tabs changed" notification.
type TabDiff struct {
	Added   []models.PlaylistInfo
	Changed []models.PlaylistInfo
	Removed []models.PlaylistInfo
}

func (d TabDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

// Merge applies one snapshot or delta to the tracker: playlist field
// replacements/removals, then per-playlist item set additions and
// removals, and finally recomputes the two virtual playlists. It
// returns the visible-playlist diff relative to the previous merge.
func (t *PlaylistTracker) Merge(r *MergeResult) (*models.PlaylistMembership, TabDiff) {
	for id, fields := range r.Playlists {
		t.data[id] = fields
		if _, ok := t.items[id]; !ok {
			t.items[id] = make(map[int64]struct{})
		}
	}
	for _, id := range r.DeletedPlaylists {
		delete(t.data, id)
		delete(t.items, id)
	}
	for id, added := range r.PlaylistItems {
		set := t.items[id]
		if set == nil {
			set = make(map[int64]struct{})
			t.items[id] = set
		}
		for _, itemID := range added {
			set[itemID] = struct{}{}
		}
	}
	for id, removed := range r.PlaylistDeletedItems {
		set := t.items[id]
		for _, itemID := range removed {
			delete(set, itemID)
		}
	}

	membership := models.NewPlaylistMembership(t.shareID)
	current := make(map[int64]models.PlaylistInfo)
	for id, fields := range t.data {
		set := t.items[id]
		membership.ByPlaylist[id] = set
		info := models.PlaylistInfo{
			ID:       id,
			Name:     nulScrub(fields.ItemName),
			Podcast:  fields.IsPodcastPlaylist,
			ItemIDs:  len(set),
			BasePlay: fields.BasePlaylist,
		}
		if !info.Visible() {
			continue
		}
		current[id] = info
		if fields.IsPodcastPlaylist {
			for itemID := range set {
				membership.Podcast[itemID] = struct{}{}
			}
		} else {
			for itemID := range set {
				membership.Playlist[itemID] = struct{}{}
			}
		}
	}

	diff := diffTabs(t.prevTabs, current)
	t.prevTabs = current
	return membership, diff
}

func diffTabs(prev, current map[int64]models.PlaylistInfo) TabDiff {
	var diff TabDiff
	for id, info := range current {
		old, existed := prev[id]
		if !existed {
			diff.Added = append(diff.Added, info)
			continue
		}
		if old != info {
			diff.Changed = append(diff.Changed, info)
		}
	}
	for id, info := range prev {
		if _, stillThere := current[id]; !stillThere {
			diff.Removed = append(diff.Removed, info)
		}
	}
	return diff
}

// RemoveAll clears every tracked playlist, used when a share
// disconnects, and returns the removed set as a TabDiff so the caller
// can emit one final "tabs changed" event.
func (t *PlaylistTracker) RemoveAll() TabDiff {
	var diff TabDiff
	for _, info := range t.prevTabs {
		diff.Removed = append(diff.Removed, info)
	}
	t.data = make(map[int64]daapengine.PlaylistFields)
	t.items = make(map[int64]map[int64]struct{})
	t.prevTabs = make(map[int64]models.PlaylistInfo)
	return diff
}
