// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package clientsession

import "github.com/tomtom215/meridian/internal/daapengine"

// MergeResult is the immutable outcome of one snapshot or update fetch
// from the remote share, ready to be merged into the mirror database
// and playlist tracker by the event-loop goroutine.
type MergeResult struct {
	Items            map[int64]daapengine.ItemFields
	DeletedItems     []int64
	Playlists        map[int64]daapengine.PlaylistFields
	DeletedPlaylists []int64
	PlaylistItems    map[int64][]int64
	// PlaylistDeletedItems is ignored on the initial snapshot: the
	// server's first delta may spuriously report absences, so a
	// snapshot merge suppresses all deletions.
	PlaylistDeletedItems map[int64][]int64
}

func newMergeResult() *MergeResult {
	return &MergeResult{
		Items:                make(map[int64]daapengine.ItemFields),
		Playlists:            make(map[int64]daapengine.PlaylistFields),
		PlaylistItems:        make(map[int64][]int64),
		PlaylistDeletedItems: make(map[int64][]int64),
	}
}

// suppressDeletions drops every deletion field, used for the initial
// snapshot merge per the ClientSession lifecycle's SnapshotApplying
// step.
func (r *MergeResult) suppressDeletions() *MergeResult {
	r.DeletedItems = nil
	r.DeletedPlaylists = nil
	r.PlaylistDeletedItems = make(map[int64][]int64)
	return r
}
