// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShareNewConnectUUIDChangesStamp(t *testing.T) {
	s := &Share{ID: 1}
	first := s.NewConnectUUID()
	second := s.NewConnectUUID()
	assert.NotEqual(t, first, second)
	assert.Equal(t, second, s.ConnectUUID)
}

func TestSharingItemKey(t *testing.T) {
	item := &SharingItem{ShareID: 42, DAAPID: 7}
	assert.Equal(t, ItemKey{ShareID: 42, DAAPID: 7}, item.Key())
}

func TestPlaylistInfoVisible(t *testing.T) {
	cases := []struct {
		name string
		info PlaylistInfo
		want bool
	}{
		{"normal visible", PlaylistInfo{ID: 1, Name: "Library", ItemIDs: 3}, true},
		{"empty playlist hidden", PlaylistInfo{ID: 1, Name: "Library", ItemIDs: 0}, false},
		{"base playlist hidden", PlaylistInfo{ID: 1, Name: "Library", ItemIDs: 3, BasePlay: true}, false},
		{"missing name hidden", PlaylistInfo{ID: 1, ItemIDs: 3}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.info.Visible())
		})
	}
}

func TestNewPlaylistMembershipStartsEmpty(t *testing.T) {
	m := NewPlaylistMembership(ShareID(5))
	assert.Empty(t, m.ByPlaylist)
	assert.Empty(t, m.Podcast)
	assert.Empty(t, m.Playlist)
}
