// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package models defines the data types shared across the sharing
// engine: the client-side mirror (Share, SharingItem, PlaylistMembership)
// and the server-side catalog (ServerItemRecord, ServerPlaylistRecord).
package models

import "github.com/google/uuid"

// ShareID is a stable, positive identifier derived from a remote share's
// (host, port) pair. It survives renames.
type ShareID uint64

// Share is the per-remote-share handle: identity, mutable display name,
// owned local database path, and lifecycle flags.
type Share struct {
	ID   ShareID
	Host string
	Port int

	// Name is the mutable display name, updated on rename without
	// affecting ID.
	Name string

	// DatabasePath is the path of this share's owned mirror database.
	// Distinct shares always own distinct paths.
	DatabasePath string

	// Available is true once the test-connect that discovered this share
	// has succeeded.
	Available bool
	// Mounted is true while a ClientSession is attached.
	Mounted bool
	// Updating is true while an update continuation is in flight.
	Updating bool

	// ConnectUUID fences stale test-connect callbacks: a callback whose
	// stamp doesn't match the Share's current ConnectUUID is a no-op.
	ConnectUUID uuid.UUID
}

// NewConnectUUID stamps the share with a fresh fencing token and returns
// it, for comparison by a callback once it completes.
func (s *Share) NewConnectUUID() uuid.UUID {
	s.ConnectUUID = uuid.New()
	return s.ConnectUUID
}
