// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package daapengine

import "context"

// Client speaks the DAAP protocol to one remote share. A ClientSession
// owns exactly one Client for its lifetime; after Disconnect the
// client must reject further operations with ErrCancelled.
type Client interface {
	// Connect opens the session. It must be called before any other
	// operation and is not idempotent.
	Connect(ctx context.Context) error

	// Disconnect tears the session down. It is idempotent and safe to
	// call from a different goroutine than the one driving the RPCs it
	// interrupts; any RPC in flight returns ErrCancelled.
	Disconnect() error

	// Databases lists the remote database ids. update requests
	// long-poll semantics: block until the set changes from what this
	// client last observed, per SupportsUpdate.
	Databases(ctx context.Context, update bool) ([]int64, error)

	// Playlists returns playlists added or changed since the last call
	// (or all of them, on the first call) and ids removed since then.
	Playlists(ctx context.Context, update bool) (added map[int64]PlaylistFields, deleted []int64, err error)

	// Items returns item fields named in meta, added or changed since
	// the last call, plus ids removed since then. A nil playlistID
	// scopes the call to the base database; a non-nil one scopes it to
	// that playlist.
	Items(ctx context.Context, meta []string, update bool, playlistID *int64) (added map[int64]ItemFields, deleted []int64, err error)

	// Update blocks until the remote server reports a change (a new
	// revision in DAAP terms) and returns once one is available, or
	// ctx is cancelled. Only meaningful when SupportsUpdate is true.
	Update(ctx context.Context) error

	// DAAPGetFileRequest builds the opaque streaming URL for an item.
	DAAPGetFileRequest(itemID int64, songFormat string) (string, error)

	// SupportsUpdate reports whether the remote server honors
	// long-poll semantics on Databases/Playlists/Items/Update, or only
	// full-snapshot semantics.
	SupportsUpdate() bool
}

// Dialer constructs a Client bound to one remote share. Production
// wiring supplies a real DAAP dialer; tests supply fake.Dialer.
type Dialer interface {
	Dial(host string, port int) Client
}
