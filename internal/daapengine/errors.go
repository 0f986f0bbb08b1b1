// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package daapengine

import "errors"

// Sentinel errors a Client or Server implementation reports through.
// Callers discriminate with errors.Is; an implementation may wrap one
// of these with additional context via fmt.Errorf("...: %w", ...).
var (
	// ErrNetwork covers a connect or in-flight RPC failure.
	ErrNetwork = errors.New("daapengine: network error")
	// ErrProtocol covers an unexpected nil result from databases,
	// playlists, or items where the wire contract guarantees a value.
	ErrProtocol = errors.New("daapengine: protocol error")
	// ErrResource covers local resource exhaustion: no free mirror
	// database path, or the server socket failed to bind.
	ErrResource = errors.New("daapengine: resource error")
	// ErrMdnsUnavailable means no mDNS implementation is present. It is
	// sticky for the process lifetime: sharing stays operational on the
	// bound port, but without advertisement or browse-driven discovery.
	ErrMdnsUnavailable = errors.New("daapengine: mdns unavailable")
	// ErrCancelled means disconnect arrived while an operation was in
	// flight; the caller should drop any partial result.
	ErrCancelled = errors.New("daapengine: operation cancelled")
	// ErrNotFound covers a lookup miss for an item or playlist id.
	ErrNotFound = errors.New("daapengine: not found")
)
