// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package discovery tracks remote DAAP shares announced over mDNS and
// turns browse events into Share lifecycle notifications: a share
// appearing, being renamed, or disappearing (immediately, or after a
// grace period if a session was attached to it). It owns no mirrored
// data itself; subscribers (ultimately the Share registry) react to
// its Added/Removed callbacks.
//
// Everything but test-connect dialing runs on a single goroutine,
// Tracker.Serve's run loop, which plays the role the original
// select-loop discovery thread and its QUIT/PAUSE/RESUME control
// socketpair played: an unbuffered, acknowledged control channel replaces the
// socketpair, and context cancellation replaces QUIT.
package discovery
