// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package clientsession implements ClientSession: the per-share worker
// that connects to a remote DAAP host, applies an initial snapshot,
// then loops issuing long-poll updates for as long as the remote
// advertises update support.
//
// Two goroutines cooperate per Session. The client goroutine owns all
// interaction with the remote daapengine.Client and never touches the
// mirror database. The event-loop goroutine owns the mirror database,
// the playlist tracker, and every UI notification; it never blocks on
// the network. The bridge between them is a "run and dispatch result"
// primitive: the client goroutine executes a blocking remote call and
// posts a continuation — a closure bound to the call's outcome — onto
// the event loop's queue, which is the only place that continuation
// ever runs.
package clientsession
