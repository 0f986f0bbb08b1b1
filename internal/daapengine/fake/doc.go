// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package fake is a deterministic, in-memory double of the
// daapengine.Dialer/Client, daapengine.ServerBuilder/Server, and
// daapengine.MDNS contracts, used by every other package's tests in
// place of a real DAAP engine and mDNS library. Nothing here speaks an
// actual wire protocol; state is shared Go maps guarded by a mutex, and
// long-poll semantics are modeled with a condition variable rather than
// a socket.
package fake
