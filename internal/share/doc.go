// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package share implements the Share component: the per-remote-share
// handle that owns a mirror database and a session attached to it.
// Registry ties discovery.Tracker's Added/Removed notifications to
// Share construction and destruction, allocating and releasing mirror
// database slots from a single store.PathAllocator.
package share
