// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package catalog implements ServerCatalog: the in-memory catalog
// published to the local DAAP server. It is populated by ingesting
// host item/feed/playlist model events (arriving over internal/hostbus
// in production) and read by internal/servercontroller to answer DAAP
// requests and long-poll revision waits.
//
// A single mutex guards every map plus the monotonic revision counter;
// a sync.Cond bound to that mutex lets GetRevision block until either
// the revision genuinely advances or a caller directs a one-shot wakeup
// at a specific session (the Go analogue of the original's watcher
// thread selecting on a request's cancellation).
package catalog
