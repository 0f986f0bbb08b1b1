// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package transcode implements the per-session HLS transcode jobs
// internal/servercontroller's get_file route serves .ts/.m3u8 requests
// against. A Manager holds exactly one Job per session behind its own
// mutex (deliberately separate from the catalog's); a replacement job
// supersedes the old one, which is shut down outside the lock so a
// slow ffmpeg teardown never blocks the next request's lookup.
package transcode
