// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package store holds the two persistence concerns of the sharing
// engine: a per-share mirror database for items a ClientSession pulls
// in from a remote share, and a single catalog snapshot database that
// lets ServerCatalog warm-start with its last-known state instead of
// sitting empty until the host re-publishes everything. Both are
// backed by an embedded DuckDB file opened through database/sql.
package store
