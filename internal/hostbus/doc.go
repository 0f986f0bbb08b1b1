// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package hostbus carries host item/playlist model change events into
// ServerCatalog's ingest API over Watermill. Bus wraps a
// message.Publisher/Subscriber pair with the router middleware stack
// (panic recovery, retry with backoff) and is backed by an in-process
// gochannel pub/sub unless eventbus.embedded is false, in which case
// cmd/server dials a real NATS JetStream stream (a -tags=nats build).
//
// CatalogSink subscribes to the unscoped item stream plus one
// subscription per tracked playlist id, mirroring how the host model's
// info_updater callbacks are registered per playlist.
package hostbus
