// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package servercontroller owns the DAAP server half of sharing: the
// daapengine.Server itself, its mDNS registration, and the HTTP
// streaming routes (.ts/.m3u8/coverart/raw file) a remote client's
// browser or player hits once it has resolved an item's daap_get_file
// URL. A Controller serializes every lifecycle transition (enable/
// disable sharing, rename) through a single command loop standing in
// for the original's control-socketpair QUIT/NOP primitive.
package servercontroller
