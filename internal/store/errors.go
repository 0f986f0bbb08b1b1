// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package store

import "errors"

var (
	// ErrNoFreeSlot means every candidate mirror database path is
	// already claimed; the caller should surface this as a
	// daapengine.ErrResource.
	ErrNoFreeSlot = errors.New("store: no free mirror database slot")
)
