// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package config

import "errors"

var (
	errInvalidPort       = errors.New("config: server.port out of range")
	errMissingSupportDir = errors.New("config: share.support_directory is required")
)
