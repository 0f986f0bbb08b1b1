// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Share.Media)
	assert.Equal(t, "/data/meridian/support", cfg.Share.SupportDirectory)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = 70000
	assert.ErrorIs(t, cfg.Validate(), errInvalidPort)
}

func TestValidateRequiresSupportDirectory(t *testing.T) {
	cfg := defaultConfig()
	cfg.Share.SupportDirectory = ""
	assert.ErrorIs(t, cfg.Validate(), errMissingSupportDir)
}

func TestEnvTransformFuncMapsKnownKeys(t *testing.T) {
	assert.Equal(t, "share.media", envTransformFunc("SHARE_MEDIA"))
	assert.Equal(t, "share.support_directory", envTransformFunc("SUPPORT_DIRECTORY"))
	assert.Equal(t, "", envTransformFunc("UNMAPPED_RANDOM_VAR"))
}
