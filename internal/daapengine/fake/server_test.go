// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package fake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/meridian/internal/daapengine"
)

type stubCatalog struct{}

func (stubCatalog) GetItem(int64) (daapengine.ItemUpdate, bool) { return daapengine.ItemUpdate{}, false }
func (stubCatalog) GetPlaylists() []daapengine.PlaylistFields   { return nil }

func TestServerBuilderAssignsDistinctFilenos(t *testing.T) {
	b := NewServerBuilder("192.0.2.1", 3689)

	s1, err := b.Build(stubCatalog{}, "Share A")
	require.NoError(t, err)
	s2, err := b.Build(stubCatalog{}, "Share B")
	require.NoError(t, err)

	assert.NotEqual(t, s1.Fileno(), s2.Fileno())
}

func TestServerSessionCountAndShutdown(t *testing.T) {
	b := NewServerBuilder("192.0.2.1", 3689)
	built, err := b.Build(stubCatalog{}, "Share A")
	require.NoError(t, err)
	s := built.(*Server)

	s.AddSession()
	s.AddSession()
	assert.Equal(t, 2, s.SessionCount())

	s.RemoveSession()
	assert.Equal(t, 1, s.SessionCount())

	finished := false
	s.SetFinishedCallback(func() { finished = true })
	require.NoError(t, s.Shutdown())
	assert.True(t, finished)

	host, port := s.ServerAddress()
	assert.Equal(t, "192.0.2.1", host)
	assert.Equal(t, 3689, port)
}

func TestServerSetName(t *testing.T) {
	b := NewServerBuilder("192.0.2.1", 3689)
	built, err := b.Build(stubCatalog{}, "Original")
	require.NoError(t, err)
	s := built.(*Server)

	s.SetName("Renamed")
	assert.Equal(t, "Renamed", s.Name())
}
