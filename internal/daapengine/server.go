// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package daapengine

// Catalog is the read side of the server-side catalog a Server answers
// requests against. It is deliberately narrow: a Server only ever needs
// to look an item up by id and list the playlists, never to mutate the
// catalog itself.
type Catalog interface {
	GetItem(itemID int64) (ItemUpdate, bool)
	GetPlaylists() []PlaylistFields
}

// Server fields DAAP requests from remote clients against a Catalog.
// A ServerController owns exactly one Server for the process lifetime
// of local sharing.
type Server interface {
	// ServerAddress reports the bound host and port, valid only after
	// a successful bind.
	ServerAddress() (host string, port int)

	// Fileno returns the listening socket's descriptor, for inclusion
	// in the controller's select/poll set.
	Fileno() int

	// HandleRequest services one ready connection. Called by the
	// controller's event loop when Fileno is readable.
	HandleRequest() error

	// SetName updates the advertised share name without a restart.
	SetName(name string)

	// SetFinishedCallback registers the callback invoked once the
	// server has fully released its resources after Shutdown.
	SetFinishedCallback(cb func())

	// SessionCount reports the number of remote clients currently
	// connected.
	SessionCount() int

	// Shutdown begins an orderly close of the listening socket and all
	// active sessions; FinishedCallback fires once complete.
	Shutdown() error
}

// ServerBuilder constructs a Server bound to a Catalog and an
// advertised name. Production wiring supplies a real DAAP server;
// tests supply fake.ServerBuilder.
type ServerBuilder interface {
	Build(catalog Catalog, name string) (Server, error)
}
