// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package daapengine

// Handle identifies an outstanding mDNS browse or registration so it
// can later be torn down.
type Handle uint64

// BrowseCallback is invoked once per discovered or disappeared remote
// share. removed is true when the share has dropped off the network.
type BrowseCallback func(name, host string, port int, removed bool)

// RegisterCallback is invoked once registration of the local service
// completes or fails.
type RegisterCallback func(err error)

// MDNS advertises and discovers DAAP shares on the local network. A
// single instance is shared by DiscoveryTracker (browse side) and
// ServerController (register side). If no real implementation is
// wired, callers get ErrMdnsUnavailable from every method but the
// sharing engine otherwise keeps working on its bound port.
type MDNS interface {
	// Init prepares the mDNS stack. Returns ErrMdnsUnavailable if no
	// implementation is present; callers treat that as sticky for the
	// process lifetime rather than retrying.
	Init() error

	// Browse starts watching for DAAP shares, invoking cb for each
	// discovery and disappearance, until the returned handle is passed
	// to Unregister.
	Browse(cb BrowseCallback) (Handle, error)

	// RegisterService advertises the local share under name on port,
	// invoking cb once the registration completes or fails.
	RegisterService(name string, port int, cb RegisterCallback) (Handle, error)

	// Unregister tears down a browse or registration handle. Idempotent.
	Unregister(h Handle) error
}
