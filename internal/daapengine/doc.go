// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package daapengine defines the contract between the sharing engine
// and the DAAP wire protocol, DMAP tag codec, and mDNS advertisement
// library it sits on top of. None of those are implemented here: this
// package only declares the interfaces a real engine must satisfy, and
// ships a deterministic in-memory double (see the fake subpackage) used
// throughout the rest of the module's tests.
//
// A Client speaks to one remote DAAP server and is owned by exactly one
// ClientSession. A Server fields requests from remote DAAP clients
// against a local catalog and is owned by exactly one controller. Both
// are constructed through a Dialer/ServerBuilder pair rather than a package
// level constructor function, so production wiring and test wiring can
// supply different implementations without a build tag.
package daapengine
