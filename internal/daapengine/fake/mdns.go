// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package fake

import (
	"sync"

	"github.com/tomtom215/meridian/internal/daapengine"
)

var _ daapengine.MDNS = (*MDNS)(nil)

// MDNS is a deterministic in-memory daapengine.MDNS. Tests drive
// discovery by calling Announce/Withdraw directly instead of waiting
// on real network multicast.
type MDNS struct {
	mu          sync.Mutex
	unavailable bool
	nextHandle  daapengine.Handle
	browsers    map[daapengine.Handle]daapengine.BrowseCallback
	registered  map[daapengine.Handle]registration
}

type registration struct {
	name string
	port int
}

// NewMDNS returns a working fake. NewUnavailableMDNS models the
// MdnsUnavailable case where no implementation is present at all.
func NewMDNS() *MDNS {
	return &MDNS{
		browsers:   make(map[daapengine.Handle]daapengine.BrowseCallback),
		registered: make(map[daapengine.Handle]registration),
	}
}

// NewUnavailableMDNS returns a fake whose every method reports
// daapengine.ErrMdnsUnavailable, modeling a host with no mDNS library.
func NewUnavailableMDNS() *MDNS {
	m := NewMDNS()
	m.unavailable = true
	return m
}

// Init implements daapengine.MDNS.
func (m *MDNS) Init() error {
	if m.unavailable {
		return daapengine.ErrMdnsUnavailable
	}
	return nil
}

// Browse implements daapengine.MDNS.
func (m *MDNS) Browse(cb daapengine.BrowseCallback) (daapengine.Handle, error) {
	if m.unavailable {
		return 0, daapengine.ErrMdnsUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextHandle++
	h := m.nextHandle
	m.browsers[h] = cb
	return h, nil
}

// RegisterService implements daapengine.MDNS.
func (m *MDNS) RegisterService(name string, port int, cb daapengine.RegisterCallback) (daapengine.Handle, error) {
	if m.unavailable {
		if cb != nil {
			cb(daapengine.ErrMdnsUnavailable)
		}
		return 0, daapengine.ErrMdnsUnavailable
	}
	m.mu.Lock()
	m.nextHandle++
	h := m.nextHandle
	m.registered[h] = registration{name: name, port: port}
	m.mu.Unlock()
	if cb != nil {
		cb(nil)
	}
	return h, nil
}

// Unregister implements daapengine.MDNS.
func (m *MDNS) Unregister(h daapengine.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.browsers, h)
	delete(m.registered, h)
	return nil
}

// Announce simulates a remote share appearing, invoking every active
// browse callback.
func (m *MDNS) Announce(name, host string, port int) {
	m.mu.Lock()
	cbs := make([]daapengine.BrowseCallback, 0, len(m.browsers))
	for _, cb := range m.browsers {
		cbs = append(cbs, cb)
	}
	m.mu.Unlock()
	for _, cb := range cbs {
		cb(name, host, port, false)
	}
}

// Withdraw simulates a remote share disappearing.
func (m *MDNS) Withdraw(name, host string, port int) {
	m.mu.Lock()
	cbs := make([]daapengine.BrowseCallback, 0, len(m.browsers))
	for _, cb := range m.browsers {
		cbs = append(cbs, cb)
	}
	m.mu.Unlock()
	for _, cb := range cbs {
		cb(name, host, port, true)
	}
}

// RegisteredServices reports the currently registered (name, port)
// pairs, for test assertions.
func (m *MDNS) RegisteredServices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.registered))
	for _, r := range m.registered {
		names = append(names, r.name)
	}
	return names
}
