// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package fake

import (
	"sync"
	"sync/atomic"

	"github.com/tomtom215/meridian/internal/daapengine"
)

var (
	_ daapengine.ServerBuilder = (*ServerBuilder)(nil)
	_ daapengine.Server        = (*Server)(nil)
)

// ServerBuilder constructs fake Servers. Every built Server shares a
// fileno counter so tests can assert distinct descriptors are handed
// out per server, mirroring a real listener's socket table.
type ServerBuilder struct {
	nextFileno int64
	Host       string
	Port       int
}

// NewServerBuilder returns a builder that reports the given bind
// address for every Server it builds.
func NewServerBuilder(host string, port int) *ServerBuilder {
	return &ServerBuilder{Host: host, Port: port}
}

// Build implements daapengine.ServerBuilder.
func (b *ServerBuilder) Build(catalog daapengine.Catalog, name string) (daapengine.Server, error) {
	return &Server{
		catalog: catalog,
		name:    name,
		host:    b.Host,
		port:    b.Port,
		fileno:  int(atomic.AddInt64(&b.nextFileno, 1)),
	}, nil
}

// Server is a deterministic in-memory daapengine.Server. HandleRequest
// is a no-op: fake sessions are created and destroyed directly by a
// test via AddSession/RemoveSession rather than through socket I/O.
type Server struct {
	mu       sync.Mutex
	catalog  daapengine.Catalog
	name     string
	host     string
	port     int
	fileno   int
	sessions int
	finished func()
	shutdown bool
}

// ServerAddress implements daapengine.Server.
func (s *Server) ServerAddress() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host, s.port
}

// Fileno implements daapengine.Server.
func (s *Server) Fileno() int {
	return s.fileno
}

// HandleRequest implements daapengine.Server. It is a no-op in the
// fake: there is no real socket to service.
func (s *Server) HandleRequest() error {
	return nil
}

// SetName implements daapengine.Server.
func (s *Server) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// Name reports the currently advertised name, for test assertions.
func (s *Server) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// SetFinishedCallback implements daapengine.Server.
func (s *Server) SetFinishedCallback(cb func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = cb
}

// SessionCount implements daapengine.Server.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions
}

// AddSession simulates a remote client connecting, for test setup.
func (s *Server) AddSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions++
}

// RemoveSession simulates a remote client disconnecting.
func (s *Server) RemoveSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions > 0 {
		s.sessions--
	}
}

// Shutdown implements daapengine.Server.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return nil
	}
	s.shutdown = true
	cb := s.finished
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
	return nil
}

// Catalog exposes the daapengine.Catalog this server was built
// against, for test assertions against its contents.
func (s *Server) Catalog() daapengine.Catalog {
	return s.catalog
}
