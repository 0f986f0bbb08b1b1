// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// MockService is a suture.Service double used by this package's own
// tests to exercise the tree's restart and shutdown behavior without
// standing up a real Tracker/Hub/controller.
type MockService struct {
	name       string
	startCount atomic.Int32
	stopCount  atomic.Int32
	failCount  atomic.Int32

	mu       sync.Mutex
	err      error
	maxFails int32
}

// NewMockService returns a MockService identified as name in
// suture's logs and UnstoppedServiceReport.
func NewMockService(name string) *MockService {
	return &MockService{name: name}
}

// Serve implements suture.Service: if a fail count is configured, it
// returns a simulated failure that many times before settling; once
// past that (or if an explicit error was set) it either returns that
// error immediately or blocks on ctx like a real long-lived service.
func (m *MockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)
	defer m.stopCount.Add(1)

	m.mu.Lock()
	err, maxFails := m.err, m.maxFails
	m.mu.Unlock()

	if maxFails > 0 {
		if m.failCount.Add(1) <= maxFails {
			return errors.New("simulated failure")
		}
	}
	if err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

// SetError makes every future Serve call return err immediately
// instead of blocking on ctx.
func (m *MockService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetFailCount makes the next n Serve calls fail with a simulated
// error before a call is allowed to succeed, for exercising suture's
// restart/backoff logic.
func (m *MockService) SetFailCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxFails = int32(n)
}

// StartCount reports how many times Serve has been invoked.
func (m *MockService) StartCount() int32 {
	return m.startCount.Load()
}

// StopCount reports how many times Serve has returned.
func (m *MockService) StopCount() int32 {
	return m.stopCount.Load()
}

// String implements fmt.Stringer; suture uses it to name the service
// in its own logs.
func (m *MockService) String() string {
	return m.name
}
