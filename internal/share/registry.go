// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package share

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/meridian/internal/bus"
	"github.com/tomtom215/meridian/internal/logging"
	"github.com/tomtom215/meridian/internal/metrics"
	"github.com/tomtom215/meridian/internal/models"
	"github.com/tomtom215/meridian/internal/store"
)

// Session is the lifecycle surface a Share needs from whatever it
// mounts: a ClientSession in production, a fake in tests. Defined here
// rather than imported from internal/clientsession so this package has
// no dependency on that one; main wiring supplies the real factory.
type Session interface {
	// Stop tears the session down; continuations arriving after it
	// returns must be discarded by the session itself.
	Stop()
}

// SessionFactory starts a new Session against mirror for share.
type SessionFactory func(ctx context.Context, share *models.Share, mirror *store.MirrorDB) Session

// Mounter is the subset of discovery.Tracker a Registry needs, kept
// narrow so tests can supply a stub instead of a real Tracker.
type Mounter interface {
	SetMounted(ctx context.Context, shareID models.ShareID, mounted bool) error
}

type entry struct {
	share   *models.Share
	mirror  *store.MirrorDB
	session Session
}

// Registry holds every currently known Share and mediates
// start_tracking/stop_tracking/destroy against the shared mirror
// database path allocator.
type Registry struct {
	mu      sync.Mutex
	entries map[models.ShareID]*entry
	paths   *store.PathAllocator
	mounter Mounter
	newSess SessionFactory
	uiBus   *bus.Hub
}

// NewRegistry returns an empty registry. newSession may be nil in
// tests that never call StartTracking.
func NewRegistry(paths *store.PathAllocator, mounter Mounter, newSession SessionFactory, uiBus *bus.Hub) *Registry {
	return &Registry{
		entries: make(map[models.ShareID]*entry),
		paths:   paths,
		mounter: mounter,
		newSess: newSession,
		uiBus:   uiBus,
	}
}

// Track registers a Share discovered by the tracker. It does not start
// a session; that happens on StartTracking.
func (r *Registry) Track(sh *models.Share) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[sh.ID]; ok {
		return
	}
	r.entries[sh.ID] = &entry{share: sh}
}

// Untrack removes bookkeeping for a share discovery has dropped,
// stopping any active session and releasing its mirror database path.
func (r *Registry) Untrack(sh *models.Share) {
	r.mu.Lock()
	e, ok := r.entries[sh.ID]
	if ok {
		delete(r.entries, sh.ID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	r.teardown(e, true)
}

// StartTracking is idempotent: it mounts a session onto the share's
// mirror database, allocating the database path on first call.
func (r *Registry) StartTracking(ctx context.Context, shareID models.ShareID) error {
	r.mu.Lock()
	e, ok := r.entries[shareID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("share: unknown share %d", shareID)
	}
	if e.session != nil {
		r.mu.Unlock()
		return nil // already tracking
	}
	// A share restarted after StopTracking keeps its allocated slot and
	// its (purged) mirror.
	mirror, path := e.mirror, e.share.DatabasePath
	r.mu.Unlock()

	if mirror == nil {
		var err error
		path, err = r.paths.Allocate()
		if err != nil {
			return fmt.Errorf("share: allocate mirror path for share %d: %w", shareID, err)
		}
		mirror, err = store.OpenMirror(path)
		if err != nil {
			r.paths.Release(path)
			return fmt.Errorf("share: open mirror for share %d: %w", shareID, err)
		}
	}

	r.mu.Lock()
	e.share.DatabasePath = path
	e.share.Mounted = true
	e.mirror = mirror
	if r.newSess != nil {
		e.session = r.newSess(ctx, e.share, mirror)
		metrics.ClientSessionsActive.Inc()
	}
	r.mu.Unlock()

	if r.mounter != nil {
		if err := r.mounter.SetMounted(ctx, shareID, true); err != nil {
			logging.Warn().Err(err).Uint64("share_id", uint64(shareID)).Msg("share: failed to notify discovery of mount")
		}
	}
	if r.uiBus != nil {
		r.uiBus.BroadcastTabsChanged(fmt.Sprint(shareID), nil)
	}
	return nil
}

// StopTracking tears the session down, purges the mirror database,
// and emits a tab-changed notification, but keeps the database slot
// allocated for a future StartTracking.
func (r *Registry) StopTracking(ctx context.Context, shareID models.ShareID) error {
	r.mu.Lock()
	e, ok := r.entries[shareID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("share: unknown share %d", shareID)
	}
	r.teardown(e, false)

	if r.mounter != nil {
		if err := r.mounter.SetMounted(ctx, shareID, false); err != nil {
			logging.Warn().Err(err).Uint64("share_id", uint64(shareID)).Msg("share: failed to notify discovery of unmount")
		}
	}
	if r.uiBus != nil {
		r.uiBus.BroadcastTabsChanged(fmt.Sprint(shareID), nil)
	}
	return nil
}

// Destroy performs final resource release: tears down any session and
// deletes the mirror database file, releasing its path for reuse.
func (r *Registry) Destroy(shareID models.ShareID) error {
	r.mu.Lock()
	e, ok := r.entries[shareID]
	if ok {
		delete(r.entries, shareID)
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("share: unknown share %d", shareID)
	}
	return r.destroyEntry(e)
}

func (r *Registry) teardown(e *entry, releasing bool) {
	r.mu.Lock()
	session := e.session
	mirror := e.mirror
	e.session = nil
	e.share.Mounted = false
	r.mu.Unlock()

	if session != nil {
		session.Stop()
		metrics.ClientSessionsActive.Dec()
	}
	if mirror == nil {
		return
	}
	if releasing {
		if err := r.destroyMirror(e, mirror); err != nil {
			logging.Warn().Err(err).Uint64("share_id", uint64(e.share.ID)).Msg("share: destroy on untrack failed")
		}
		return
	}
	if err := mirror.Purge(context.Background()); err != nil {
		logging.Warn().Err(err).Uint64("share_id", uint64(e.share.ID)).Msg("share: purge mirror failed")
	}
}

func (r *Registry) destroyEntry(e *entry) error {
	r.mu.Lock()
	session := e.session
	mirror := e.mirror
	e.session = nil
	e.mirror = nil
	r.mu.Unlock()

	if session != nil {
		session.Stop()
		metrics.ClientSessionsActive.Dec()
	}
	if mirror == nil {
		return nil
	}
	return r.destroyMirror(e, mirror)
}

func (r *Registry) destroyMirror(e *entry, mirror *store.MirrorDB) error {
	path := e.share.DatabasePath
	if err := mirror.Remove(); err != nil {
		return fmt.Errorf("share: remove mirror for share %d: %w", e.share.ID, err)
	}
	if path != "" {
		r.paths.Release(path)
	}
	return nil
}
