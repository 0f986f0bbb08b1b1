// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package discovery

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tomtom215/meridian/internal/daapengine/fake"
	"github.com/tomtom215/meridian/internal/models"
)

type recorder struct {
	mu      sync.Mutex
	added   []*models.Share
	removed []*models.Share
}

func (r *recorder) sub(added, removed *models.Share) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if added != nil {
		r.added = append(r.added, added)
	}
	if removed != nil {
		r.removed = append(r.removed, removed)
	}
}

func (r *recorder) addedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.added)
}

func (r *recorder) removedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.removed)
}

func (r *recorder) firstAdded() *models.Share {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.added[0]
}

func startTracker(t *testing.T, mdns *fake.MDNS, remote *fake.Remote, staleGrace time.Duration) (*Tracker, *recorder, context.CancelFunc) {
	t.Helper()
	dialer := fake.NewDialer(remote)
	tr := New(mdns, dialer, "self", staleGrace)
	rec := &recorder{}
	tr.Subscribe(rec.sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return tr, rec, cancel
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestTrackerPublishesShareOnSuccessfulTestConnect(t *testing.T) {
	mdns := fake.NewMDNS()
	remote := fake.NewRemote(true)
	_, rec, _ := startTracker(t, mdns, remote, 0)

	mdns.Announce("Kitchen", "192.0.2.5", 3689)

	waitFor(t, time.Second, func() bool { return rec.addedCount() == 1 })
	assert.Equal(t, "Kitchen", rec.firstAdded().Name)
	assert.True(t, rec.firstAdded().Available)
}

func TestTrackerDropsShareSilentlyOnFailedTestConnect(t *testing.T) {
	mdns := fake.NewMDNS()
	remote := fake.NewRemote(true)
	remote.Close() // every Connect fails from here on

	_, rec, _ := startTracker(t, mdns, remote, 0)
	mdns.Announce("Office", "192.0.2.9", 3689)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.addedCount())
}

func TestTrackerFiltersSelfAdvertisedName(t *testing.T) {
	mdns := fake.NewMDNS()
	remote := fake.NewRemote(true)
	_, rec, _ := startTracker(t, mdns, remote, 0)

	mdns.Announce("self", "192.0.2.5", 3689)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.addedCount())
}

func TestTrackerUnmountedRemovalIsImmediate(t *testing.T) {
	mdns := fake.NewMDNS()
	remote := fake.NewRemote(true)
	_, rec, _ := startTracker(t, mdns, remote, 0)

	mdns.Announce("Kitchen", "192.0.2.5", 3689)
	waitFor(t, time.Second, func() bool { return rec.addedCount() == 1 })

	mdns.Withdraw("Kitchen", "192.0.2.5", 3689)
	waitFor(t, time.Second, func() bool { return rec.removedCount() == 1 })
}

func TestTrackerMountedRemovalWaitsOutGraceThenFires(t *testing.T) {
	mdns := fake.NewMDNS()
	remote := fake.NewRemote(true)
	tr, rec, _ := startTracker(t, mdns, remote, 30*time.Millisecond)

	mdns.Announce("Kitchen", "192.0.2.5", 3689)
	waitFor(t, time.Second, func() bool { return rec.addedCount() == 1 })

	require.NoError(t, tr.SetMounted(context.Background(), rec.firstAdded().ID, true))

	mdns.Withdraw("Kitchen", "192.0.2.5", 3689)
	assert.Equal(t, 0, rec.removedCount(), "removal must not be immediate for a mounted share")

	waitFor(t, time.Second, func() bool { return rec.removedCount() == 1 })
}

func TestTrackerMountedRemovalCancelledByReannounceWithinGrace(t *testing.T) {
	mdns := fake.NewMDNS()
	remote := fake.NewRemote(true)
	tr, rec, _ := startTracker(t, mdns, remote, 200*time.Millisecond)

	mdns.Announce("Kitchen", "192.0.2.5", 3689)
	waitFor(t, time.Second, func() bool { return rec.addedCount() == 1 })
	require.NoError(t, tr.SetMounted(context.Background(), rec.firstAdded().ID, true))

	mdns.Withdraw("Kitchen", "192.0.2.5", 3689)
	mdns.Announce("Kitchen", "192.0.2.5", 3689)

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, 0, rec.removedCount())
}

func TestTrackerTestConnectFanOutIsRateLimited(t *testing.T) {
	mdns := fake.NewMDNS()
	remote := fake.NewRemote(true)
	dialer := fake.NewDialer(remote)
	tr := New(mdns, dialer, "self", 0)
	tr.connectLimiter = rate.NewLimiter(2, 2) // 2/s, burst 2, tight enough to assert against
	rec := &recorder{}
	tr.Subscribe(rec.sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	for i := 0; i < 6; i++ {
		mdns.Announce(fmt.Sprintf("Share%d", i), fmt.Sprintf("192.0.2.%d", i+1), 3689)
	}

	// The burst lets the first 2 through immediately; the rest trickle
	// in at the configured rate rather than all landing at once.
	time.Sleep(50 * time.Millisecond)
	early := rec.addedCount()
	assert.LessOrEqual(t, early, 2, "more than the configured burst connected before the limiter's first refill")

	waitFor(t, 3*time.Second, func() bool { return rec.addedCount() == 6 })
}

func TestTrackerPauseSuppressesEventsUntilResume(t *testing.T) {
	mdns := fake.NewMDNS()
	remote := fake.NewRemote(true)
	tr, rec, _ := startTracker(t, mdns, remote, 0)

	require.NoError(t, tr.Pause(context.Background()))
	mdns.Announce("Kitchen", "192.0.2.5", 3689)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.addedCount())

	require.NoError(t, tr.Resume(context.Background()))
	mdns.Announce("Office", "192.0.2.9", 3689)
	waitFor(t, time.Second, func() bool { return rec.addedCount() == 1 })
}
