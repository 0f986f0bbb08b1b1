// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/meridian/internal/daapengine"
	"github.com/tomtom215/meridian/internal/logging"
	"github.com/tomtom215/meridian/internal/models"
)

// DefaultStaleRemovalGrace is how long a disappearance of a mounted
// share is held before the share is actually dropped, giving a
// flapping network a chance to re-announce it first.
const DefaultStaleRemovalGrace = 2 * time.Second

// defaultConnectRate and defaultConnectBurst bound how many
// test-connect dials Tracker issues per second: an mDNS segment
// rebroadcasting its whole share list at once (router reboot, switch
// flap) must not turn into a dial storm against every one of them
// simultaneously.
const (
	defaultConnectRate  = 5
	defaultConnectBurst = 5
)

// Subscriber is notified of a share's lifecycle. Exactly one of added
// or removed is non-nil per call.
type Subscriber func(added, removed *models.Share)

type browseEvent struct {
	added    bool
	fullname string
	host     string
	port     int
}

type testConnectResult struct {
	shareID models.ShareID
	stamp   uuid.UUID
	ok      bool
}

type controlKind int

const (
	controlPause controlKind = iota
	controlResume
	controlSetMounted
)

type controlMsg struct {
	kind    controlKind
	shareID models.ShareID
	mounted bool
	ack     chan struct{}
}

// Tracker implements the DiscoveryTracker component: it watches mDNS
// for DAAP shares and maintains the authoritative set of currently
// available ones, notifying subscribers as shares come and go.
type Tracker struct {
	mdns       daapengine.MDNS
	dialer     daapengine.Dialer
	selfName   string
	staleGrace time.Duration

	browse  chan browseEvent
	connect chan testConnectResult
	stale   chan models.ShareID
	control chan controlMsg

	nameToID    map[string]models.ShareID
	available   map[models.ShareID]*models.Share
	staleTimers map[models.ShareID]*time.Timer
	paused      bool

	subscribers []Subscriber

	handle daapengine.Handle

	connectLimiter *rate.Limiter
}

// New returns a Tracker. selfName is the locally advertised share
// name, filtered out of every browse event so a host never discovers
// its own share.
func New(mdns daapengine.MDNS, dialer daapengine.Dialer, selfName string, staleGrace time.Duration) *Tracker {
	if staleGrace <= 0 {
		staleGrace = DefaultStaleRemovalGrace
	}
	return &Tracker{
		mdns:           mdns,
		dialer:         dialer,
		selfName:       selfName,
		staleGrace:     staleGrace,
		browse:         make(chan browseEvent, 64),
		connect:        make(chan testConnectResult, 16),
		stale:          make(chan models.ShareID, 16),
		control:        make(chan controlMsg),
		nameToID:       make(map[string]models.ShareID),
		available:      make(map[models.ShareID]*models.Share),
		staleTimers:    make(map[models.ShareID]*time.Timer),
		connectLimiter: rate.NewLimiter(defaultConnectRate, defaultConnectBurst),
	}
}

// Subscribe registers sub to be called on every future share
// lifecycle transition. Not safe to call once Serve has started.
func (t *Tracker) Subscribe(sub Subscriber) {
	t.subscribers = append(t.subscribers, sub)
}

// Serve implements suture.Service. It initializes mDNS, starts
// browsing, and runs the tracker's single-goroutine event loop until
// ctx is cancelled, at which point it unregisters its browse handle
// and returns.
func (t *Tracker) Serve(ctx context.Context) error {
	if err := t.mdns.Init(); err != nil {
		if errors.Is(err, daapengine.ErrMdnsUnavailable) {
			logging.Warn().Msg("discovery: mdns unavailable, browse disabled for this process")
		} else {
			logging.Warn().Err(err).Msg("discovery: mdns init failed, browse disabled")
		}
	} else {
		handle, err := t.mdns.Browse(t.onMdnsEvent)
		if err != nil {
			logging.Warn().Err(err).Msg("discovery: mdns browse failed, browse disabled")
		} else {
			t.handle = handle
			defer t.mdns.Unregister(handle)
		}
	}

	for {
		select {
		case <-ctx.Done():
			t.cancelAllTimers()
			return ctx.Err()
		case ev := <-t.browse:
			if t.paused {
				continue
			}
			t.handleBrowseEvent(ev)
		case res := <-t.connect:
			if t.paused {
				continue
			}
			t.handleTestConnectResult(res)
		case id := <-t.stale:
			if t.paused {
				continue
			}
			t.handleStaleExpired(id)
		case msg := <-t.control:
			t.handleControl(msg)
		}
	}
}

// onMdnsEvent is the BrowseCallback handed to daapengine.MDNS; it only
// forwards onto the run loop's channel, since mDNS callbacks fire on
// their own library-owned goroutine.
func (t *Tracker) onMdnsEvent(name, host string, port int, removed bool) {
	t.browse <- browseEvent{added: !removed, fullname: name, host: host, port: port}
}

// Pause blocks until the run loop has acknowledged suspension of
// browse-event processing; a synchronous pause, per the component's
// contract, returns only once the loop has quiesced.
func (t *Tracker) Pause(ctx context.Context) error {
	return t.sendControl(ctx, controlMsg{kind: controlPause})
}

// Resume re-enables browse-event processing.
func (t *Tracker) Resume(ctx context.Context) error {
	return t.sendControl(ctx, controlMsg{kind: controlResume})
}

// SetMounted records whether shareID currently has a ClientSession
// attached. A Share package calls this when it attaches or detaches,
// so a subsequent mDNS disappearance for that share goes through the
// grace-timer path rather than being removed immediately.
func (t *Tracker) SetMounted(ctx context.Context, shareID models.ShareID, mounted bool) error {
	return t.sendControl(ctx, controlMsg{kind: controlSetMounted, shareID: shareID, mounted: mounted})
}

func (t *Tracker) sendControl(ctx context.Context, msg controlMsg) error {
	msg.ack = make(chan struct{})
	select {
	case t.control <- msg:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-msg.ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) handleControl(msg controlMsg) {
	switch msg.kind {
	case controlPause:
		t.paused = true
	case controlResume:
		t.paused = false
	case controlSetMounted:
		if share, ok := t.available[msg.shareID]; ok {
			share.Mounted = msg.mounted
		}
	}
	close(msg.ack)
}

func (t *Tracker) notify(added, removed *models.Share) {
	for _, sub := range t.subscribers {
		sub(added, removed)
	}
}

func (t *Tracker) cancelAllTimers() {
	for id, timer := range t.staleTimers {
		timer.Stop()
		delete(t.staleTimers, id)
	}
}
