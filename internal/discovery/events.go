// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package discovery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/meridian/internal/logging"
	"github.com/tomtom215/meridian/internal/metrics"
	"github.com/tomtom215/meridian/internal/models"
)

func (t *Tracker) handleBrowseEvent(ev browseEvent) {
	if ev.fullname == t.selfName {
		return
	}
	if ev.added {
		t.handleAdded(ev)
	} else {
		t.handleRemoved(ev.fullname)
	}
}

func (t *Tracker) handleAdded(ev browseEvent) {
	metrics.DiscoveryEventsTotal.WithLabelValues("added").Inc()
	shareID := shareIDFor(ev.host, ev.port)
	t.nameToID[ev.fullname] = shareID

	if existing, ok := t.available[shareID]; ok {
		existing.Name = ev.fullname
		if timer, ok := t.staleTimers[shareID]; ok {
			timer.Stop()
			delete(t.staleTimers, shareID)
		}
		if existing.Mounted {
			t.notify(existing, nil)
		}
		return
	}

	share := &models.Share{ID: shareID, Host: ev.host, Port: ev.port, Name: ev.fullname}
	stamp := share.NewConnectUUID()
	t.available[shareID] = share
	metrics.DiscoverySharesTracked.Set(float64(len(t.available)))
	go t.testConnect(shareID, stamp, ev.host, ev.port)
}

func (t *Tracker) handleRemoved(fullname string) {
	metrics.DiscoveryEventsTotal.WithLabelValues("removed").Inc()
	shareID, ok := t.nameToID[fullname]
	if !ok {
		return
	}
	delete(t.nameToID, fullname)

	for _, id := range t.nameToID {
		if id == shareID {
			// Rename fallout: this share is still registered under a
			// different current name.
			return
		}
	}

	share, ok := t.available[shareID]
	if !ok {
		return
	}

	if !share.Mounted {
		delete(t.available, shareID)
		metrics.DiscoverySharesTracked.Set(float64(len(t.available)))
		if share.Available {
			t.notify(nil, share)
		}
		return
	}

	timer := time.AfterFunc(t.staleGrace, func() {
		t.stale <- shareID
	})
	t.staleTimers[shareID] = timer
}

func (t *Tracker) handleStaleExpired(shareID models.ShareID) {
	metrics.DiscoveryEventsTotal.WithLabelValues("stale_expired").Inc()
	delete(t.staleTimers, shareID)
	share, ok := t.available[shareID]
	if !ok {
		return
	}
	delete(t.available, shareID)
	metrics.DiscoverySharesTracked.Set(float64(len(t.available)))
	for name, id := range t.nameToID {
		if id == shareID {
			delete(t.nameToID, name)
		}
	}
	t.notify(nil, share)
}

func (t *Tracker) handleTestConnectResult(res testConnectResult) {
	share, ok := t.available[res.shareID]
	if !ok {
		return
	}
	if res.stamp != share.ConnectUUID {
		return // fenced: a newer connect attempt has already superseded this one
	}
	if !res.ok {
		delete(t.available, res.shareID)
		return
	}
	share.Available = true
	t.notify(share, nil)
}

// testConnect dials a newly discovered share to confirm it actually
// answers DAAP requests before advertising it as available. Every
// call is shaped by t.connectLimiter first, so a burst of mDNS
// announcements (a router reboot re-broadcasting a whole segment)
// fans out its dials over time instead of all at once.
func (t *Tracker) testConnect(shareID models.ShareID, stamp uuid.UUID, host string, port int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := t.connectLimiter.Wait(ctx); err != nil {
		t.connect <- testConnectResult{shareID: shareID, stamp: stamp, ok: false}
		return
	}

	client := t.dialer.Dial(host, port)
	ok := false
	if err := client.Connect(ctx); err != nil {
		logging.Debug().Err(err).Str("host", host).Int("port", port).Msg("discovery: test connect failed")
	} else {
		if _, err := client.Databases(ctx, false); err != nil {
			logging.Debug().Err(err).Str("host", host).Int("port", port).Msg("discovery: test connect database list failed")
		} else {
			ok = true
		}
		_ = client.Disconnect()
	}

	t.connect <- testConnectResult{shareID: shareID, stamp: stamp, ok: ok}
}
