// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package clientsession

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/meridian/internal/bus"
	"github.com/tomtom215/meridian/internal/daapengine"
	"github.com/tomtom215/meridian/internal/logging"
	"github.com/tomtom215/meridian/internal/metrics"
	"github.com/tomtom215/meridian/internal/models"
	"github.com/tomtom215/meridian/internal/share"
	"github.com/tomtom215/meridian/internal/store"
)

// State is one step of the ClientSession lifecycle.
type State int

const (
	StateConnecting State = iota
	StateSnapshotApplying
	StateIdle
	StateUpdating
	StateUpdateApplying
	StateDisconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSnapshotApplying:
		return "snapshot_applying"
	case StateIdle:
		return "idle"
	case StateUpdating:
		return "updating"
	case StateUpdateApplying:
		return "update_applying"
	case StateDisconnecting:
		return "disconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// defaultMeta is the DMAP attribute list requested on every
// items() call, covering every field the mapping table consumes.
var defaultMeta = []string{
	"dmap.itemid", "dmap.itemname", "daap.songformat",
	"com.apple.itunes.mediakind", "daap.songtime", "daap.songsize",
	"daap.songartist", "daap.songalbumartist", "daap.songalbum",
	"daap.songyear", "daap.songgenre", "daap.songtracknumber",
	"org.participatoryculture.miro.itemkind",
	"com.apple.itunes.series-name", "com.apple.itunes.season-num",
	"com.apple.itunes.episode-num-str", "com.apple.itunes.episode-sort",
}

func newBreaker(shareID models.ShareID) *gobreaker.CircuitBreaker[any] {
	shareIDLabel := strconv.FormatUint(uint64(shareID), 10)
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        fmt.Sprintf("clientsession-%d", shareID),
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				metrics.ClientSessionBreakerTrips.WithLabelValues(shareIDLabel).Inc()
			}
		},
	})
}

// Session is ClientSession: the per-share background worker. It
// implements share.Session.
type Session struct {
	sh     *models.Share
	mirror *store.MirrorDB
	dialer daapengine.Dialer
	hub    *bus.Hub
	meta   []string
	log    zerolog.Logger

	breaker *gobreaker.CircuitBreaker[any]
	tracker *PlaylistTracker

	mu    sync.Mutex
	state State

	client   daapengine.Client // nulled on disconnect start; racing continuations check this
	clientMu sync.Mutex

	ctx           context.Context
	continuations chan func()
	cancel        context.CancelFunc
	done          chan struct{}
}

var _ share.Session = (*Session)(nil)

// NewFactory returns a share.SessionFactory bound to dialer and hub,
// for wiring into share.NewRegistry.
func NewFactory(dialer daapengine.Dialer, hub *bus.Hub) share.SessionFactory {
	return func(ctx context.Context, sh *models.Share, mirror *store.MirrorDB) share.Session {
		return newSession(ctx, sh, mirror, dialer, hub, defaultMeta)
	}
}

func newSession(parent context.Context, sh *models.Share, mirror *store.MirrorDB, dialer daapengine.Dialer, hub *bus.Hub, meta []string) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		sh:            sh,
		mirror:        mirror,
		dialer:        dialer,
		hub:           hub,
		meta:          meta,
		log:           logging.ForShare(uint64(sh.ID)),
		breaker:       newBreaker(sh.ID),
		tracker:       NewPlaylistTracker(sh.ID),
		ctx:           ctx,
		continuations: make(chan func(), 16),
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	go s.eventLoop(ctx)
	go s.runConnect(ctx)
	return s
}

// Stop implements share.Session: it cancels the session context, nulls
// the client reference so any continuation already in flight becomes a
// no-op, and asks the client thread to disconnect if one connected.
func (s *Session) Stop() {
	s.cancel()
	<-s.done
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	metrics.ClientSessionStateTransitionsTotal.WithLabelValues(st.String()).Inc()
	if s.hub != nil {
		s.hub.BroadcastSessionStateChange(s.shareIDString(), st.String())
	}
}

func (s *Session) shareIDString() string {
	return strconv.FormatUint(uint64(s.sh.ID), 10)
}

func (s *Session) getClient() daapengine.Client {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	return s.client
}

func (s *Session) setClient(c daapengine.Client) {
	s.clientMu.Lock()
	s.client = c
	s.clientMu.Unlock()
}

// eventLoop is the event-loop goroutine: the only goroutine that
// mutates the mirror database, the playlist tracker, or issues UI
// notifications.
func (s *Session) eventLoop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.disconnect()
			return
		case cont := <-s.continuations:
			cont()
		}
	}
}

// post enqueues a continuation to run on the event-loop goroutine. It
// never blocks the client goroutine indefinitely: the channel is
// buffered, and the loop drains it as fast as remote calls produce
// work.
func (s *Session) post(cont func()) {
	select {
	case s.continuations <- cont:
	case <-s.done:
	}
}

// runConnect is the client goroutine's first step: connect, fetch the
// initial snapshot, and post it for application.
func (s *Session) runConnect(ctx context.Context) {
	s.setState(StateConnecting)
	client := s.dialer.Dial(s.sh.Host, s.sh.Port)

	_, err := s.breaker.Execute(func() (any, error) {
		return nil, client.Connect(ctx)
	})
	if err != nil {
		s.post(func() { s.onConnectFailed(err) })
		return
	}
	s.setClient(client)

	result, err := s.fetchAll(ctx, client, false)
	if err != nil {
		s.post(func() { s.onConnectFailed(err) })
		return
	}
	result.suppressDeletions()
	s.post(func() { s.applySnapshot(result) })
}

// fetchAll issues databases/playlists/items against client, collecting
// everything into one MergeResult. update selects snapshot vs. delta
// semantics on the Playlists/Items calls.
func (s *Session) fetchAll(ctx context.Context, client daapengine.Client, update bool) (*MergeResult, error) {
	if _, err := client.Databases(ctx, update); err != nil {
		return nil, err
	}

	result := newMergeResult()

	addedPlaylists, deletedPlaylists, err := client.Playlists(ctx, update)
	if err != nil {
		return nil, err
	}
	result.Playlists = addedPlaylists
	result.DeletedPlaylists = deletedPlaylists

	addedItems, deletedItems, err := client.Items(ctx, s.meta, update, nil)
	if err != nil {
		return nil, err
	}
	result.Items = addedItems
	result.DeletedItems = deletedItems

	for playlistID := range addedPlaylists {
		pid := playlistID
		added, deleted, err := client.Items(ctx, s.meta, update, &pid)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(added))
		for id := range added {
			ids = append(ids, id)
		}
		result.PlaylistItems[pid] = ids
		result.PlaylistDeletedItems[pid] = deleted
	}
	return result, nil
}

func (s *Session) onConnectFailed(err error) {
	s.log.Warn().Err(err).Msg("clientsession: connect failed")
	s.setState(StateFailed)
	if s.hub != nil {
		s.hub.BroadcastConnectFailed(s.shareIDString(), err.Error())
	}
	s.sh.Available = false
}

// applySnapshot runs on the event loop: it merges the initial snapshot
// into the mirror database and playlist tracker, then transitions to
// Idle and, if the remote supports update, starts the update loop.
func (s *Session) applySnapshot(result *MergeResult) {
	s.setState(StateSnapshotApplying)
	s.mergeItems(result)
	s.mergePlaylists(result)
	s.sh.Available = true
	s.setState(StateIdle)

	client := s.getClient()
	if client == nil {
		return
	}
	if client.SupportsUpdate() {
		go s.runUpdateLoop(client)
	}
}

func (s *Session) mergeItems(result *MergeResult) {
	ctx := context.Background()
	client := s.getClient()
	host, port, address := s.sh.Host, s.sh.Port, s.sh.Host

	for id, fields := range result.Items {
		videoPath := ""
		if client != nil {
			if url, err := client.DAAPGetFileRequest(id, fields.SongFormat); err == nil {
				videoPath = url
			}
		}
		item := buildSharingItem(s.sh.ID, id, fields, host, port, address, videoPath)
		if err := s.mirror.UpsertItem(ctx, item); err != nil {
			s.log.Warn().Err(err).Int64("daap_id", id).Msg("clientsession: upsert item failed")
		}
	}
	for _, id := range result.DeletedItems {
		if err := s.mirror.DeleteItem(ctx, s.sh.ID, id); err != nil {
			s.log.Warn().Err(err).Int64("daap_id", id).Msg("clientsession: missing item on delete")
		}
	}
}

func (s *Session) mergePlaylists(result *MergeResult) {
	_, diff := s.tracker.Merge(result)
	s.emitTabsChanged(diff)
}

func (s *Session) emitTabsChanged(diff TabDiff) {
	if diff.Empty() || s.hub == nil {
		return
	}
	visible := make([]string, 0, len(diff.Added)+len(diff.Changed))
	for _, info := range diff.Added {
		visible = append(visible, strconv.FormatInt(info.ID, 10))
	}
	for _, info := range diff.Changed {
		visible = append(visible, strconv.FormatInt(info.ID, 10))
	}
	s.hub.BroadcastTabsChanged(s.shareIDString(), visible)
}

// runUpdateLoop is the client goroutine's steady-state loop: long-poll
// update(), then refetch deltas, then post them for merge. It exits
// silently once the client has been nulled by a disconnect.
func (s *Session) runUpdateLoop(client daapengine.Client) {
	for {
		s.setState(StateUpdating)
		_, err := s.breaker.Execute(func() (any, error) {
			return nil, client.Update(s.ctx)
		})
		if s.getClient() == nil {
			return // disconnect raced ahead of us; drop silently
		}
		if err != nil {
			s.post(func() { s.onConnectFailed(err) })
			return
		}

		result, err := s.fetchAll(s.ctx, client, true)
		if s.getClient() == nil {
			return
		}
		if err != nil {
			s.post(func() { s.onConnectFailed(err) })
			return
		}

		done := make(chan struct{})
		s.post(func() {
			defer close(done)
			if s.getClient() == nil {
				return // continuation arrived after disconnect began
			}
			s.setState(StateUpdateApplying)
			s.mergeItems(result)
			s.mergePlaylists(result)
			s.setState(StateUpdating)
		})
		select {
		case <-done:
		case <-s.done:
			return
		}
	}
}

// disconnect runs on the event loop when the session's context is
// cancelled: it nulls the client reference (fencing any in-flight
// continuation), asks the client thread to disconnect, and emits a
// single tabs-changed event removing every playlist this share ever
// advertised.
func (s *Session) disconnect() {
	s.setState(StateDisconnecting)
	client := s.getClient()
	s.setClient(nil)
	s.sh.Available = false

	if client != nil {
		if err := client.Disconnect(); err != nil {
			s.log.Warn().Err(err).Msg("clientsession: disconnect failed")
		}
	}
	s.emitTabsChanged(s.tracker.RemoveAll())
}
