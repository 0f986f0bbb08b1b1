// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package servercontroller

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/meridian/internal/bus"
	"github.com/tomtom215/meridian/internal/catalog"
	"github.com/tomtom215/meridian/internal/daapengine"
	"github.com/tomtom215/meridian/internal/metrics"
	"github.com/tomtom215/meridian/internal/transcode"
)

// sessionPollInterval governs how often Controller samples the DAAP
// server's session count for ServerSessionsActive: daapengine.Server
// exposes SessionCount as a poll-only getter, not a push callback.
const sessionPollInterval = 5 * time.Second

// ErrToggleInProgress is returned by ToggleSharing when a prior toggle
// request hasn't finished yet, mirroring the frontend-gating volatile
// flag's rejection of a concurrent request.
var ErrToggleInProgress = errors.New("servercontroller: a sharing toggle is already in progress")

// DiscoveryPauser is the narrow slice of discovery.Tracker a rename
// needs: pause it synchronously before changing the advertised name so
// it never observes its own share under a transient identity, then
// resume it once the new registration is live.
type DiscoveryPauser interface {
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}

// ToggleSubscriber is notified around a frontend-initiated sharing
// toggle: Start fires before the config write that triggers backend
// reconfiguration, End fires once it has taken effect.
type ToggleSubscriber interface {
	Start(enabled bool)
	End(enabled bool)
}

// Config holds the fixed settings a Controller is built with.
type Config struct {
	Host               string
	Port               int
	Name               string
	HTTPAddr           string
	TranscodeRateLimit float64
	TranscodeBurst     int
}

// Controller owns the DAAP server, its mDNS registration, and the HTTP
// streaming routes, serializing every lifecycle transition through
// Serve's command loop - the Go analogue of the original's control
// socketpair carrying QUIT/NOP into a select loop.
type Controller struct {
	cfg      Config
	builder  daapengine.ServerBuilder
	mdns     daapengine.MDNS
	catalog  *catalog.ServerCatalog
	tcManager *transcode.Manager
	discovery DiscoveryPauser
	hub      *bus.Hub
	logger   zerolog.Logger

	mu          sync.Mutex
	server      daapengine.Server
	mdnsHandle  daapengine.Handle
	mdnsActive  bool
	name        string
	httpSrv     *http.Server
	httpLis     net.Listener
	stopPoll    chan struct{}

	toggling atomic.Bool

	cmds chan func(ctx context.Context)
}

// New constructs a Controller. Nothing is started until Serve runs.
func New(cfg Config, builder daapengine.ServerBuilder, mdns daapengine.MDNS, cat *catalog.ServerCatalog, tcManager *transcode.Manager, discovery DiscoveryPauser, hub *bus.Hub, logger zerolog.Logger) *Controller {
	return &Controller{
		cfg:       cfg,
		builder:   builder,
		mdns:      mdns,
		catalog:   cat,
		tcManager: tcManager,
		discovery: discovery,
		hub:       hub,
		logger:    logger.With().Str("component", "servercontroller").Logger(),
		name:      cfg.Name,
		cmds:      make(chan func(ctx context.Context), 8),
	}
}

// Serve implements suture.Service. It drives the command loop until ctx
// is cancelled, at which point it tears everything down and returns
// nil (a clean stop, per suture's Service contract).
func (c *Controller) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return nil
		case cmd := <-c.cmds:
			cmd(ctx)
		}
	}
}

func (c *Controller) submit(ctx context.Context, cmd func(ctx context.Context)) error {
	select {
	case c.cmds <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnableSharing instantiates the DAAP server bound to an ephemeral
// port, starts the HTTP streaming routes, and reports once both are
// listening.
func (c *Controller) EnableSharing(ctx context.Context) error {
	errCh := make(chan error, 1)
	err := c.submit(ctx, func(ctx context.Context) {
		errCh <- c.enableSharingLocked()
	})
	if err != nil {
		return err
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) enableSharingLocked() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.server != nil {
		return nil
	}

	adapter := newCatalogAdapter(c.catalog)
	server, err := c.builder.Build(adapter, c.name)
	if err != nil {
		return fmt.Errorf("servercontroller: build DAAP server: %w", err)
	}
	server.SetFinishedCallback(func() {
		c.logger.Info().Msg("DAAP server finished")
	})
	c.server = server

	lis, err := net.Listen("tcp", c.cfg.HTTPAddr)
	if err != nil {
		server.Shutdown()
		c.server = nil
		return fmt.Errorf("servercontroller: listen for streaming routes: %w", err)
	}
	router := newRouter(c.tcManager, c.logger, c.cfg.TranscodeRateLimit, c.cfg.TranscodeBurst)
	httpSrv := &http.Server{Handler: router}
	c.httpLis = lis
	c.httpSrv = httpSrv
	go func() {
		if err := httpSrv.Serve(lis); err != nil && err != http.ErrServerClosed {
			c.logger.Error().Err(err).Msg("streaming HTTP server exited")
		}
	}()

	stopPoll := make(chan struct{})
	c.stopPoll = stopPoll
	go c.pollSessionCount(server, stopPoll)

	host, port := server.ServerAddress()
	c.logger.Info().Str("host", host).Int("port", port).Msg("DAAP server enabled")
	return nil
}

func (c *Controller) pollSessionCount(server daapengine.Server, stop chan struct{}) {
	ticker := time.NewTicker(sessionPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.ServerSessionsActive.Set(float64(server.SessionCount()))
		case <-stop:
			metrics.ServerSessionsActive.Set(0)
			return
		}
	}
}

// DisableSharing shuts down the DAAP server, withdraws mDNS
// registration if active, and stops the HTTP streaming routes.
func (c *Controller) DisableSharing(ctx context.Context) error {
	errCh := make(chan error, 1)
	err := c.submit(ctx, func(ctx context.Context) {
		errCh <- c.disableSharingLocked(ctx)
	})
	if err != nil {
		return err
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) disableSharingLocked(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disableSharingUnlocked(ctx)
}

func (c *Controller) disableSharingUnlocked(ctx context.Context) error {
	if c.stopPoll != nil {
		close(c.stopPoll)
		c.stopPoll = nil
	}
	if c.mdnsActive {
		_ = c.mdns.Unregister(c.mdnsHandle)
		c.mdnsActive = false
	}
	if c.httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = c.httpSrv.Shutdown(shutdownCtx)
		cancel()
		c.httpSrv = nil
		c.httpLis = nil
	}
	if c.server != nil {
		if err := c.server.Shutdown(); err != nil {
			return fmt.Errorf("servercontroller: shut down DAAP server: %w", err)
		}
		c.server = nil
	}
	return nil
}

// EnableDiscover registers (name, port) via mDNS. The registration
// callback reports only success or failure, so the recorded name stays
// the requested one; a different name mDNS assigns on collision is not
// picked up.
func (c *Controller) EnableDiscover(ctx context.Context) error {
	errCh := make(chan error, 1)
	err := c.submit(ctx, func(ctx context.Context) {
		errCh <- c.enableDiscoverLocked()
	})
	if err != nil {
		return err
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) enableDiscoverLocked() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.server == nil {
		return errors.New("servercontroller: cannot enable discovery before sharing")
	}
	if c.mdnsActive {
		return nil
	}
	_, port := c.server.ServerAddress()

	assigned := make(chan string, 1)
	handle, err := c.mdns.RegisterService(c.name, port, func(err error) {
		if err == nil {
			assigned <- c.name
		} else {
			assigned <- ""
		}
	})
	if err != nil {
		return fmt.Errorf("servercontroller: register mDNS service: %w", err)
	}
	c.mdnsHandle = handle
	c.mdnsActive = true
	if actual := <-assigned; actual != "" {
		c.name = actual
		c.server.SetName(actual)
	}
	return nil
}

// SetName changes the advertised share name. Per the rename contract,
// discovery is paused synchronously around the transition so the
// tracker never observes its own share under a stale identity.
func (c *Controller) SetName(ctx context.Context, name string) error {
	errCh := make(chan error, 1)
	err := c.submit(ctx, func(ctx context.Context) {
		errCh <- c.setNameLocked(ctx, name)
	})
	if err != nil {
		return err
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) setNameLocked(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasDiscoverable := c.mdnsActive
	if wasDiscoverable {
		_ = c.mdns.Unregister(c.mdnsHandle)
		c.mdnsActive = false
	}
	if c.discovery != nil {
		if err := c.discovery.Pause(ctx); err != nil {
			return fmt.Errorf("servercontroller: pause discovery for rename: %w", err)
		}
	}

	c.name = name
	if c.server != nil {
		c.server.SetName(name)
	}

	if c.discovery != nil {
		if err := c.discovery.Resume(ctx); err != nil {
			return fmt.Errorf("servercontroller: resume discovery after rename: %w", err)
		}
	}

	if wasDiscoverable {
		return c.reregisterLocked()
	}
	return nil
}

func (c *Controller) reregisterLocked() error {
	_, port := c.server.ServerAddress()
	assigned := make(chan string, 1)
	handle, err := c.mdns.RegisterService(c.name, port, func(err error) {
		if err == nil {
			assigned <- c.name
		} else {
			assigned <- ""
		}
	})
	if err != nil {
		return fmt.Errorf("servercontroller: re-register mDNS service: %w", err)
	}
	c.mdnsHandle = handle
	c.mdnsActive = true
	if actual := <-assigned; actual != "" {
		c.name = actual
		c.server.SetName(actual)
	}
	return nil
}

// SessionFinished releases the given session's transcode job, called
// once the DAAP server reports a remote client has disconnected.
func (c *Controller) SessionFinished(session transcode.SessionID) {
	c.tcManager.SessionFinished(session)
}

// ToggleSharing implements the frontend-gating contract: a request is
// rejected with ErrToggleInProgress if a toggle is already underway;
// otherwise every subscriber's Start fires, apply runs (typically a
// config write triggering backend reconfiguration), then every
// subscriber's End fires and the gate clears.
func (c *Controller) ToggleSharing(enabled bool, subscribers []ToggleSubscriber, apply func() error) error {
	if !c.toggling.CompareAndSwap(false, true) {
		return ErrToggleInProgress
	}
	defer c.toggling.Store(false)

	for _, sub := range subscribers {
		sub.Start(enabled)
	}
	err := apply()
	for _, sub := range subscribers {
		sub.End(enabled)
	}
	return err
}

func (c *Controller) teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.disableSharingUnlocked(context.Background())
	c.tcManager.Shutdown()
}
