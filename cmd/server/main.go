// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package main is the entry point for the Meridian sharing engine.
//
// # Application Architecture
//
// The process initializes components in the following order:
//
//  1. Configuration: Koanf v2, layered defaults -> YAML -> environment
//  2. Logging: zerolog, global + an slog adapter for the supervisor tree
//  3. Catalog: ServerCatalog warm-started from its DuckDB snapshot store
//  4. Host event bus: Watermill, in-process gochannel or NATS JetStream
//  5. Discovery: the mDNS browse-side tracker driving the share registry
//  6. Server: the DAAP server, its mDNS registration, and HTTP streaming
//
// Every long-running component is supervised by a suture v4 tree with
// three layers (data, messaging, api) for failure isolation; a crash
// in one layer does not bring the others down.
//
// # Build Tags
//
//	go build -tags nats ./cmd/server   # back the host event bus with real NATS JetStream
//
// Without the tag, EventBus.Embedded=false fails fast at startup
// rather than silently falling back to the in-process transport.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/meridian/internal/bus"
	"github.com/tomtom215/meridian/internal/catalog"
	"github.com/tomtom215/meridian/internal/clientsession"
	"github.com/tomtom215/meridian/internal/config"
	"github.com/tomtom215/meridian/internal/daapengine/fake"
	"github.com/tomtom215/meridian/internal/discovery"
	"github.com/tomtom215/meridian/internal/hostbus"
	"github.com/tomtom215/meridian/internal/logging"
	"github.com/tomtom215/meridian/internal/models"
	"github.com/tomtom215/meridian/internal/servercontroller"
	"github.com/tomtom215/meridian/internal/share"
	"github.com/tomtom215/meridian/internal/store"
	"github.com/tomtom215/meridian/internal/supervisor"
	"github.com/tomtom215/meridian/internal/transcode"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Msg("starting meridian")

	catalogStore, err := store.OpenCatalogStore(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open catalog store")
	}
	defer func() {
		if err := catalogStore.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing catalog store")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat := catalog.New()
	cat.SetShareTypes(catalog.ShareTypes{
		Audio: cfg.Share.Audio,
		Video: cfg.Share.Video,
		Feed:  cfg.Share.Feed,
	})
	playlistIDs, err := warmStartCatalog(ctx, cat, catalogStore)
	if err != nil {
		logging.Warn().Err(err).Msg("catalog warm-start failed, starting from an empty catalog")
	}

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	hostBus, err := newHostBus(ctx, cfg.EventBus)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize host event bus")
	}
	sink := hostbus.NewCatalogSinkWithStore(hostBus, cat, catalogStore)
	sink.Start(playlistIDs)

	// The DAAP/mDNS wire protocol is out of scope (see SPEC_FULL.md
	// §6): daapengine/fake is the only implementation Meridian
	// ships, so it is wired here as the production boundary until a
	// real implementation is plugged in against the daapengine
	// interfaces.
	mdns := fake.NewMDNS()
	dialer := fake.NewDialer(fake.NewRemote(true))
	uiBus := bus.NewHub()

	discoveryTracker := discovery.New(mdns, dialer, cfg.Share.Name, cfg.Discovery.StaleRemovalGrace)
	pathAlloc := store.NewPathAllocator(cfg.Share.SupportDirectory)
	registry := share.NewRegistry(pathAlloc, discoveryTracker, clientsession.NewFactory(dialer, uiBus), uiBus)
	discoveryTracker.Subscribe(func(added, removed *models.Share) {
		if added != nil {
			registry.Track(added)
			if cfg.Share.Media {
				go func(id models.ShareID) {
					if err := registry.StartTracking(ctx, id); err != nil {
						logging.Warn().Err(err).Uint64("share_id", uint64(id)).Msg("failed to start tracking share")
					}
				}(added.ID)
			}
		}
		if removed != nil {
			registry.Untrack(removed)
		}
	})

	tcManager := transcode.NewManager(logging.Logger())
	serverBuilder := fake.NewServerBuilder(cfg.Server.Host, cfg.Server.Port)
	controller := servercontroller.New(
		servercontroller.Config{
			Host:               cfg.Server.Host,
			Port:               cfg.Server.Port,
			Name:               cfg.Share.Name,
			HTTPAddr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
			TranscodeRateLimit: cfg.Server.TranscodeRateLimit,
			TranscodeBurst:     cfg.Server.TranscodeBurst,
		},
		serverBuilder, mdns, cat, tcManager, discoveryTracker, uiBus, logging.Logger(),
	)

	tree.AddMessagingService(discoveryTracker)
	tree.AddMessagingService(uiBus)
	tree.AddMessagingService(hostBusService{hostBus})
	tree.AddAPIService(controller)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	if cfg.Share.Media {
		if err := controller.EnableSharing(ctx); err != nil {
			logging.Error().Err(err).Msg("failed to enable sharing")
		} else if cfg.Share.Discoverable {
			if err := controller.EnableDiscover(ctx); err != nil {
				logging.Error().Err(err).Msg("failed to enable mDNS discovery")
			}
		}
	}

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within the shutdown timeout")
	}

	if err := hostBus.Close(); err != nil {
		logging.Warn().Err(err).Msg("error closing host event bus")
	}

	logging.Info().Msg("meridian stopped gracefully")
}

// warmStartCatalog loads a prior CatalogStore snapshot and installs it
// into cat, returning every known playlist id so the caller can
// register hostbus.CatalogSink handlers for them up front.
func warmStartCatalog(ctx context.Context, cat *catalog.ServerCatalog, catalogStore *store.CatalogStore) ([]int64, error) {
	items, err := catalogStore.LoadItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	playlists, err := catalogStore.LoadPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("load playlists: %w", err)
	}
	cat.RestoreSnapshot(items, playlists)

	ids := make([]int64, 0, len(playlists))
	for _, p := range playlists {
		if p.Valid {
			ids = append(ids, p.PlaylistID)
		}
	}
	return ids, nil
}

// newHostBus builds the transport carrying host catalog events into
// CatalogSink. Embedded selects the in-process gochannel transport;
// otherwise a real NATS JetStream connection is required, and this
// fails fast rather than silently downgrading when the binary was
// built without -tags=nats.
func newHostBus(ctx context.Context, cfg config.EventBusConfig) (*hostbus.Bus, error) {
	if cfg.Embedded {
		return hostbus.NewGoChannelBus(hostbus.DefaultConfig(), nil)
	}
	natsCfg := hostbus.DefaultNATSConfig(cfg.URL)
	if cfg.Stream != "" {
		natsCfg.StreamName = cfg.Stream
	}
	return hostbus.NewNATSBus(ctx, natsCfg, hostbus.DefaultConfig(), nil)
}

// hostBusService adapts hostbus.Bus to suture.Service under the name
// the Bus itself already uses for Run/Close.
type hostBusService struct{ bus *hostbus.Bus }

func (s hostBusService) Serve(ctx context.Context) error {
	return s.bus.Run(ctx)
}
