// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

/*
Package supervisor provides process supervision for Meridian using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of every long-running component in the sharing engine. It
provides Erlang/OTP-style supervision with automatic restart, failure
isolation, and graceful shutdown, replacing the raw-thread/select-loop
model of the original sharing engine with supervised goroutines.

# Overview

The supervisor tree organizes services into three layers for failure
isolation:

	RootSupervisor ("meridian")
	├── DataSupervisor ("data-layer")
	│   └── per-share mirror store maintenance
	├── MessagingSupervisor ("messaging-layer")
	│   ├── DiscoveryTracker
	│   ├── one ClientSession per discovered share
	│   └── the UI message bus
	└── APISupervisor ("api-layer")
	    └── ServerController (DAAP server + HTTP streaming routes)

This hierarchy ensures that:
  - A wedged ClientSession doesn't affect DAAP server availability
  - Mirror-store maintenance failures don't impact discovery
  - Each layer can restart independently

# Usage

	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	tree.AddMessagingService(discoveryTracker)
	tree.AddAPIService(serverController)
	if err := tree.Serve(ctx); err != nil {
	    log.Printf("supervisor stopped: %v", err)
	}

# Service Interface

All services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return nil for a clean stop (no restart); return an error to be
restarted; return promptly on context cancellation.
*/
package supervisor
