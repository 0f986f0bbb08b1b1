// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package metrics declares every Prometheus series Meridian exports,
// covering catalog revisions, client sessions, transcode jobs, and
// mDNS discovery events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogRevision is the server-side catalog's current monotonic
	// revision counter.
	CatalogRevision = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_catalog_revision",
			Help: "Current revision of the server-side DAAP catalog",
		},
	)

	// CatalogMutationsTotal counts ingest calls by kind.
	CatalogMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_catalog_mutations_total",
			Help: "Total number of catalog ingest calls",
		},
		[]string{"operation"}, // "item_list", "items_changed", "playlist_added", "playlist_removed"
	)

	// CatalogRevisionWaiters tracks how many get_revision long-polls are
	// currently blocked.
	CatalogRevisionWaiters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_catalog_revision_waiters",
			Help: "Number of callers currently blocked in get_revision",
		},
	)

	// ClientSessionsActive is the number of ClientSessions currently
	// tracking a remote share.
	ClientSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_client_sessions_active",
			Help: "Number of remote shares currently tracked by a ClientSession",
		},
	)

	// ClientSessionStateTransitionsTotal counts ClientSession state
	// machine transitions.
	ClientSessionStateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_client_session_state_transitions_total",
			Help: "Total number of ClientSession state transitions",
		},
		[]string{"state"},
	)

	// ClientSessionBreakerTrips counts circuit breaker trips per share.
	ClientSessionBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_client_session_breaker_trips_total",
			Help: "Total number of circuit breaker trips guarding remote DAAP RPCs",
		},
		[]string{"share_id"},
	)

	// TranscodeJobsActive is the number of live per-session transcode
	// jobs.
	TranscodeJobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_transcode_jobs_active",
			Help: "Number of currently running per-session transcode jobs",
		},
	)

	// TranscodeJobsReplacedTotal counts job replacements by cause.
	TranscodeJobsReplacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_transcode_jobs_replaced_total",
			Help: "Total number of transcode job replacements",
		},
		[]string{"reason"}, // "item_changed", "generation_advanced", "seek"
	)

	// TranscodeStaleRequestsTotal counts get_file calls dropped for
	// bearing a stale generation.
	TranscodeStaleRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meridian_transcode_stale_requests_total",
			Help: "Total number of get_file requests dropped for an out-of-date generation",
		},
	)

	// DiscoveryEventsTotal counts mDNS browse callbacks by kind.
	DiscoveryEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_discovery_events_total",
			Help: "Total number of mDNS discovery events observed",
		},
		[]string{"kind"}, // "added", "removed", "stale_expired"
	)

	// DiscoverySharesTracked is the number of shares currently known to
	// DiscoveryTracker.
	DiscoverySharesTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_discovery_shares_tracked",
			Help: "Number of remote shares currently known to DiscoveryTracker",
		},
	)

	// ServerSessionsActive is the number of remote clients currently
	// connected to the local DAAP server.
	ServerSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meridian_server_sessions_active",
			Help: "Number of remote clients currently connected to the local DAAP server",
		},
	)
)
