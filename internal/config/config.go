// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package config loads Meridian's runtime configuration.
//
// Layering follows the standard koanf convention: built-in defaults,
// then an optional YAML file, then environment variables, each layer
// overriding the previous one. Every field in ShareConfig is observable —
// see Watch for how changes reach the reconfigure handler.
package config

import "time"

// ShareConfig holds the seven configuration keys named in the sharing
// engine's external interface.
type ShareConfig struct {
	// Media is the on/off master switch for publishing the host catalog.
	Media bool `koanf:"media"`
	// Discoverable controls whether the share is advertised over mDNS.
	// When false the DAAP server still accepts direct connections.
	Discoverable bool `koanf:"discoverable"`
	// Name is the advertised share name.
	Name string `koanf:"name"`
	// Audio gates whether audio items are included in the catalog.
	Audio bool `koanf:"audio"`
	// Video gates whether video items are included in the catalog.
	Video bool `koanf:"video"`
	// Feed gates whether podcast/feed items are included.
	Feed bool `koanf:"feed"`
	// SupportDirectory is where per-share mirrored databases are allocated.
	SupportDirectory string `koanf:"support_directory"`
}

// ServerConfig holds the DAAP server's bind address and HTTP streaming
// endpoint settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
	// HTTPPort is where the coverart/raw-file streaming routes are
	// served, separate from the DAAP port above.
	HTTPPort        int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// TranscodeRateLimit is the per-session token bucket rate, in segments
	// per second, applied to .ts delivery.
	TranscodeRateLimit float64 `koanf:"transcode_rate_limit"`
	TranscodeBurst     int     `koanf:"transcode_burst"`
}

// EventBusConfig configures the transport carrying host-model change
// events into the catalog's ingest API.
type EventBusConfig struct {
	// Embedded selects the in-process gochannel bus; when false, cmd/server
	// dials the NATS JetStream server at URL, which needs a -tags=nats build.
	Embedded bool   `koanf:"embedded"`
	URL      string `koanf:"url"`
	Stream   string `koanf:"stream"`
}

// DatabaseConfig configures the DuckDB-backed catalog snapshot store.
type DatabaseConfig struct {
	Path    string `koanf:"path"`
	Threads int    `koanf:"threads"`
}

// LoggingConfig mirrors internal/logging's Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DiscoveryConfig tunes the mDNS discovery tracker.
type DiscoveryConfig struct {
	// StaleRemovalGrace is how long a share lingers after its mDNS record
	// disappears before DiscoveryTracker fires a Removed event, to absorb
	// rename flaps (remove immediately followed by an add).
	StaleRemovalGrace time.Duration `koanf:"stale_removal_grace"`
}

// Config is the root configuration object.
type Config struct {
	Share     ShareConfig     `koanf:"share"`
	Server    ServerConfig    `koanf:"server"`
	EventBus  EventBusConfig  `koanf:"eventbus"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Discovery DiscoveryConfig `koanf:"discovery"`
}

// Validate checks for configuration errors that would prevent startup.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errInvalidPort
	}
	if c.Share.SupportDirectory == "" {
		return errMissingSupportDir
	}
	return nil
}
