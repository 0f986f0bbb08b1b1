// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

//go:build !nats

package hostbus

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// NATSConfig mirrors the -tags=nats build's configuration so callers
// can construct one unconditionally; NewNATSBus always fails in this
// build.
type NATSConfig struct {
	URL string

	StreamName string
	MaxAge     time.Duration
	MaxBytes   int64

	DurableName string
	QueueGroup  string
}

// DefaultNATSConfig mirrors the -tags=nats build's defaults.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:         url,
		StreamName:  "HOSTBUS",
		MaxAge:      24 * time.Hour,
		MaxBytes:    1 << 30,
		DurableName: "meridian-hostbus",
		QueueGroup:  "meridian",
	}
}

// NewNATSBus is a stub when built without -tags=nats. Callers that
// don't need cross-process delivery should use NewGoChannelBus
// instead.
func NewNATSBus(ctx context.Context, cfg NATSConfig, busCfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	return nil, fmt.Errorf("hostbus: NATS transport not available: build with -tags=nats")
}
