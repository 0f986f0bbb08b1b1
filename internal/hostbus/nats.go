// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

//go:build nats

package hostbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSConfig holds the JetStream connection and stream settings used
// by a production Bus. URL is the only field most callers need to set;
// the rest carry safe defaults via DefaultNATSConfig.
type NATSConfig struct {
	URL string

	StreamName string
	MaxAge     time.Duration
	MaxBytes   int64

	DurableName string
	QueueGroup  string
}

// DefaultNATSConfig returns production defaults for the HOSTBUS
// stream, which ensureStream binds to the three subjects CatalogSink
// and hostbus producers use.
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

// NewNATSBus dials a NATS server, ensures the backing JetStream stream
// exists, and returns a Bus whose publisher/subscriber are backed by
// watermill-nats. The stream spans a fixed subject list (host.items,
// host.items.> and host.playlists); cfg does not change it.
func NewNATSBus(ctx context.Context, cfg NATSConfig, busCfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	nc, err := natsgo.Connect(cfg.URL, natsgo.RetryOnFailedConnect(true), natsgo.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("hostbus: connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("hostbus: jetstream context: %w", err)
	}
	if err := ensureStream(ctx, js, cfg); err != nil {
		nc.Close()
		return nil, err
	}

	pubCfg := wmNats.PublisherConfig{
		URL:       cfg.URL,
		Marshaler: &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
		},
	}
	pub, err := wmNats.NewPublisher(pubCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("hostbus: create nats publisher: %w", err)
	}

	subCfg := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     busCfg.CloseTimeout,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			AckAsync:      false,
			DurablePrefix: cfg.DurableName,
		},
	}
	sub, err := wmNats.NewSubscriber(subCfg, logger)
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("hostbus: create nats subscriber: %w", err)
	}

	return NewBus(pub, sub, busCfg, logger)
}

// ensureStream creates or updates the HOSTBUS stream, idempotently -
// safe to call on every startup.
func ensureStream(ctx context.Context, js jetstream.JetStream, cfg NATSConfig) error {
	streamCfg := jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   []string{"host.items", "host.items.>", "host.playlists"},
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     cfg.MaxAge,
		MaxBytes:   cfg.MaxBytes,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
		Duplicates: 2 * time.Minute,
	}

	_, err := js.Stream(ctx, cfg.StreamName)
	if err == nil {
		_, err = js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return fmt.Errorf("hostbus: update stream %s: %w", cfg.StreamName, err)
		}
		return nil
	}
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		if _, err := js.CreateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("hostbus: create stream %s: %w", cfg.StreamName, err)
		}
		return nil
	}
	return fmt.Errorf("hostbus: check stream %s: %w", cfg.StreamName, err)
}
