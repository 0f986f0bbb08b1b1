// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package hostbus

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Config tunes the router's retry behavior around handler failures.
type Config struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultConfig mirrors sensible production retry defaults: a handful
// of retries with exponential backoff before a message is dropped.
func DefaultConfig() Config {
	return Config{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     10 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Bus carries Envelopes between the host model and CatalogSink. It
// wraps a Watermill publisher/subscriber pair - gochannel in tests and
// any other caller that doesn't need cross-process delivery, a real
// NATS JetStream pair when eventbus.embedded is false in a -tags=nats build - behind a
// router pre-configured with panic recovery and retry middleware.
type Bus struct {
	pub    message.Publisher
	sub    message.Subscriber
	router *message.Router
	logger watermill.LoggerAdapter
	cfg    Config
}

// NewGoChannelBus returns a Bus backed by an in-process pub/sub with no
// external dependencies, suitable for tests and single-process
// deployments.
func NewGoChannelBus(cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	gc := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
		Persistent:          true,
	}, logger)
	return NewBus(gc, gc, cfg, logger)
}

// NewBus wraps an arbitrary Watermill publisher/subscriber pair with
// the router middleware stack. Used directly by NewGoChannelBus and by
// the -tags=nats NewNATSBus constructor.
func NewBus(pub message.Publisher, sub message.Subscriber, cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("hostbus: create router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	router.AddMiddleware(retry.Middleware)

	return &Bus{pub: pub, sub: sub, router: router, logger: logger, cfg: cfg}, nil
}

// Publish encodes and sends an Envelope on its topic.
func (b *Bus) Publish(e Envelope) error {
	data, err := Marshal(e)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("kind", string(e.Kind))
	if err := b.pub.Publish(e.Topic(), msg); err != nil {
		return fmt.Errorf("hostbus: publish to %s: %w", e.Topic(), err)
	}
	return nil
}

// AddEnvelopeHandler registers a consumer handler on topic, decoding
// each message into an Envelope before invoking fn. A decode failure or
// a returned error triggers the router's retry middleware, then an Ack
// failure after retries exhaust (Watermill's default: the message is
// Nacked and redelivered per the subscriber's semantics).
func (b *Bus) AddEnvelopeHandler(name, topic string, fn func(Envelope) error) {
	b.router.AddConsumerHandler(name, topic, b.sub, func(msg *message.Message) error {
		env, err := Unmarshal(msg.Payload)
		if err != nil {
			return fmt.Errorf("hostbus: decode envelope on %s: %w", topic, err)
		}
		return fn(env)
	})
}

// Run blocks until ctx is cancelled or Close is called, dispatching
// every registered handler.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running returns a channel that closes once the router has started
// dispatching, used to sequence publishers that must wait for
// subscriptions to be live first.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close shuts down the router and the underlying publisher/subscriber.
func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		return fmt.Errorf("hostbus: close router: %w", err)
	}
	if err := b.pub.Close(); err != nil {
		return fmt.Errorf("hostbus: close publisher: %w", err)
	}
	if b.sub != b.pub {
		if err := b.sub.Close(); err != nil {
			return fmt.Errorf("hostbus: close subscriber: %w", err)
		}
	}
	return nil
}
