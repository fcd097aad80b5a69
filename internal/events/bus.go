// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/metrics"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus is closed")

// Publisher is what the forum service needs from the bus.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event. Used by the CLI, where nothing listens.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Bus couples a gochannel Pub/Sub with a Router.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *Router
	logger watermill.LoggerAdapter

	closeOnce sync.Once
	closed    atomic.Bool
	poisoned  atomic.Int64
}

// NewBus creates the bus. Handlers must be registered before Serve.
func NewBus(cfg *config.EventsConfig) (*Bus, error) {
	logger := logging.NewWatermillAdapter()

	buffer := int64(256)
	if cfg != nil && cfg.BufferSize > 0 {
		buffer = cfg.BufferSize
	}
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
	}, logger)

	rc := RouterConfigFrom(cfg)
	router, err := NewRouter(&rc, pubsub, logger)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	b := &Bus{pubsub: pubsub, router: router, logger: logger}
	if rc.PoisonQueueTopic != "" {
		router.AddConsumerHandler("poison-queue", rc.PoisonQueueTopic, pubsub, b.handlePoisoned)
	}
	return b, nil
}

// String names the bus in supervisor logs.
func (b *Bus) String() string {
	return "event-bus"
}

// Publish encodes ev and sends it to its topic. Publishing never blocks on
// handlers.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	msg, err := NewMessage(ctx, ev)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(ev.Topic(), "error").Inc()
		return err
	}

	if err := b.pubsub.Publish(ev.Topic(), msg); err != nil {
		metrics.EventsPublished.WithLabelValues(ev.Topic(), "error").Inc()
		return fmt.Errorf("publish %s: %w", ev.Topic(), err)
	}
	metrics.EventsPublished.WithLabelValues(ev.Topic(), "success").Inc()
	return nil
}

// Handle registers a consumer for topic.
func (b *Bus) Handle(name, topic string, handler message.NoPublishHandlerFunc) {
	b.router.AddConsumerHandler(name, topic, b.pubsub, handler)
}

// Serve runs the router until ctx is canceled. It implements
// suture.Service.
func (b *Bus) Serve(ctx context.Context) error {
	logging.Info().Int("handlers", b.router.HandlerCount()).Msg("event bus started")
	err := b.router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Running closes once every handler has subscribed.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// IsRunning reports whether the router is processing messages.
func (b *Bus) IsRunning() bool {
	return b.router.IsRunning()
}

// Poisoned returns how many messages ended up in the poison queue.
func (b *Bus) Poisoned() int64 {
	return b.poisoned.Load()
}

// Close stops the router and the Pub/Sub.
func (b *Bus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		err = errors.Join(b.router.Close(), b.pubsub.Close())
	})
	return err
}

func (b *Bus) handlePoisoned(msg *message.Message) error {
	b.poisoned.Add(1)
	logging.Error().
		Str("event_id", msg.UUID).
		Str("topic", msg.Metadata.Get(middleware.PoisonedTopicKey)).
		Str("handler", msg.Metadata.Get(middleware.PoisonedHandlerKey)).
		Str("reason", msg.Metadata.Get(middleware.ReasonForPoisonedKey)).
		Msg("event moved to poison queue")
	return nil
}
