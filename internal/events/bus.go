// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/areyes-dev/lodestar/internal/config"
	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/metrics"
)

// Bus is the in-process pub/sub fabric. It wraps a Watermill gochannel
// Pub/Sub, so swapping in an external transport later only touches this
// package.
type Bus struct {
	pubsub *gochannel.GoChannel

	mu     sync.RWMutex
	closed bool
}

// ErrBusClosed is returned when publishing or subscribing after Close.
var ErrBusClosed = fmt.Errorf("event bus is closed")

// NewBus creates the event bus. A non-positive buffer size falls back to 64.
func NewBus(cfg *config.EventsConfig) *Bus {
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 64
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(buffer),
		Persistent:          cfg.Persistent,
	}, logging.NewWatermillAdapter())

	logging.Info().
		Int("buffer_size", buffer).
		Bool("persistent", cfg.Persistent).
		Msg("Event bus started")

	return &Bus{pubsub: pubsub}
}

// PublishFeedbackRecorded publishes a feedback event after validation.
func (b *Bus) PublishFeedbackRecorded(ctx context.Context, event *FeedbackRecorded) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validate event: %w", err)
	}

	msg, err := newJSONMessage(event)
	if err != nil {
		return err
	}
	msg.Metadata.Set("student_id", event.StudentID)
	msg.Metadata.Set("program_id", event.ProgramID)
	msg.Metadata.Set("kind", event.Kind())

	return b.publish(ctx, TopicFeedbackRecorded, msg)
}

// PublishModelTrained announces a completed training run.
func (b *Bus) PublishModelTrained(ctx context.Context, event *ModelTrained) error {
	msg, err := newJSONMessage(event)
	if err != nil {
		return err
	}
	msg.Metadata.Set("trigger", event.Trigger)

	return b.publish(ctx, TopicModelTrained, msg)
}

// Subscribe returns a channel of messages for the given topic. The channel
// closes when ctx is canceled or the bus shuts down.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, ErrBusClosed
	}
	b.mu.RUnlock()

	ch, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return ch, nil
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if err := b.pubsub.Close(); err != nil {
		return fmt.Errorf("close event bus: %w", err)
	}
	logging.Info().Msg("Event bus closed")
	return nil
}

func (b *Bus) publish(ctx context.Context, topic string, msg *message.Message) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	b.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	metrics.RecordEventPublished(topic)
	return nil
}

func newJSONMessage(payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return message.NewMessage(watermill.NewUUID(), data), nil
}
