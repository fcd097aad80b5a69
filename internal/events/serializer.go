// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/indieforge/internal/logging"
)

// Metadata keys set on every message.
const (
	MetadataTopic     = "topic"
	MetadataRequestID = "request_id"
)

// NewMessage stamps ev and encodes it. The message UUID is the event ID.
func NewMessage(ctx context.Context, ev Event) (*message.Message, error) {
	meta := ev.Envelope()
	meta.stamp()

	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", ev.Topic(), err)
	}

	msg := message.NewMessage(meta.EventID, payload)
	msg.Metadata.Set(MetadataTopic, ev.Topic())
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataRequestID, id)
	}
	return msg, nil
}

// Decode unmarshals a message payload into v.
func Decode(msg *message.Message, v Event) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("unmarshal %s event %s: %w", v.Topic(), msg.UUID, err)
	}
	return nil
}

// messageContext restores the request ID carried in metadata so handler
// logs can be correlated with the HTTP request that caused the event.
func messageContext(msg *message.Message) context.Context {
	ctx := msg.Context()
	if id := msg.Metadata.Get(MetadataRequestID); id != "" {
		ctx = logging.ContextWithRequestID(ctx, id)
	}
	return ctx
}
