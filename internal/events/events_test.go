// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package events

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/tomtom215/indieforge/internal/logging"
)

func TestNewMessage_StampsEnvelope(t *testing.T) {
	ctx := logging.ContextWithRequestID(context.Background(), "req-42")
	ev := &PostCreated{PostID: "p1", Category: "unity", Title: "Shader tips"}

	msg, err := NewMessage(ctx, ev)
	if err != nil {
		t.Fatal(err)
	}
	if ev.EventID == "" || ev.OccurredAt.IsZero() {
		t.Fatal("envelope was not stamped")
	}
	if msg.UUID != ev.EventID {
		t.Errorf("message UUID %q != event ID %q", msg.UUID, ev.EventID)
	}
	if msg.Metadata.Get(MetadataTopic) != TopicPostCreated {
		t.Errorf("topic metadata = %q", msg.Metadata.Get(MetadataTopic))
	}
	if msg.Metadata.Get(MetadataRequestID) != "req-42" {
		t.Errorf("request_id metadata = %q", msg.Metadata.Get(MetadataRequestID))
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"event_id", "occurred_at", "post_id", "category", "title"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("payload missing %q: %s", key, msg.Payload)
		}
	}

	var back PostCreated
	if err := Decode(msg, &back); err != nil {
		t.Fatal(err)
	}
	if back.PostID != "p1" || back.EventID != ev.EventID {
		t.Errorf("decoded = %+v", back)
	}
	if got := messageContext(msg); logging.RequestIDFromContext(got) != "req-42" {
		t.Error("messageContext should restore the request ID")
	}
}

func TestNewMessage_KeepsExistingEnvelope(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := &RankingRecomputed{Meta: Meta{EventID: "fixed", OccurredAt: at}}

	msg, err := NewMessage(context.Background(), ev)
	if err != nil {
		t.Fatal(err)
	}
	if msg.UUID != "fixed" || !ev.OccurredAt.Equal(at) {
		t.Errorf("envelope overwritten: %+v", ev.Meta)
	}
}

func TestTopics(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{&PostCreated{}, TopicPostCreated},
		{&PostUpdated{}, TopicPostUpdated},
		{&PostDeleted{}, TopicPostDeleted},
		{&PostUpvoted{}, TopicPostUpvoted},
		{&CommentCreated{}, TopicCommentCreated},
		{&WhisperSent{}, TopicWhisperSent},
		{&RankingRecomputed{}, TopicRankingRecomputed},
	}
	if len(tests) != len(AllTopics) {
		t.Fatalf("test table covers %d topics, AllTopics has %d", len(tests), len(AllTopics))
	}
	for _, tt := range tests {
		if got := tt.ev.Topic(); got != tt.want {
			t.Errorf("Topic() = %q, want %q", got, tt.want)
		}
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short"); got != "short" {
		t.Errorf("Preview(short) = %q", got)
	}
	long := strings.Repeat("é", 200)
	got := Preview(long)
	if n := utf8.RuneCountInString(got); n != previewLength {
		t.Errorf("Preview rune count = %d, want %d", n, previewLength)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Preview should end with an ellipsis: %q", got)
	}
}

func TestRouterConfigFrom(t *testing.T) {
	rc := RouterConfigFrom(nil)
	if rc.RetryMaxRetries != 3 || rc.PoisonQueueTopic != "events.poison" {
		t.Errorf("defaults = %+v", rc)
	}

	rc = RouterConfigFrom(testEventsConfig())
	if rc.RetryMaxRetries != 1 || rc.RetryInitialInterval != time.Millisecond || rc.CloseTimeout != time.Second {
		t.Errorf("mapped = %+v", rc)
	}
}
