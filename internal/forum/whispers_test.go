// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/indieforge/internal/events"
	"github.com/tomtom215/indieforge/internal/models"
)

func TestSendWhisper(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	w, err := env.svc.SendWhisper(ctx, alice, models.SendWhisperInput{RecipientID: bob.ID, Content: "Want to jam?"})
	if err != nil {
		t.Fatalf("SendWhisper() error = %v", err)
	}
	if w.Sender == nil || w.Sender.Nickname != "alice" || w.Recipient.Nickname != "bob" {
		t.Errorf("whisper authors = %+v / %+v", w.Sender, w.Recipient)
	}

	if _, err := env.svc.SendWhisper(ctx, alice, models.SendWhisperInput{RecipientID: alice.ID, Content: "me"}); !errors.Is(err, ErrSelfWhisper) {
		t.Errorf("self whisper error = %v", err)
	}
	if _, err := env.svc.SendWhisper(ctx, alice, models.SendWhisperInput{RecipientID: "ghost", Content: "hi"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown recipient error = %v", err)
	}

	env.pub.mu.Lock()
	defer env.pub.mu.Unlock()
	if len(env.pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(env.pub.events))
	}
	sent, ok := env.pub.events[0].(*events.WhisperSent)
	if !ok || sent.RecipientID != bob.ID || sent.Preview != "Want to jam?" {
		t.Errorf("event = %+v", env.pub.events[0])
	}
}

func TestSendWhisper_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.WhisperRatePerMinute = 1
		o.WhisperBurst = 2
	})
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")

	in := models.SendWhisperInput{RecipientID: bob.ID, Content: "ping"}
	for i := 0; i < 2; i++ {
		if _, err := env.svc.SendWhisper(ctx, alice, in); err != nil {
			t.Fatalf("whisper %d error = %v", i, err)
		}
	}
	if _, err := env.svc.SendWhisper(ctx, alice, in); !errors.Is(err, ErrRateLimited) {
		t.Errorf("third whisper error = %v, want ErrRateLimited", err)
	}
	if _, err := env.svc.SendWhisper(ctx, carol, in); err != nil {
		t.Errorf("other sender should have its own bucket: %v", err)
	}
}

func TestWhisperBoxes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	first, _ := env.svc.SendWhisper(ctx, alice, models.SendWhisperInput{RecipientID: bob.ID, Content: "one"})
	env.svc.SendWhisper(ctx, alice, models.SendWhisperInput{RecipientID: bob.ID, Content: "two"})
	env.svc.SendWhisper(ctx, bob, models.SendWhisperInput{RecipientID: alice.ID, Content: "reply"})

	inbox, total, err := env.svc.Inbox(ctx, bob, 0, 10)
	if err != nil || total != 2 || len(inbox) != 2 {
		t.Fatalf("Inbox() = %d/%d, %v", len(inbox), total, err)
	}
	_, total, _ = env.svc.Outbox(ctx, alice, 0, 10)
	if total != 2 {
		t.Errorf("Outbox total = %d, want 2", total)
	}
	_, total, _ = env.svc.Conversation(ctx, alice, bob.ID, 0, 10)
	if total != 3 {
		t.Errorf("Conversation total = %d, want 3", total)
	}

	if n, _ := env.svc.UnreadCount(ctx, bob); n != 2 {
		t.Errorf("UnreadCount = %d, want 2", n)
	}
	if err := env.svc.MarkWhisperRead(ctx, alice, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("sender marking read error = %v, want ErrNotFound", err)
	}
	if err := env.svc.MarkWhisperRead(ctx, bob, first.ID); err != nil {
		t.Fatalf("MarkWhisperRead() error = %v", err)
	}
	if n, _ := env.svc.MarkAllRead(ctx, bob); n != 1 {
		t.Errorf("MarkAllRead = %d, want 1", n)
	}
	if n, _ := env.svc.UnreadCount(ctx, bob); n != 0 {
		t.Errorf("UnreadCount after MarkAllRead = %d", n)
	}

	if err := env.svc.DeleteWhisper(ctx, bob, first.ID); err != nil {
		t.Fatalf("DeleteWhisper() error = %v", err)
	}
	_, total, _ = env.svc.Inbox(ctx, bob, 0, 10)
	if total != 1 {
		t.Errorf("Inbox after delete = %d, want 1", total)
	}
	_, total, _ = env.svc.Outbox(ctx, alice, 0, 10)
	if total != 2 {
		t.Errorf("sender still sees the whisper: Outbox = %d, want 2", total)
	}

	if _, _, err := env.svc.Inbox(ctx, nil, 0, 10); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous Inbox error = %v", err)
	}
}

func TestLimiterSet_SweepsIdleSenders(t *testing.T) {
	l := newLimiterSet(60, 1)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("a") {
		t.Fatal("first Allow should pass")
	}
	if l.Allow("a") {
		t.Error("burst of one should be exhausted")
	}

	now = now.Add(2 * time.Second)
	if !l.Allow("a") {
		t.Error("bucket should refill after a second at 60/min")
	}

	now = now.Add(limiterIdleTTL + time.Minute)
	l.Allow("b")
	if _, ok := l.limiters["a"]; ok {
		t.Error("idle limiter should have been swept")
	}
}
