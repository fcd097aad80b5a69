// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/indieforge/internal/events"
	"github.com/tomtom215/indieforge/internal/metrics"
	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/ranking"
	"github.com/tomtom215/indieforge/internal/validation"
)

// limiterIdleTTL is how long an unused sender limiter is kept.
const limiterIdleTTL = 10 * time.Minute

type senderLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per whisper sender.
type limiterSet struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*senderLimiter
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterSet(perMinute float64, burst int) *limiterSet {
	return &limiterSet{
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
		limiters: make(map[string]*senderLimiter),
		now:      time.Now,
	}
}

// Allow consumes one token from userID's bucket.
func (l *limiterSet) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for id, sl := range l.limiters {
			if now.Sub(sl.lastSeen) > limiterIdleTTL {
				delete(l.limiters, id)
			}
		}
		l.lastSweep = now
	}

	sl, ok := l.limiters[userID]
	if !ok {
		sl = &senderLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = sl
	}
	sl.lastSeen = now
	return sl.limiter.AllowN(now, 1)
}

// SendWhisper delivers a private message from actor to in.RecipientID.
func (s *Service) SendWhisper(ctx context.Context, actor *models.Actor, in models.SendWhisperInput) (w *models.Whisper, err error) {
	defer func() { metrics.RecordForumAction("whisper_send", err) }()

	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, invalid("content must not be blank")
	}
	sender, err := s.activeUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if in.RecipientID == sender.ID {
		return nil, ErrSelfWhisper
	}
	recipient, err := s.db.GetUser(ctx, in.RecipientID)
	if err != nil {
		return nil, err
	}
	if !s.whispers.Allow(sender.ID) {
		return nil, ErrRateLimited
	}

	w = &models.Whisper{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Content:     in.Content,
	}
	if err = s.db.CreateWhisper(ctx, w); err != nil {
		return nil, err
	}
	w.Sender = ranking.AuthorOf(sender)
	w.Recipient = ranking.AuthorOf(recipient)

	s.publish(ctx, &events.WhisperSent{
		WhisperID:      w.ID,
		SenderID:       sender.ID,
		SenderNickname: sender.Nickname,
		RecipientID:    recipient.ID,
		Preview:        events.Preview(w.Content),
	})
	return w, nil
}

// Inbox returns whispers received by actor, newest first.
func (s *Service) Inbox(ctx context.Context, actor *models.Actor, offset, limit int) ([]models.Whisper, int64, error) {
	return s.listWhispers(ctx, actor, models.WhisperInbox, offset, limit)
}

// Outbox returns whispers sent by actor, newest first.
func (s *Service) Outbox(ctx context.Context, actor *models.Actor, offset, limit int) ([]models.Whisper, int64, error) {
	return s.listWhispers(ctx, actor, models.WhisperOutbox, offset, limit)
}

func (s *Service) listWhispers(ctx context.Context, actor *models.Actor, box models.WhisperBox, offset, limit int) ([]models.Whisper, int64, error) {
	user, err := s.currentUser(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	offset, limit = s.page(offset, limit)
	return s.db.ListWhispers(ctx, user.ID, box, offset, limit)
}

// Conversation returns the whispers exchanged between actor and otherID in
// both directions, newest first.
func (s *Service) Conversation(ctx context.Context, actor *models.Actor, otherID string, offset, limit int) ([]models.Whisper, int64, error) {
	user, err := s.currentUser(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.db.GetUser(ctx, otherID); err != nil {
		return nil, 0, err
	}
	offset, limit = s.page(offset, limit)
	return s.db.Conversation(ctx, user.ID, otherID, offset, limit)
}

// MarkWhisperRead marks a received whisper as read. Whispers addressed to
// someone else are reported as not found.
func (s *Service) MarkWhisperRead(ctx context.Context, actor *models.Actor, id string) error {
	user, err := s.currentUser(ctx, actor)
	if err != nil {
		return err
	}
	return s.db.MarkWhisperRead(ctx, id, user.ID)
}

// MarkAllRead marks every unread whisper of actor as read.
func (s *Service) MarkAllRead(ctx context.Context, actor *models.Actor) (int64, error) {
	user, err := s.currentUser(ctx, actor)
	if err != nil {
		return 0, err
	}
	return s.db.MarkAllWhispersRead(ctx, user.ID)
}

// UnreadCount returns how many whispers actor has not read.
func (s *Service) UnreadCount(ctx context.Context, actor *models.Actor) (int64, error) {
	user, err := s.currentUser(ctx, actor)
	if err != nil {
		return 0, err
	}
	return s.db.CountUnreadWhispers(ctx, user.ID)
}

// DeleteWhisper hides a whisper from actor's side of the conversation.
func (s *Service) DeleteWhisper(ctx context.Context, actor *models.Actor, id string) error {
	user, err := s.currentUser(ctx, actor)
	if err != nil {
		return err
	}
	return s.db.DeleteWhisperFor(ctx, id, user.ID)
}
