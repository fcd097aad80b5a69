// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package events

import (
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/websocket"
)

// RankingMarker is told when something that feeds the rankings changed.
type RankingMarker interface {
	MarkDirty(reason string)
}

// Notifier pushes messages to websocket clients.
type Notifier interface {
	Broadcast(messageType string, data interface{})
	SendToUser(userID, messageType string, data interface{})
}

// rankingTopics are the events that change a post score or the set of
// posts a ranking is computed from.
var rankingTopics = []string{
	TopicPostCreated,
	TopicPostUpdated,
	TopicPostDeleted,
	TopicPostUpvoted,
	TopicCommentCreated,
}

// RegisterRankingHandlers marks rankings dirty on every ranking topic.
func RegisterRankingHandlers(b *Bus, marker RankingMarker) {
	for _, topic := range rankingTopics {
		topic := topic
		b.Handle("ranking-dirty."+topic, topic, func(msg *message.Message) error {
			marker.MarkDirty(topic)
			return nil
		})
	}
}

// RegisterNotifierHandlers forwards whispers to their recipient and
// broadcasts new posts and ranking updates.
func RegisterNotifierHandlers(b *Bus, n Notifier) {
	b.Handle("notify.whisper", TopicWhisperSent, func(msg *message.Message) error {
		var ev WhisperSent
		if err := Decode(msg, &ev); err != nil {
			return err
		}
		n.SendToUser(ev.RecipientID, websocket.MessageTypeWhisper, ev)
		logging.Ctx(messageContext(msg)).Debug().
			Str("whisper_id", ev.WhisperID).
			Str("recipient_id", ev.RecipientID).
			Msg("whisper notification queued")
		return nil
	})

	b.Handle("notify.post", TopicPostCreated, func(msg *message.Message) error {
		var ev PostCreated
		if err := Decode(msg, &ev); err != nil {
			return err
		}
		n.Broadcast(websocket.MessageTypePostCreated, ev)
		return nil
	})

	b.Handle("notify.ranking", TopicRankingRecomputed, func(msg *message.Message) error {
		var ev RankingRecomputed
		if err := Decode(msg, &ev); err != nil {
			return err
		}
		n.Broadcast(websocket.MessageTypeRankingUpdated, ev)
		return nil
	})
}
