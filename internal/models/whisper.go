// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package models

import "time"

// Whisper is a private message between two users. Each side can delete
// it independently; the row disappears once both have.
type Whisper struct {
	ID                 string     `json:"id"`
	SenderID           string     `json:"sender_id"`
	Sender             *Author    `json:"sender,omitempty"`
	RecipientID        string     `json:"recipient_id"`
	Recipient          *Author    `json:"recipient,omitempty"`
	Content            string     `json:"content"`
	Read               bool       `json:"read"`
	ReadAt             *time.Time `json:"read_at,omitempty"`
	DeletedBySender    bool       `json:"-"`
	DeletedByRecipient bool       `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
}

// SendWhisperInput is the body of POST /api/v1/whispers.
type SendWhisperInput struct {
	RecipientID string `json:"recipient_id" validate:"required,max=64"`
	Content     string `json:"content" validate:"required,min=1,max=2000"`
}

// WhisperBox selects which side of a user's whispers to list.
type WhisperBox int

const (
	WhisperInbox WhisperBox = iota
	WhisperOutbox
)
