// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package models

import "time"

// Inquiry statuses.
const (
	InquiryOpen     = "open"
	InquiryAnswered = "answered"
	InquiryClosed   = "closed"
)

// ValidInquiryStatus reports whether s is a known status.
func ValidInquiryStatus(s string) bool {
	return s == InquiryOpen || s == InquiryAnswered || s == InquiryClosed
}

// Inquiry is a message sent to the site admins through the contact form.
// UserID is empty for anonymous inquiries, which must then carry an email.
type Inquiry struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id,omitempty"`
	Email      string     `json:"email"`
	Subject    string     `json:"subject"`
	Message    string     `json:"message"`
	Status     string     `json:"status"`
	Answer     string     `json:"answer,omitempty"`
	AnsweredBy string     `json:"answered_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

// CreateInquiryInput is the body of POST /api/v1/inquiries.
type CreateInquiryInput struct {
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Subject string `json:"subject" validate:"required,min=1,max=200"`
	Message string `json:"message" validate:"required,min=1,max=5000"`
}

// AnswerInquiryInput is the body of POST /api/v1/admin/inquiries/{id}/answer.
type AnswerInquiryInput struct {
	Answer string `json:"answer" validate:"required,min=1,max=5000"`
}
