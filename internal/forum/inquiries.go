// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"context"
	"strings"

	"github.com/tomtom215/indieforge/internal/metrics"
	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/validation"
)

// CreateInquiry files a support inquiry. actor may be nil; anonymous
// inquiries must carry a reply email. Banned members may still write in.
func (s *Service) CreateInquiry(ctx context.Context, actor *models.Actor, in models.CreateInquiryInput) (q *models.Inquiry, err error) {
	defer func() { metrics.RecordForumAction("inquiry_create", err) }()

	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}
	q = &models.Inquiry{
		Email:   strings.TrimSpace(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: in.Message,
	}
	if actor != nil {
		u, err := s.currentUser(ctx, actor)
		if err != nil {
			return nil, err
		}
		q.UserID = u.ID
		if q.Email == "" {
			q.Email = u.Email
		}
	}
	if q.Email == "" {
		return nil, invalid("email is required for anonymous inquiries")
	}
	if q.Subject == "" {
		return nil, invalid("subject must not be blank")
	}

	if err = s.db.CreateInquiry(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ListInquiries returns inquiries in any status, or one status, for admins.
func (s *Service) ListInquiries(ctx context.Context, actor *models.Actor, status string, offset, limit int) ([]models.Inquiry, int64, error) {
	if _, err := s.requireAdmin(ctx, actor); err != nil {
		return nil, 0, err
	}
	if status != "" && !models.ValidInquiryStatus(status) {
		return nil, 0, invalid("unknown inquiry status %q", status)
	}
	offset, limit = s.page(offset, limit)
	return s.db.ListInquiries(ctx, status, "", offset, limit)
}

// MyInquiries returns the inquiries actor filed.
func (s *Service) MyInquiries(ctx context.Context, actor *models.Actor, offset, limit int) ([]models.Inquiry, int64, error) {
	u, err := s.currentUser(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	offset, limit = s.page(offset, limit)
	return s.db.ListInquiries(ctx, "", u.ID, offset, limit)
}

// GetInquiry returns an inquiry to its author or an admin.
func (s *Service) GetInquiry(ctx context.Context, actor *models.Actor, id string) (*models.Inquiry, error) {
	u, err := s.currentUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	q, err := s.db.GetInquiry(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.UserID != u.ID && !u.IsAdmin() {
		return nil, ErrForbidden
	}
	return q, nil
}

// AnswerInquiry records an admin's answer and marks the inquiry answered.
func (s *Service) AnswerInquiry(ctx context.Context, actor *models.Actor, id string, in models.AnswerInquiryInput) (q *models.Inquiry, err error) {
	defer func() { metrics.RecordForumAction("inquiry_answer", err) }()

	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}
	admin, err := s.requireAdmin(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err = s.db.AnswerInquiry(ctx, id, in.Answer, admin.ID); err != nil {
		return nil, err
	}
	s.auditAdmin(ctx, admin, "inquiry.answer", "inquiry", id, "Answered inquiry", nil)
	return s.db.GetInquiry(ctx, id)
}

// CloseInquiry marks an inquiry closed.
func (s *Service) CloseInquiry(ctx context.Context, actor *models.Actor, id string) error {
	admin, err := s.requireAdmin(ctx, actor)
	if err != nil {
		return err
	}
	if err := s.db.CloseInquiry(ctx, id); err != nil {
		return err
	}
	s.auditAdmin(ctx, admin, "inquiry.close", "inquiry", id, "Closed inquiry", nil)
	return nil
}
