// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/indieforge/internal/models"
)

func TestInquiryLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	admin := env.admin(t, "mod")

	q, err := env.svc.CreateInquiry(ctx, alice, models.CreateInquiryInput{Subject: "Lost post", Message: "My post vanished"})
	if err != nil {
		t.Fatalf("CreateInquiry() error = %v", err)
	}
	if q.UserID != alice.ID || q.Email != "alice@example.org" || q.Status != models.InquiryOpen {
		t.Errorf("inquiry = %+v", q)
	}

	if _, err := env.svc.GetInquiry(ctx, bob, q.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger GetInquiry error = %v, want ErrForbidden", err)
	}
	if _, err := env.svc.GetInquiry(ctx, alice, q.ID); err != nil {
		t.Errorf("owner GetInquiry error = %v", err)
	}

	if _, _, err := env.svc.ListInquiries(ctx, alice, "", 0, 10); !errors.Is(err, ErrForbidden) {
		t.Errorf("member ListInquiries error = %v", err)
	}
	open, total, err := env.svc.ListInquiries(ctx, admin, models.InquiryOpen, 0, 10)
	if err != nil || total != 1 || len(open) != 1 {
		t.Fatalf("ListInquiries(open) = %d/%d, %v", len(open), total, err)
	}
	if _, _, err := env.svc.ListInquiries(ctx, admin, "pending", 0, 10); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown status error = %v", err)
	}

	answered, err := env.svc.AnswerInquiry(ctx, admin, q.ID, models.AnswerInquiryInput{Answer: "Restored it"})
	if err != nil {
		t.Fatalf("AnswerInquiry() error = %v", err)
	}
	if answered.Status != models.InquiryAnswered || answered.AnsweredBy != admin.ID || answered.AnsweredAt == nil {
		t.Errorf("answered = %+v", answered)
	}

	if err := env.svc.CloseInquiry(ctx, alice, q.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("member CloseInquiry error = %v", err)
	}
	if err := env.svc.CloseInquiry(ctx, admin, q.ID); err != nil {
		t.Fatalf("CloseInquiry() error = %v", err)
	}

	mine, total, _ := env.svc.MyInquiries(ctx, alice, 0, 10)
	if total != 1 || mine[0].Status != models.InquiryClosed {
		t.Errorf("MyInquiries = %+v", mine)
	}

	if actions := env.auditor.actions(); len(actions) != 2 || actions[0] != "inquiry.answer" || actions[1] != "inquiry.close" {
		t.Errorf("audit actions = %v", actions)
	}
}

func TestCreateInquiry_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CreateInquiry(ctx, nil, models.CreateInquiryInput{Subject: "Hi", Message: "Question"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("anonymous without email error = %v, want ErrInvalidInput", err)
	}

	q, err := env.svc.CreateInquiry(ctx, nil, models.CreateInquiryInput{Email: "guest@example.org", Subject: "Hi", Message: "Question"})
	if err != nil {
		t.Fatalf("CreateInquiry() error = %v", err)
	}
	if q.UserID != "" || q.Email != "guest@example.org" {
		t.Errorf("inquiry = %+v", q)
	}

	if _, err := env.svc.GetInquiry(ctx, nil, q.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous GetInquiry error = %v", err)
	}
}

func TestCreateInquiry_BannedMemberMayWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	if err := env.db.SetUserBanned(ctx, alice.ID, true); err != nil {
		t.Fatalf("SetUserBanned() error = %v", err)
	}
	if _, err := env.svc.CreateInquiry(ctx, alice, models.CreateInquiryInput{Subject: "Appeal", Message: "Please"}); err != nil {
		t.Errorf("banned member inquiry error = %v", err)
	}
}
