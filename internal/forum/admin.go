// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"context"

	"github.com/tomtom215/indieforge/internal/metrics"
	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/validation"
)

// DashboardStats returns the admin dashboard counters.
func (s *Service) DashboardStats(ctx context.Context, actor *models.Actor) (*models.DashboardStats, error) {
	if _, err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	return s.db.DashboardStats(ctx)
}

// ListUsers returns a page of accounts, emails included, for admins.
func (s *Service) ListUsers(ctx context.Context, actor *models.Actor, f models.UserFilter) ([]models.User, int64, error) {
	if _, err := s.requireAdmin(ctx, actor); err != nil {
		return nil, 0, err
	}
	if f.Role != "" && !models.ValidRole(f.Role) {
		return nil, 0, invalid("unknown role %q", f.Role)
	}
	f.Offset, f.Limit = s.page(f.Offset, f.Limit)
	return s.db.ListUsers(ctx, f)
}

// SetRole grants or revokes admin. Admins cannot demote themselves.
func (s *Service) SetRole(ctx context.Context, actor *models.Actor, userID string, in models.SetRoleInput) (err error) {
	defer func() { metrics.RecordForumAction("admin_set_role", err) }()

	if verr := validation.ValidateStruct(in); verr != nil {
		return verr
	}
	admin, err := s.requireAdmin(ctx, actor)
	if err != nil {
		return err
	}
	if userID == admin.ID && in.Role != models.RoleAdmin {
		return invalid("admins cannot demote themselves")
	}
	target, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err = s.db.SetUserRole(ctx, userID, in.Role); err != nil {
		return err
	}
	s.auditAdmin(ctx, admin, "user.set_role", "user", userID, "Changed role of "+target.Nickname,
		map[string]interface{}{"from": target.Role, "to": in.Role})
	return nil
}

// SetBanned bans or unbans a member. Admins cannot ban themselves.
func (s *Service) SetBanned(ctx context.Context, actor *models.Actor, userID string, in models.SetBannedInput) (err error) {
	defer func() { metrics.RecordForumAction("admin_set_banned", err) }()

	admin, err := s.requireAdmin(ctx, actor)
	if err != nil {
		return err
	}
	if userID == admin.ID && in.Banned {
		return invalid("admins cannot ban themselves")
	}
	target, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err = s.db.SetUserBanned(ctx, userID, in.Banned); err != nil {
		return err
	}

	action, desc := "user.ban", "Banned "+target.Nickname
	if !in.Banned {
		action, desc = "user.unban", "Unbanned "+target.Nickname
	}
	s.auditAdmin(ctx, admin, action, "user", userID, desc, nil)
	return nil
}

// PinPost pins or unpins a post at the top of the latest listing.
func (s *Service) PinPost(ctx context.Context, actor *models.Actor, postID string, in models.SetPinnedInput) (err error) {
	defer func() { metrics.RecordForumAction("admin_pin_post", err) }()

	admin, err := s.requireAdmin(ctx, actor)
	if err != nil {
		return err
	}
	if err = s.db.SetPostPinned(ctx, postID, in.Pinned); err != nil {
		return err
	}

	action := "post.pin"
	if !in.Pinned {
		action = "post.unpin"
	}
	s.auditAdmin(ctx, admin, action, "post", postID, "Changed pin state", map[string]interface{}{"pinned": in.Pinned})
	return nil
}

// TriggerRecompute runs a ranking recompute on behalf of an admin.
func (s *Service) TriggerRecompute(ctx context.Context, actor *models.Actor) (*models.RankingRun, error) {
	admin, err := s.requireAdmin(ctx, actor)
	if err != nil {
		return nil, err
	}
	run, err := s.Recompute(ctx, TriggerManual)
	if err != nil {
		return nil, err
	}
	s.auditAdmin(ctx, admin, "rankings.recompute", "ranking_run", run.ID, "Triggered ranking recompute", nil)
	return run, nil
}
