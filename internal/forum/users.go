// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"context"
	"errors"
	"strings"

	"github.com/tomtom215/indieforge/internal/database"
	"github.com/tomtom215/indieforge/internal/metrics"
	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/ranking"
	"github.com/tomtom215/indieforge/internal/validation"
)

// GetProfile returns the public profile of a user.
func (s *Service) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	u, err := s.db.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, u)
}

// GetProfileByNickname looks a profile up by nickname, case-insensitively.
func (s *Service) GetProfileByNickname(ctx context.Context, nickname string) (*models.Profile, error) {
	u, err := s.db.GetUserByNickname(ctx, nickname)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, u)
}

func (s *Service) profile(ctx context.Context, u *models.User) (*models.Profile, error) {
	stats, err := s.db.UserCategoryStats(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	posts, comments, err := s.db.CountUserActivity(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	p := &models.Profile{
		User:          u.Public(),
		Style:         ranking.NicknameStyle(u.Role, u.BestRank),
		CategoryStats: stats,
		PostCount:     posts,
		CommentCount:  comments,
	}
	overall, err := s.db.UserOverallStat(ctx, u.ID)
	switch {
	case err == nil:
		p.OverallRank = overall.Rank
		p.OverallScore = overall.Score
	case !errors.Is(err, database.ErrNotFound):
		return nil, err
	}
	return p, nil
}

// UpdateProfile changes actor's nickname, bio or avatar.
func (s *Service) UpdateProfile(ctx context.Context, actor *models.Actor, in models.UpdateProfileInput) (u *models.User, err error) {
	defer func() { metrics.RecordForumAction("profile_update", err) }()

	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}
	user, err := s.activeUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.db.UpdateUserProfile(ctx, user.ID, in)
}

// SearchUsers finds members whose nickname contains query. Emails are
// stripped and only nicknames are matched.
func (s *Service) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}
	_, limit = s.page(0, limit)
	notBanned := false
	users, _, err := s.db.ListUsers(ctx, models.UserFilter{Query: query, Banned: &notBanned, Limit: limit * 2})
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(query)
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if !strings.Contains(strings.ToLower(u.Nickname), lower) {
			continue
		}
		out = append(out, u.Public())
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
