// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package models

import "time"

// Roles a user can hold. Anonymous is only ever assigned to requests
// without a token; it is never stored.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleAnonymous = "anonymous"
)

// ValidRole reports whether role may be stored on a user.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// User is an account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Bio          string    `json:"bio,omitempty"`
	AvatarID     string    `json:"avatar_id,omitempty"`
	Banned       bool      `json:"banned"`
	BestRank     int       `json:"best_rank"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin is shorthand for Role == RoleAdmin.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Public strips the email so the user can be shown to other members.
func (u User) Public() User {
	u.Email = ""
	return u
}

// NicknameStyle controls how a nickname is rendered next to posts,
// comments and in rankings.
type NicknameStyle struct {
	Tier  string `json:"tier"`
	Color string `json:"color"`
	Badge string `json:"badge,omitempty"`
	Bold  bool   `json:"bold"`
}

// Author is the short form of a user embedded in posts, comments and
// whispers.
type Author struct {
	ID       string        `json:"id"`
	Nickname string        `json:"nickname"`
	Style    NicknameStyle `json:"style"`
}

// Profile is the public profile page of a user.
type Profile struct {
	User          User           `json:"user"`
	Style         NicknameStyle  `json:"style"`
	CategoryStats []CategoryStat `json:"category_stats"`
	OverallRank   int            `json:"overall_rank"`
	OverallScore  float64        `json:"overall_score"`
	PostCount     int64          `json:"post_count"`
	CommentCount  int64          `json:"comment_count"`
}

// UserFilter selects users for admin listings and member search.
type UserFilter struct {
	Query  string
	Role   string
	Banned *bool
	Offset int
	Limit  int
}

// Actor is the authenticated caller of a request, taken from its token.
// A nil *Actor is an anonymous visitor.
type Actor struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the actor holds the admin role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}
