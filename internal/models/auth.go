// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package models

import "time"

// SignupInput is the body of POST /api/v1/auth/signup.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Nickname string `json:"nickname" validate:"required,nickname"`
}

// LoginInput is the body of POST /api/v1/auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
	IsAdmin   bool      `json:"is_admin"`
}

// MeResponse is returned by GET /api/v1/auth/me.
type MeResponse struct {
	User    *User `json:"user"`
	IsAdmin bool  `json:"is_admin"`
}

// UpdateProfileInput is the body of PUT /api/v1/users/me. Nil fields are
// left unchanged.
type UpdateProfileInput struct {
	Nickname *string `json:"nickname,omitempty" validate:"omitempty,nickname"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	AvatarID *string `json:"avatar_id,omitempty" validate:"omitempty,max=64"`
}
