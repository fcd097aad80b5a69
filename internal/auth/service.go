// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

// Package auth implements email and password accounts with JWT sessions.
//
// Signup and Login return a signed HS256 token carrying the user id (sub),
// nickname, role and a jti. Logout revokes the jti until the token would
// have expired. The HTTP middleware accepts the token from an
// "Authorization: Bearer" header or the HttpOnly "token" cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/indieforge/internal/audit"
	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/database"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/validation"
)

// DefaultBcryptCost is the bcrypt work factor for stored passwords.
const DefaultBcryptCost = 12

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrNicknameTaken      = errors.New("nickname is already taken")
	ErrBanned             = errors.New("account is banned")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrLockedOut          = errors.New("too many failed logins, try again later")
)

// Auditor receives authentication events.
type Auditor interface {
	LogSignup(ctx context.Context, actor audit.Actor)
	LogAuthSuccess(ctx context.Context, actor audit.Actor)
	LogAuthFailure(ctx context.Context, email, reason string)
	LogLogout(ctx context.Context, actor audit.Actor, tokenID string)
}

type nopAuditor struct{}

func (nopAuditor) LogSignup(context.Context, audit.Actor)         {}
func (nopAuditor) LogAuthSuccess(context.Context, audit.Actor)    {}
func (nopAuditor) LogAuthFailure(context.Context, string, string) {}
func (nopAuditor) LogLogout(context.Context, audit.Actor, string) {}

// Service handles signup, login, logout and token verification.
type Service struct {
	db      *database.DB
	tokens  *JWTManager
	revoked RevocationStore
	lockout *Lockout
	auditor Auditor

	bcryptCost int

	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyOnce sync.Once
	dummyHash []byte
}

// NewService wires the auth service. A nil revocation store falls back to
// memory and a nil auditor discards events.
func NewService(db *database.DB, tokens *JWTManager, revoked RevocationStore, auditor Auditor) *Service {
	if revoked == nil {
		revoked = NewMemoryRevocationStore()
	}
	if auditor == nil {
		auditor = nopAuditor{}
	}
	return &Service{
		db:         db,
		tokens:     tokens,
		revoked:    revoked,
		lockout:    NewLockout(DefaultLockoutConfig()),
		auditor:    auditor,
		bcryptCost: DefaultBcryptCost,
	}
}

// Tokens returns the JWT manager.
func (s *Service) Tokens() *JWTManager {
	return s.tokens
}

// HashPassword hashes password with the service's bcrypt cost.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a user account and returns a session for it.
func (s *Service) Signup(ctx context.Context, in models.SignupInput) (*models.AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Nickname = strings.TrimSpace(in.Nickname)
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	if _, err := s.db.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if _, err := s.db.GetUserByNickname(ctx, in.Nickname); err == nil {
		return nil, ErrNicknameTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:        in.Email,
		Nickname:     in.Nickname,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.db.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	logging.Info().Str("user_id", u.ID).Str("nickname", u.Nickname).Msg("user signed up")
	s.auditor.LogSignup(ctx, audit.UserActor(u.ID, u.Nickname, u.Role))
	return s.issue(u)
}

// Login checks the credentials and returns a new session. Unknown emails
// and wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, in models.LoginInput) (*models.AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	if locked, until := s.lockout.Locked(in.Email); locked {
		s.auditor.LogAuthFailure(ctx, in.Email, "locked out")
		logging.Warn().Str("email", maskEmail(in.Email)).Time("locked_until", until).Msg("login refused, account locked")
		return nil, ErrLockedOut
	}

	u, err := s.db.GetUserByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if u == nil {
		s.dummyOnce.Do(func() {
			s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("indieforge-dummy-password"), s.bcryptCost)
		})
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		s.failLogin(ctx, in.Email, "unknown email")
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		s.failLogin(ctx, in.Email, "wrong password")
		return nil, ErrInvalidCredentials
	}
	if u.Banned {
		s.auditor.LogAuthFailure(ctx, in.Email, "banned")
		return nil, ErrBanned
	}

	s.lockout.Reset(in.Email)
	s.auditor.LogAuthSuccess(ctx, audit.UserActor(u.ID, u.Nickname, u.Role))
	return s.issue(u)
}

// maskEmail keeps the first character of the local part and the domain,
// e.g. "ada@example.com" becomes "a***@example.com".
func maskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

func (s *Service) failLogin(ctx context.Context, email, reason string) {
	if s.lockout.Fail(email) {
		logging.Warn().Str("email", maskEmail(email)).Msg("account locked after repeated login failures")
	}
	s.auditor.LogAuthFailure(ctx, email, reason)
}

func (s *Service) issue(u *models.User) (*models.AuthResult, error) {
	token, claims, err := s.tokens.GenerateToken(u)
	if err != nil {
		return nil, err
	}
	return &models.AuthResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAtTime(),
		User:      *u,
		IsAdmin:   u.IsAdmin(),
	}, nil
}

// Verify validates tokenString and rejects revoked tokens.
func (s *Service) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the session described by claims.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAtTime()); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.auditor.LogLogout(ctx, audit.UserActor(claims.Subject, claims.Nickname, claims.Role), claims.ID)
	return nil
}

// Me returns the caller's account. The role comes from the database so a
// promotion shows up before the token is renewed.
func (s *Service) Me(ctx context.Context, actor *models.Actor) (*models.MeResponse, error) {
	if actor == nil || actor.ID == "" {
		return nil, ErrUnauthenticated
	}
	u, err := s.db.GetUser(ctx, actor.ID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return &models.MeResponse{User: u, IsAdmin: u.IsAdmin()}, nil
}

// EnsureAdmin creates the bootstrap admin from cfg when it does not exist
// yet. It returns the admin, or nil when no bootstrap account is
// configured. An existing account is returned unchanged.
func (s *Service) EnsureAdmin(ctx context.Context, cfg *config.SecurityConfig) (*models.User, error) {
	email := normalizeEmail(cfg.AdminEmail)
	if email == "" || cfg.AdminPassword == "" {
		return nil, nil
	}

	existing, err := s.db.GetUserByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			logging.Warn().Str("user_id", existing.ID).Msg("bootstrap admin email belongs to a non-admin user, leaving it unchanged")
		}
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	nickname := strings.TrimSpace(cfg.AdminNickname)
	if nickname == "" {
		nickname = "admin"
	}
	hash, err := s.HashPassword(cfg.AdminPassword)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.db.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	logging.Info().Str("user_id", u.ID).Msg("bootstrap admin created")
	return u, nil
}

// PromoteByEmail gives the user with email the admin role.
func (s *Service) PromoteByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.db.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u.IsAdmin() {
		return u, nil
	}
	if err := s.db.SetUserRole(ctx, u.ID, models.RoleAdmin); err != nil {
		return nil, err
	}
	u.Role = models.RoleAdmin
	u.UpdatedAt = time.Now().UTC()
	return u, nil
}
