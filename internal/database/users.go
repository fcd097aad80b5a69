// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/ranking"
)

const userColumns = `id, email, nickname, password_hash, role, bio, avatar_id, banned, best_rank, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Nickname, &u.PasswordHash, &u.Role, &u.Bio,
		&u.AvatarID, &u.Banned, &u.BestRank, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// nicknameKey is the case-folded form nicknames are unique on.
func nicknameKey(nickname string) string {
	return strings.ToLower(strings.TrimSpace(nickname))
}

// authorFrom builds the short author form with its rendered style.
func authorFrom(id, nickname, role string, bestRank int) *models.Author {
	return &models.Author{
		ID:       id,
		Nickname: nickname,
		Style:    ranking.NicknameStyle(role, bestRank),
	}
}

// likePattern escapes LIKE wildcards in user input and wraps it in %.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}

// CreateUser inserts a user. Email is stored lower-cased. ErrConflict is
// returned when the email or the nickname (case-insensitive) is taken.
func (db *DB) CreateUser(ctx context.Context, u *models.User) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "users", time.Now(), &err)

	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	taken, err := db.identityTaken(ctx, u.Email, u.Nickname, "")
	if err != nil {
		return err
	}
	if taken {
		return ErrConflict
	}

	_, err = db.conn.ExecContext(ctx, `INSERT INTO users (
		id, email, nickname, nickname_key, password_hash, role, bio, avatar_id,
		banned, best_rank, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Nickname, nicknameKey(u.Nickname), u.PasswordHash, u.Role, u.Bio, u.AvatarID,
		u.Banned, u.BestRank, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// ImportUser inserts u unless a user with the same id, email or nickname
// exists. It reports whether a row was written.
func (db *DB) ImportUser(ctx context.Context, u *models.User) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := db.conn.ExecContext(ctx, `INSERT INTO users (
		id, email, nickname, nickname_key, password_hash, role, bio, avatar_id,
		banned, best_rank, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING`,
		u.ID, u.Email, u.Nickname, nicknameKey(u.Nickname), u.PasswordHash, u.Role, u.Bio, u.AvatarID,
		u.Banned, u.BestRank, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to import user %s: %w", u.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// identityTaken reports whether email or nickname belongs to a user other
// than exceptID. Empty values are not checked.
func (db *DB) identityTaken(ctx context.Context, email, nickname, exceptID string) (bool, error) {
	var n int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users
		WHERE id <> ? AND ((? <> '' AND email = ?) OR (? <> '' AND nickname_key = ?))`,
		exceptID, email, email, nickname, nicknameKey(nickname)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check user identity: %w", err)
	}
	return n > 0, nil
}

// GetUser returns a user by id.
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	return db.getUserBy(ctx, "id", id)
}

// GetUserByEmail looks up a user by email, case-insensitively.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUserBy(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

// GetUserByNickname looks up a user by nickname, case-insensitively.
func (db *DB) GetUserByNickname(ctx context.Context, nickname string) (*models.User, error) {
	return db.getUserBy(ctx, "nickname_key", nicknameKey(nickname))
}

func (db *DB) getUserBy(ctx context.Context, column, value string) (u *models.User, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "users", time.Now(), &err)

	// column is always one of the constants above
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)
	u, err = scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// UpdateUserProfile applies the non-nil fields of in and returns the
// updated user.
func (db *DB) UpdateUserProfile(ctx context.Context, id string, in models.UpdateProfileInput) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	u, err := db.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Nickname != nil && nicknameKey(*in.Nickname) != nicknameKey(u.Nickname) {
		taken, err := db.identityTaken(ctx, "", *in.Nickname, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrConflict
		}
	}
	if in.Nickname != nil {
		u.Nickname = strings.TrimSpace(*in.Nickname)
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.AvatarID != nil {
		u.AvatarID = *in.AvatarID
	}
	u.UpdatedAt = time.Now().UTC()

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `UPDATE users SET nickname = ?, nickname_key = ?, bio = ?, avatar_id = ?, updated_at = ?
		WHERE id = ?`, u.Nickname, nicknameKey(u.Nickname), u.Bio, u.AvatarID, u.UpdatedAt, id)
	observe("update", "users", start, &err)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return u, nil
}

// SetUserRole changes a user's role.
func (db *DB) SetUserRole(ctx context.Context, id, role string) error {
	if !models.ValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	return db.updateUserField(ctx, "role", role, id)
}

// SetUserBanned bans or unbans a user.
func (db *DB) SetUserBanned(ctx context.Context, id string, banned bool) error {
	return db.updateUserField(ctx, "banned", banned, id)
}

// SetUserPasswordHash replaces a user's password hash.
func (db *DB) SetUserPasswordHash(ctx context.Context, id, hash string) error {
	return db.updateUserField(ctx, "password_hash", hash, id)
}

func (db *DB) updateUserField(ctx context.Context, column string, value any, id string) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "users", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET `+column+` = ?, updated_at = ? WHERE id = ?`, value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns a page of users and the total matching f.
func (db *DB) ListUsers(ctx context.Context, f models.UserFilter) (users []models.User, total int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "users", time.Now(), &err)

	where := " WHERE 1=1"
	var args []any
	if q := strings.TrimSpace(f.Query); q != "" {
		where += ` AND (nickname ILIKE ? ESCAPE '\' OR email ILIKE ? ESCAPE '\')`
		p := likePattern(q)
		args = append(args, p, p)
	}
	if f.Role != "" {
		where += " AND role = ?"
		args = append(args, f.Role)
	}
	if f.Banned != nil {
		where += " AND banned = ?"
		args = append(args, *f.Banned)
	}

	if err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query := "SELECT " + userColumns + " FROM users" + where + " ORDER BY nickname_key, id LIMIT ? OFFSET ?"
	rows, err := db.conn.QueryContext(ctx, query, append(args, limit, max(f.Offset, 0))...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users = make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}
	return users, total, nil
}

// CountUserActivity returns how many live posts and comments a user has.
func (db *DB) CountUserActivity(ctx context.Context, userID string) (posts, comments int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err = db.conn.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM posts WHERE author_id = ? AND NOT deleted),
		(SELECT COUNT(*) FROM comments WHERE author_id = ? AND NOT deleted)`,
		userID, userID).Scan(&posts, &comments)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count user activity: %w", err)
	}
	return posts, comments, nil
}
