// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/ranking"
)

const commentSelect = `SELECT c.id, c.post_id, COALESCE(c.parent_id, ''), c.author_id, c.content, c.depth,
	c.deleted, c.created_at, c.updated_at,
	COALESCE(u.nickname, ''), COALESCE(u.role, 'user'), COALESCE(u.best_rank, 0)
FROM comments c LEFT JOIN users u ON u.id = c.author_id`

func scanComment(row rowScanner) (*models.Comment, error) {
	var (
		c        models.Comment
		nickname string
		role     string
		bestRank int
	)
	err := row.Scan(&c.ID, &c.PostID, &c.ParentID, &c.AuthorID, &c.Content, &c.Depth,
		&c.Deleted, &c.CreatedAt, &c.UpdatedAt, &nickname, &role, &bestRank)
	if err != nil {
		return nil, err
	}
	c.Author = authorFrom(c.AuthorID, nickname, role, bestRank)
	return &c, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateComment inserts a comment and bumps the post's comment count and
// score in the same transaction. It returns the post's new counters.
func (db *DB) CreateComment(ctx context.Context, c *models.Comment, w ranking.Weights) (counters models.PostCounters, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "comments", time.Now(), &err)

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = c.CreatedAt

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE posts SET comment_count = comment_count + 1, score = ` +
			scoreExpr("views", "upvotes", "comment_count + 1") + ` WHERE id = ? AND NOT deleted` + counterReturning
		err := scanCounters(tx.QueryRowContext(ctx, query, w.Views, w.Upvotes, w.Comments, c.PostID), &counters)
		if err != nil {
			return notFound(err)
		}
		return insertComment(ctx, tx, c, false)
	})
	return counters, err
}

// ImportComment inserts c unless it exists. Counters are not touched.
func (db *DB) ImportComment(ctx context.Context, c *models.Comment) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		return insertComment(ctx, tx, c, true)
	})
}

func insertComment(ctx context.Context, tx *sql.Tx, c *models.Comment, ignoreExisting bool) error {
	query := `INSERT INTO comments (id, post_id, parent_id, author_id, content, depth, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if ignoreExisting {
		query += " ON CONFLICT DO NOTHING"
	}
	_, err := tx.ExecContext(ctx, query, c.ID, c.PostID, nullableString(c.ParentID), c.AuthorID,
		c.Content, c.Depth, c.Deleted, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// GetComment returns a comment, including soft deleted ones.
func (db *DB) GetComment(ctx context.Context, id string) (c *models.Comment, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "comments", time.Now(), &err)

	c, err = scanComment(db.conn.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// ListCommentsByPost returns every comment on a post, deleted ones
// included, oldest first.
func (db *DB) ListCommentsByPost(ctx context.Context, postID string) (out []models.Comment, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "comments", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, commentSelect+` WHERE c.post_id = ? ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	out = make([]models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return out, nil
}

// SoftDeleteComment marks a comment deleted and decrements the post's
// comment count, refreshing its score. It returns the post's new counters.
func (db *DB) SoftDeleteComment(ctx context.Context, id string, w ranking.Weights) (counters models.PostCounters, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "comments", time.Now(), &err)

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		var postID string
		err := tx.QueryRowContext(ctx, `UPDATE comments SET deleted = true, updated_at = ?
			WHERE id = ? AND NOT deleted RETURNING post_id`, time.Now().UTC(), id).Scan(&postID)
		if err != nil {
			return notFound(err)
		}
		count := "GREATEST(comment_count - 1, 0)"
		query := `UPDATE posts SET comment_count = ` + count + `, score = ` +
			scoreExpr("views", "upvotes", count) + ` WHERE id = ?` + counterReturning
		return notFound(scanCounters(tx.QueryRowContext(ctx, query, w.Views, w.Upvotes, w.Comments, postID), &counters))
	})
	return counters, err
}
