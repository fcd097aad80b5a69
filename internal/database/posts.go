// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/ranking"
)

const postSelect = `SELECT p.id, p.author_id, p.category, p.title, p.content, p.image_ids,
	p.views, p.upvotes, p.comment_count, p.score, p.pinned, p.deleted, p.created_at, p.updated_at,
	COALESCE(u.nickname, ''), COALESCE(u.role, 'user'), COALESCE(u.best_rank, 0)
FROM posts p LEFT JOIN users u ON u.id = p.author_id`

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		p        models.Post
		category string
		images   string
		nickname string
		role     string
		bestRank int
	)
	err := row.Scan(&p.ID, &p.AuthorID, &category, &p.Title, &p.Content, &images,
		&p.Views, &p.Upvotes, &p.CommentCount, &p.Score, &p.Pinned, &p.Deleted, &p.CreatedAt, &p.UpdatedAt,
		&nickname, &role, &bestRank)
	if err != nil {
		return nil, err
	}
	p.Category = models.Category(category)
	p.ImageIDs = []string{}
	if images != "" {
		if err := json.Unmarshal([]byte(images), &p.ImageIDs); err != nil {
			return nil, fmt.Errorf("failed to decode image ids of post %s: %w", p.ID, err)
		}
	}
	p.Tags = []string{}
	p.Author = authorFrom(p.AuthorID, nickname, role, bestRank)
	return &p, nil
}

func encodeImageIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode image ids: %w", err)
	}
	return string(b), nil
}

// CreatePost inserts a post and its tags.
func (db *DB) CreatePost(ctx context.Context, p *models.Post) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "posts", time.Now(), &err)

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.ImageIDs == nil {
		p.ImageIDs = []string{}
	}

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := db.insertPost(ctx, tx, p, false)
		return err
	})
	return err
}

// ImportPost inserts p unless a post with the same id exists.
func (db *DB) ImportPost(ctx context.Context, p *models.Post) (inserted bool, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		inserted, err = db.insertPost(ctx, tx, p, true)
		return err
	})
	return inserted, err
}

func (db *DB) insertPost(ctx context.Context, tx *sql.Tx, p *models.Post, ignoreExisting bool) (bool, error) {
	images, err := encodeImageIDs(p.ImageIDs)
	if err != nil {
		return false, err
	}
	query := `INSERT INTO posts (
		id, author_id, category, title, content, image_ids, views, upvotes,
		comment_count, score, pinned, deleted, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if ignoreExisting {
		query += " ON CONFLICT DO NOTHING"
	}
	res, err := tx.ExecContext(ctx, query,
		p.ID, p.AuthorID, string(p.Category), p.Title, p.Content, images, p.Views, p.Upvotes,
		p.CommentCount, p.Score, p.Pinned, p.Deleted, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return false, ErrConflict
		}
		return false, fmt.Errorf("failed to insert post: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return false, nil
	}
	if err := insertTags(ctx, tx, p.ID, p.Tags); err != nil {
		return false, err
	}
	return true, nil
}

func insertTags(ctx context.Context, tx *sql.Tx, postID string, tags []string) error {
	for i, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_tags (post_id, tag, sort_order) VALUES (?, ?, ?)`, postID, tag, i); err != nil {
			return fmt.Errorf("failed to insert tag: %w", err)
		}
	}
	return nil
}

// GetPost returns a live post with its tags.
func (db *DB) GetPost(ctx context.Context, id string) (p *models.Post, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "posts", time.Now(), &err)

	p, err = scanPost(db.conn.QueryRowContext(ctx, postSelect+` WHERE p.id = ? AND NOT p.deleted`, id))
	if err != nil {
		return nil, notFound(err)
	}
	posts := []models.Post{*p}
	if err = db.attachTags(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// postOrderBy maps a sort name to an ORDER BY clause. Every clause ends
// with id so paging is stable.
func postOrderBy(sort string) string {
	switch sort {
	case models.SortPopular:
		return " ORDER BY p.score DESC, p.created_at DESC, p.id"
	case models.SortViews:
		return " ORDER BY p.views DESC, p.created_at DESC, p.id"
	case models.SortUpvotes:
		return " ORDER BY p.upvotes DESC, p.created_at DESC, p.id"
	case models.SortComments:
		return " ORDER BY p.comment_count DESC, p.created_at DESC, p.id"
	default:
		return " ORDER BY p.pinned DESC, p.created_at DESC, p.id"
	}
}

// ListPosts returns a page of live posts matching f and the total count.
func (db *DB) ListPosts(ctx context.Context, f models.PostFilter) (posts []models.Post, total int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "posts", time.Now(), &err)

	where := " WHERE NOT p.deleted"
	var args []any
	if len(f.Categories) > 0 {
		where += " AND p.category IN (" + placeholders(len(f.Categories)) + ")"
		for _, c := range f.Categories {
			args = append(args, string(c))
		}
	}
	if f.Category != "" {
		where += " AND p.category = ?"
		args = append(args, string(f.Category))
	}
	if f.AuthorID != "" {
		where += " AND p.author_id = ?"
		args = append(args, f.AuthorID)
	}
	if f.Tag != "" {
		where += " AND EXISTS (SELECT 1 FROM post_tags t WHERE t.post_id = p.id AND lower(t.tag) = lower(?))"
		args = append(args, f.Tag)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where += ` AND (p.title ILIKE ? ESCAPE '\' OR p.content ILIKE ? ESCAPE '\')`
		pat := likePattern(q)
		args = append(args, pat, pat)
	}

	if err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts p"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query := postSelect + where + postOrderBy(f.Sort) + " LIMIT ? OFFSET ?"
	posts, err = db.queryPosts(ctx, query, append(args, limit, max(f.Offset, 0))...)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// TopPosts returns the highest scoring live posts, optionally in one
// category.
func (db *DB) TopPosts(ctx context.Context, category models.Category, limit int) (posts []models.Post, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "posts", time.Now(), &err)

	if limit <= 0 {
		limit = 10
	}
	query := postSelect + " WHERE NOT p.deleted"
	var args []any
	if category != "" {
		query += " AND p.category = ?"
		args = append(args, string(category))
	}
	query += postOrderBy(models.SortPopular) + " LIMIT ?"
	return db.queryPosts(ctx, query, append(args, limit)...)
}

func (db *DB) queryPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	posts, err := db.scanPosts(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	// tags are loaded after the post rows are released so a pool of one
	// connection cannot deadlock
	if err := db.attachTags(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (db *DB) scanPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

// attachTags loads tags for posts in one query.
func (db *DB) attachTags(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	index := make(map[string]int, len(posts))
	args := make([]any, 0, len(posts))
	for i := range posts {
		index[posts[i].ID] = i
		args = append(args, posts[i].ID)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT post_id, tag FROM post_tags
		WHERE post_id IN (`+placeholders(len(args))+`) ORDER BY post_id, sort_order`, args...)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID, tag string
		if err := rows.Scan(&postID, &tag); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		if i, ok := index[postID]; ok {
			posts[i].Tags = append(posts[i].Tags, tag)
		}
	}
	return rows.Err()
}

// UpdatePost writes the editable fields of p and replaces its tags.
func (db *DB) UpdatePost(ctx context.Context, p *models.Post) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "posts", time.Now(), &err)

	images, err := encodeImageIDs(p.ImageIDs)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE posts SET category = ?, title = ?, content = ?, image_ids = ?, updated_at = ?
			WHERE id = ? AND NOT deleted`,
			string(p.Category), p.Title, p.Content, images, p.UpdatedAt, p.ID)
		if err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		} else if n == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, p.ID); err != nil {
			return fmt.Errorf("failed to clear tags: %w", err)
		}
		return insertTags(ctx, tx, p.ID, p.Tags)
	})
	return err
}

// SoftDeletePost hides a post from every listing.
func (db *DB) SoftDeletePost(ctx context.Context, id string) error {
	return db.execOne(ctx, "update", "posts",
		`UPDATE posts SET deleted = true, pinned = false, updated_at = ? WHERE id = ? AND NOT deleted`,
		time.Now().UTC(), id)
}

// SetPostPinned pins or unpins a post.
func (db *DB) SetPostPinned(ctx context.Context, id string, pinned bool) error {
	return db.execOne(ctx, "update", "posts",
		`UPDATE posts SET pinned = ? WHERE id = ? AND NOT deleted`, pinned, id)
}

// scoreExpr is the SQL form of ranking.PostScore over the given counter
// expressions. It takes the three weights as placeholders, in the order
// views, upvotes, comments.
func scoreExpr(views, upvotes, comments string) string {
	return fmt.Sprintf(`ROUND(CAST(GREATEST(%s, 0) AS DOUBLE) * ? + CAST(GREATEST(%s, 0) AS DOUBLE) * ? + CAST(GREATEST(%s, 0) AS DOUBLE) * ?, 2)`,
		views, upvotes, comments)
}

// counterReturning lists the columns scanned by scanCounters.
const counterReturning = ` RETURNING views, upvotes, comment_count, score`

func scanCounters(row rowScanner, c *models.PostCounters) error {
	return row.Scan(&c.Views, &c.Upvotes, &c.CommentCount, &c.Score)
}

// IncrementPostViews adds one view and stores the new score in the same
// statement. It returns the new counters.
func (db *DB) IncrementPostViews(ctx context.Context, id string, w ranking.Weights) (c models.PostCounters, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "posts", time.Now(), &err)

	query := `UPDATE posts SET views = views + 1, score = ` + scoreExpr("views + 1", "upvotes", "comment_count") +
		` WHERE id = ? AND NOT deleted` + counterReturning
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		return notFound(scanCounters(tx.QueryRowContext(ctx, query, w.Views, w.Upvotes, w.Comments, id), &c))
	})
	return c, err
}

// ToggleUpvote adds userID's upvote to a post, or removes it when present.
// It reports the new state and the post's counters; the score is
// refreshed in the same statement as the upvote count.
func (db *DB) ToggleUpvote(ctx context.Context, postID, userID string, w ranking.Weights) (upvoted bool, c models.PostCounters, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "post_upvotes", time.Now(), &err)

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		var live int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE id = ? AND NOT deleted`, postID).Scan(&live); err != nil {
			return fmt.Errorf("failed to check post: %w", err)
		}
		if live == 0 {
			return ErrNotFound
		}

		var existing int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM post_upvotes WHERE post_id = ? AND user_id = ?`,
			postID, userID).Scan(&existing); err != nil {
			return fmt.Errorf("failed to check upvote: %w", err)
		}

		delta := 1
		if existing > 0 {
			delta = -1
			if _, err := tx.ExecContext(ctx, `DELETE FROM post_upvotes WHERE post_id = ? AND user_id = ?`, postID, userID); err != nil {
				return fmt.Errorf("failed to remove upvote: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, `INSERT INTO post_upvotes (post_id, user_id, created_at) VALUES (?, ?, ?)`,
				postID, userID, time.Now().UTC()); err != nil {
				return fmt.Errorf("failed to add upvote: %w", err)
			}
		}
		upvoted = delta > 0

		upvotes := fmt.Sprintf("GREATEST(upvotes + %d, 0)", delta)
		query := `UPDATE posts SET upvotes = ` + upvotes + `, score = ` + scoreExpr("views", upvotes, "comment_count") +
			` WHERE id = ?` + counterReturning
		return scanCounters(tx.QueryRowContext(ctx, query, w.Views, w.Upvotes, w.Comments, postID), &c)
	})
	return upvoted, c, err
}

// UpvotedBy returns the subset of postIDs that userID has upvoted.
func (db *DB) UpvotedBy(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if userID == "" || len(postIDs) == 0 {
		return out, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	args := []any{userID}
	for _, id := range postIDs {
		args = append(args, id)
	}
	rows, err := db.conn.QueryContext(ctx, `SELECT post_id FROM post_upvotes WHERE user_id = ?
		AND post_id IN (`+placeholders(len(postIDs))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load upvotes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan upvote: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// ImportUpvote records an upvote without touching the post counter, which
// the importer carries over from the source document.
func (db *DB) ImportUpvote(ctx context.Context, postID, userID string, at time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `INSERT INTO post_upvotes (post_id, user_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`, postID, userID, at)
	if err != nil {
		return fmt.Errorf("failed to import upvote: %w", err)
	}
	return nil
}

// ListPostContributions returns the counters of every live post with its
// author, the input to a ranking recompute.
func (db *DB) ListPostContributions(ctx context.Context) (out []models.PostContribution, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "posts", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx, `SELECT p.id, p.author_id, COALESCE(u.nickname, ''), p.category,
		p.views, p.upvotes, p.comment_count, p.created_at
		FROM posts p LEFT JOIN users u ON u.id = p.author_id
		WHERE NOT p.deleted
		ORDER BY p.created_at, p.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list post contributions: %w", err)
	}
	defer rows.Close()

	out = make([]models.PostContribution, 0)
	for rows.Next() {
		var c models.PostContribution
		var category string
		if err := rows.Scan(&c.PostID, &c.AuthorID, &c.Nickname, &category,
			&c.Views, &c.Upvotes, &c.CommentCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post contribution: %w", err)
		}
		c.Category = models.Category(category)
		out = append(out, c)
	}
	return out, rows.Err()
}

// execOne runs a single-row write and maps zero affected rows to
// ErrNotFound.
func (db *DB) execOne(ctx context.Context, op, table, query string, args ...any) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe(op, table, time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", op, table, err)
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

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// RescoreAllPosts recomputes every post's score from its counters with w.
// It is used after bulk writes (seed, import) and when the weights change
// between restarts.
func (db *DB) RescoreAllPosts(ctx context.Context, w ranking.Weights) (n int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "posts", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `UPDATE posts SET score = `+scoreExpr("views", "upvotes", "comment_count"),
		w.Views, w.Upvotes, w.Comments)
	if err != nil {
		return 0, fmt.Errorf("failed to rescore posts: %w", err)
	}
	return res.RowsAffected()
}
