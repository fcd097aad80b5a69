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
)

const inquiryColumns = `id, user_id, email, subject, message, status, answer, answered_by, created_at, answered_at`

func scanInquiry(row rowScanner) (*models.Inquiry, error) {
	var (
		q          models.Inquiry
		answeredAt sql.NullTime
	)
	err := row.Scan(&q.ID, &q.UserID, &q.Email, &q.Subject, &q.Message, &q.Status,
		&q.Answer, &q.AnsweredBy, &q.CreatedAt, &answeredAt)
	if err != nil {
		return nil, err
	}
	if answeredAt.Valid {
		t := answeredAt.Time
		q.AnsweredAt = &t
	}
	return &q, nil
}

// CreateInquiry stores a new inquiry with status open unless one is set.
func (db *DB) CreateInquiry(ctx context.Context, q *models.Inquiry) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "inquiries", time.Now(), &err)

	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.Status == "" {
		q.Status = models.InquiryOpen
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	var answeredAt sql.NullTime
	if q.AnsweredAt != nil {
		answeredAt = sql.NullTime{Time: *q.AnsweredAt, Valid: true}
	}

	_, err = db.conn.ExecContext(ctx, `INSERT INTO inquiries (`+inquiryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		q.ID, q.UserID, q.Email, q.Subject, q.Message, q.Status, q.Answer, q.AnsweredBy, q.CreatedAt, answeredAt)
	if err != nil {
		return fmt.Errorf("failed to create inquiry: %w", err)
	}
	return nil
}

// GetInquiry returns an inquiry by id.
func (db *DB) GetInquiry(ctx context.Context, id string) (q *models.Inquiry, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "inquiries", time.Now(), &err)

	q, err = scanInquiry(db.conn.QueryRowContext(ctx, `SELECT `+inquiryColumns+` FROM inquiries WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return q, nil
}

// ListInquiries returns a page of inquiries, newest first. Empty status
// or userID do not filter.
func (db *DB) ListInquiries(ctx context.Context, status, userID string, offset, limit int) (out []models.Inquiry, total int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "inquiries", time.Now(), &err)

	where := " WHERE 1=1"
	var args []any
	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}
	if userID != "" {
		where += " AND user_id = ?"
		args = append(args, userID)
	}

	if err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM inquiries"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count inquiries: %w", err)
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `SELECT `+inquiryColumns+` FROM inquiries`+where+
		` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, append(args, limit, max(offset, 0))...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inquiries: %w", err)
	}
	defer rows.Close()

	out = make([]models.Inquiry, 0)
	for rows.Next() {
		q, err := scanInquiry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan inquiry: %w", err)
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating inquiries: %w", err)
	}
	return out, total, nil
}

// AnswerInquiry stores the admin's answer and sets status answered.
func (db *DB) AnswerInquiry(ctx context.Context, id, answer, adminID string) error {
	return db.execOne(ctx, "update", "inquiries",
		`UPDATE inquiries SET answer = ?, answered_by = ?, answered_at = ?, status = ? WHERE id = ?`,
		answer, adminID, time.Now().UTC(), models.InquiryAnswered, id)
}

// CloseInquiry sets status closed.
func (db *DB) CloseInquiry(ctx context.Context, id string) error {
	return db.execOne(ctx, "update", "inquiries",
		`UPDATE inquiries SET status = ? WHERE id = ?`, models.InquiryClosed, id)
}
