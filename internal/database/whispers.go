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

const whisperSelect = `SELECT w.id, w.sender_id, w.recipient_id, w.content, w.read_at,
	w.deleted_by_sender, w.deleted_by_recipient, w.created_at,
	COALESCE(s.nickname, ''), COALESCE(s.role, 'user'), COALESCE(s.best_rank, 0),
	COALESCE(r.nickname, ''), COALESCE(r.role, 'user'), COALESCE(r.best_rank, 0)
FROM whispers w
LEFT JOIN users s ON s.id = w.sender_id
LEFT JOIN users r ON r.id = w.recipient_id`

func scanWhisper(row rowScanner) (*models.Whisper, error) {
	var (
		w                    models.Whisper
		readAt               sql.NullTime
		sNick, sRole         string
		rNick, rRole         string
		sBestRank, rBestRank int
	)
	err := row.Scan(&w.ID, &w.SenderID, &w.RecipientID, &w.Content, &readAt,
		&w.DeletedBySender, &w.DeletedByRecipient, &w.CreatedAt,
		&sNick, &sRole, &sBestRank, &rNick, &rRole, &rBestRank)
	if err != nil {
		return nil, err
	}
	if readAt.Valid {
		t := readAt.Time
		w.ReadAt = &t
		w.Read = true
	}
	w.Sender = authorFrom(w.SenderID, sNick, sRole, sBestRank)
	w.Recipient = authorFrom(w.RecipientID, rNick, rRole, rBestRank)
	return &w, nil
}

// CreateWhisper stores a new whisper.
func (db *DB) CreateWhisper(ctx context.Context, w *models.Whisper) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", "whispers", time.Now(), &err)

	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	var readAt sql.NullTime
	if w.ReadAt != nil {
		readAt = sql.NullTime{Time: *w.ReadAt, Valid: true}
	}

	_, err = db.conn.ExecContext(ctx, `INSERT INTO whispers (
		id, sender_id, recipient_id, content, read_at, deleted_by_sender, deleted_by_recipient, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		w.ID, w.SenderID, w.RecipientID, w.Content, readAt, w.DeletedBySender, w.DeletedByRecipient, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create whisper: %w", err)
	}
	return nil
}

// GetWhisper returns a whisper by id.
func (db *DB) GetWhisper(ctx context.Context, id string) (w *models.Whisper, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "whispers", time.Now(), &err)

	w, err = scanWhisper(db.conn.QueryRowContext(ctx, whisperSelect+` WHERE w.id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return w, nil
}

// ListWhispers returns one side of a user's whispers, newest first,
// skipping the ones that user deleted.
func (db *DB) ListWhispers(ctx context.Context, userID string, box models.WhisperBox, offset, limit int) ([]models.Whisper, int64, error) {
	where := " WHERE w.recipient_id = ? AND NOT w.deleted_by_recipient"
	if box == models.WhisperOutbox {
		where = " WHERE w.sender_id = ? AND NOT w.deleted_by_sender"
	}
	return db.pageWhispers(ctx, where, []any{userID}, offset, limit)
}

// Conversation returns the whispers exchanged between userID and otherID in
// both directions, newest first, as seen by userID.
func (db *DB) Conversation(ctx context.Context, userID, otherID string, offset, limit int) ([]models.Whisper, int64, error) {
	where := ` WHERE ((w.sender_id = ? AND w.recipient_id = ? AND NOT w.deleted_by_sender)
		OR (w.sender_id = ? AND w.recipient_id = ? AND NOT w.deleted_by_recipient))`
	return db.pageWhispers(ctx, where, []any{userID, otherID, otherID, userID}, offset, limit)
}

func (db *DB) pageWhispers(ctx context.Context, where string, args []any, offset, limit int) (out []models.Whisper, total int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", "whispers", time.Now(), &err)

	if err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM whispers w"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count whispers: %w", err)
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, whisperSelect+where+" ORDER BY w.created_at DESC, w.id DESC LIMIT ? OFFSET ?",
		append(args, limit, max(offset, 0))...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list whispers: %w", err)
	}
	defer rows.Close()

	out = make([]models.Whisper, 0)
	for rows.Next() {
		w, err := scanWhisper(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan whisper: %w", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating whispers: %w", err)
	}
	return out, total, nil
}

// MarkWhisperRead sets read_at on a whisper addressed to recipientID.
// Marking an already read whisper is a no-op.
func (db *DB) MarkWhisperRead(ctx context.Context, id, recipientID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM whispers
		WHERE id = ? AND recipient_id = ? AND NOT deleted_by_recipient`, id, recipientID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check whisper: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	_, err := db.conn.ExecContext(ctx, `UPDATE whispers SET read_at = ? WHERE id = ? AND read_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark whisper read: %w", err)
	}
	return nil
}

// MarkAllWhispersRead marks every unread whisper to recipientID as read and
// returns how many changed.
func (db *DB) MarkAllWhispersRead(ctx context.Context, recipientID string) (n int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", "whispers", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `UPDATE whispers SET read_at = ?
		WHERE recipient_id = ? AND read_at IS NULL AND NOT deleted_by_recipient`, time.Now().UTC(), recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark whispers read: %w", err)
	}
	return res.RowsAffected()
}

// CountUnreadWhispers returns the number of unread whispers in a user's
// inbox.
func (db *DB) CountUnreadWhispers(ctx context.Context, recipientID string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM whispers
		WHERE recipient_id = ? AND read_at IS NULL AND NOT deleted_by_recipient`, recipientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread whispers: %w", err)
	}
	return n, nil
}

// DeleteWhisperFor hides a whisper from userID's side. Once both sides
// have deleted it the row is removed. userID must be the sender or the
// recipient, otherwise ErrNotFound is returned.
func (db *DB) DeleteWhisperFor(ctx context.Context, id, userID string) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("delete", "whispers", time.Now(), &err)

	return db.withTx(ctx, func(tx *sql.Tx) error {
		var senderID, recipientID string
		err := tx.QueryRowContext(ctx, `SELECT sender_id, recipient_id FROM whispers WHERE id = ?`, id).
			Scan(&senderID, &recipientID)
		if err != nil {
			return notFound(err)
		}

		switch userID {
		case senderID:
			_, err = tx.ExecContext(ctx, `UPDATE whispers SET deleted_by_sender = true WHERE id = ?`, id)
		case recipientID:
			_, err = tx.ExecContext(ctx, `UPDATE whispers SET deleted_by_recipient = true WHERE id = ?`, id)
		default:
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to delete whisper: %w", err)
		}
		// a self-addressed row cannot exist, so one side flag per user is enough
		if _, err := tx.ExecContext(ctx, `DELETE FROM whispers
			WHERE id = ? AND deleted_by_sender AND deleted_by_recipient`, id); err != nil {
			return fmt.Errorf("failed to purge whisper: %w", err)
		}
		return nil
	})
}
