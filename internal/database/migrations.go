// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/indieforge/internal/logging"
)

// Migration is one versioned schema change. Migrations are append-only:
// never edit or reorder one that has shipped.
type Migration struct {
	Version     int
	Name        string
	Description string
	SQL         string
	AppliedAt   time.Time
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Tables that are rewritten wholesale (category_stats) or whose rows are
// deleted and re-inserted inside one transaction (post_tags) carry no
// unique index: DuckDB checks unique constraints eagerly within a
// transaction.
var migrations = []Migration{
	{
		Version:     1,
		Name:        "create_users",
		Description: "Accounts with role, ban flag and best rank",
		SQL: `CREATE TABLE IF NOT EXISTS users (
			id VARCHAR PRIMARY KEY,
			email VARCHAR NOT NULL UNIQUE,
			nickname VARCHAR NOT NULL,
			nickname_key VARCHAR NOT NULL UNIQUE,
			password_hash VARCHAR NOT NULL DEFAULT '',
			role VARCHAR NOT NULL DEFAULT 'user',
			bio VARCHAR NOT NULL DEFAULT '',
			avatar_id VARCHAR NOT NULL DEFAULT '',
			banned BOOLEAN NOT NULL DEFAULT false,
			best_rank INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
	},
	{
		Version:     2,
		Name:        "create_posts",
		Description: "Forum posts with counters and derived score",
		SQL: `CREATE TABLE IF NOT EXISTS posts (
			id VARCHAR PRIMARY KEY,
			author_id VARCHAR NOT NULL,
			category VARCHAR NOT NULL,
			title VARCHAR NOT NULL,
			content VARCHAR NOT NULL,
			image_ids VARCHAR NOT NULL DEFAULT '[]',
			views BIGINT NOT NULL DEFAULT 0,
			upvotes BIGINT NOT NULL DEFAULT 0,
			comment_count BIGINT NOT NULL DEFAULT 0,
			score DOUBLE NOT NULL DEFAULT 0,
			pinned BOOLEAN NOT NULL DEFAULT false,
			deleted BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
	},
	{
		Version:     3,
		Name:        "create_post_tags",
		Description: "Tags attached to posts",
		SQL: `CREATE TABLE IF NOT EXISTS post_tags (
			post_id VARCHAR NOT NULL,
			tag VARCHAR NOT NULL,
			sort_order INTEGER NOT NULL
		);`,
	},
	{
		Version:     4,
		Name:        "create_post_upvotes",
		Description: "One row per user upvote",
		SQL: `CREATE TABLE IF NOT EXISTS post_upvotes (
			post_id VARCHAR NOT NULL,
			user_id VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (post_id, user_id)
		);`,
	},
	{
		Version:     5,
		Name:        "create_comments",
		Description: "Threaded comments",
		SQL: `CREATE TABLE IF NOT EXISTS comments (
			id VARCHAR PRIMARY KEY,
			post_id VARCHAR NOT NULL,
			parent_id VARCHAR,
			author_id VARCHAR NOT NULL,
			content VARCHAR NOT NULL,
			depth INTEGER NOT NULL DEFAULT 0,
			deleted BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
	},
	{
		Version:     6,
		Name:        "create_whispers",
		Description: "Private messages with per-side delete flags",
		SQL: `CREATE TABLE IF NOT EXISTS whispers (
			id VARCHAR PRIMARY KEY,
			sender_id VARCHAR NOT NULL,
			recipient_id VARCHAR NOT NULL,
			content VARCHAR NOT NULL,
			read_at TIMESTAMP,
			deleted_by_sender BOOLEAN NOT NULL DEFAULT false,
			deleted_by_recipient BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL
		);`,
	},
	{
		Version:     7,
		Name:        "create_inquiries",
		Description: "Contact form messages to the admins",
		SQL: `CREATE TABLE IF NOT EXISTS inquiries (
			id VARCHAR PRIMARY KEY,
			user_id VARCHAR NOT NULL DEFAULT '',
			email VARCHAR NOT NULL,
			subject VARCHAR NOT NULL,
			message VARCHAR NOT NULL,
			status VARCHAR NOT NULL DEFAULT 'open',
			answer VARCHAR NOT NULL DEFAULT '',
			answered_by VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			answered_at TIMESTAMP
		);`,
	},
	{
		Version:     8,
		Name:        "create_category_stats",
		Description: "Per-category and overall ranking snapshot",
		SQL: `CREATE TABLE IF NOT EXISTS category_stats (
			user_id VARCHAR NOT NULL,
			category VARCHAR NOT NULL,
			score DOUBLE NOT NULL,
			post_count BIGINT NOT NULL,
			rank INTEGER NOT NULL,
			display_order INTEGER NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
	},
	{
		Version:     9,
		Name:        "create_ranking_runs",
		Description: "History of ranking recomputes",
		SQL: `CREATE TABLE IF NOT EXISTS ranking_runs (
			id VARCHAR PRIMARY KEY,
			trigger_source VARCHAR NOT NULL,
			posts INTEGER NOT NULL,
			users INTEGER NOT NULL,
			stats INTEGER NOT NULL,
			duration_ms BIGINT NOT NULL,
			completed_at TIMESTAMP NOT NULL
		);`,
	},
}

var indexQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id);`,
	`CREATE INDEX IF NOT EXISTS idx_whispers_recipient ON whispers(recipient_id);`,
	`CREATE INDEX IF NOT EXISTS idx_whispers_sender ON whispers(sender_id);`,
}

func (db *DB) createMigrationsTable(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, schemaMigrationsTable)
	return err
}

// getAppliedMigrations returns version -> Migration for every applied migration.
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, COALESCE(description, ''), applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations executes migrations that have not been applied yet.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range migrations {
		if _, exists := applied[m.Version]; exists {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)`,
			m.Version, m.Name, m.Description); err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, q := range indexQueries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", q, err)
		}
	}
	return nil
}

// GetCurrentSchemaVersion returns the highest applied migration version.
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// GetMigrationHistory returns all applied migrations in order.
func (db *DB) GetMigrationHistory(ctx context.Context) ([]Migration, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	history := make([]Migration, 0, len(applied))
	for _, m := range migrations {
		if a, ok := applied[m.Version]; ok {
			history = append(history, a)
		}
	}
	return history, nil
}
