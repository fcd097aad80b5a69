// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/models"
)

// testDBSemaphore allows one DuckDB instance at a time. It is held until
// the test finishes so concurrent CGO calls never pile up under CI.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("close: %v", err)
		}
	})
	return db
}

func mustCreateUser(t *testing.T, db *DB, nickname string) *models.User {
	t.Helper()
	u := &models.User{
		Email:        nickname + "@example.org",
		Nickname:     nickname,
		PasswordHash: "hash",
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", nickname, err)
	}
	return u
}

func mustCreatePost(t *testing.T, db *DB, author *models.User, category models.Category, title string) *models.Post {
	t.Helper()
	p := &models.Post{
		AuthorID: author.ID,
		Category: category,
		Title:    title,
		Content:  "content of " + title,
	}
	if err := db.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("CreatePost(%s): %v", title, err)
	}
	return p
}

func TestNew_AppliesMigrations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	version, err := db.GetCurrentSchemaVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentSchemaVersion: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}

	history, err := db.GetMigrationHistory(ctx)
	if err != nil {
		t.Fatalf("GetMigrationHistory: %v", err)
	}
	if len(history) != len(migrations) {
		t.Fatalf("history has %d entries, want %d", len(history), len(migrations))
	}
	if history[0].Name != "create_users" {
		t.Errorf("first migration = %s, want create_users", history[0].Name)
	}

	// running again must be a no-op
	if err := db.runVersionedMigrations(); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
}

func TestPing(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestEnsureContext(t *testing.T) {
	db := &DB{}

	ctx, cancel := db.ensureContext(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Error("expected a default deadline")
	}

	parent, parentCancel := context.WithTimeout(context.Background(), time.Second)
	defer parentCancel()
	ctx2, cancel2 := db.ensureContext(parent)
	defer cancel2()
	d1, _ := parent.Deadline()
	d2, _ := ctx2.Deadline()
	if !d1.Equal(d2) {
		t.Error("existing deadline should be kept")
	}
}

func TestPlaceholders(t *testing.T) {
	tests := map[int]string{0: "", 1: "?", 3: "?, ?, ?"}
	for n, want := range tests {
		if got := placeholders(n); got != want {
			t.Errorf("placeholders(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestLikePattern(t *testing.T) {
	if got := likePattern(" 50%_off "); got != `%50\%\_off%` {
		t.Errorf("likePattern = %q", got)
	}
}
