// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/ranking"
)

// SeedResult counts what SeedDemoData wrote.
type SeedResult struct {
	Users     int  `json:"users"`
	Posts     int  `json:"posts"`
	Comments  int  `json:"comments"`
	Whispers  int  `json:"whispers"`
	Inquiries int  `json:"inquiries"`
	Skipped   bool `json:"skipped"`
}

// seedID derives a stable id so reseeding a fresh database yields the same
// rows.
func seedID(kind, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("indieforge/seed/"+kind+"/"+name)).String()
}

type seedPost struct {
	key      string
	author   string
	category models.Category
	title    string
	content  string
	tags     []string
	views    int64
	upvotes  int64
	age      time.Duration
}

type seedComment struct {
	key    string
	post   string
	parent string
	author string
	text   string
}

var seedNicknames = []string{"pixelwitch", "shaderbaron", "godotgoblin", "blueprintbard", "tilemapper", "jamjunkie"}

var seedPosts = []seedPost{
	{"u1", "pixelwitch", models.CategoryUnity, "URP outline shader without render features",
		"Sharing a small outline pass that works on mobile. Feedback welcome.", []string{"shaders", "urp"}, 420, 31, 72 * time.Hour},
	{"u2", "tilemapper", models.CategoryUnity, "Rule tiles are slow with 10k cells?",
		"Profiling shows RefreshTile dominating. Anyone batching updates?", []string{"tilemap", "performance"}, 150, 6, 30 * time.Hour},
	{"u3", "jamjunkie", models.CategoryUnity, "48h jam postmortem: what went wrong",
		"Scope creep, as always. Notes inside.", []string{"gamejam", "postmortem"}, 88, 12, 8 * time.Hour},
	{"r1", "shaderbaron", models.CategoryUnreal, "Nanite foliage in 5.4: worth it?",
		"Benchmarks on a 3060 with and without Nanite foliage.", []string{"nanite", "foliage"}, 610, 44, 96 * time.Hour},
	{"r2", "blueprintbard", models.CategoryUnreal, "Blueprint interfaces vs event dispatchers",
		"When do you reach for which? My rule of thumb in the post.", []string{"blueprints"}, 240, 18, 50 * time.Hour},
	{"g1", "godotgoblin", models.CategoryGodot, "Godot 4 C# export size tips",
		"Trimming went from 80MB to 31MB. Steps inside.", []string{"csharp", "export"}, 300, 27, 40 * time.Hour},
	{"g2", "tilemapper", models.CategoryGodot, "TileMapLayer migration notes",
		"Migrating a 200-level project from TileMap to TileMapLayer.", []string{"tilemap", "godot4"}, 190, 15, 20 * time.Hour},
	{"g3", "pixelwitch", models.CategoryGodot, "Porting my Unity shader to Godot",
		"Side by side of the outline shader in Godot's shading language.", []string{"shaders", "porting"}, 175, 15, 12 * time.Hour},
	{"n1", "jamjunkie", models.CategoryGeneral, "Finding a composer on a zero budget",
		"What worked for me: collabs, asset packs, and one lucky jam.", []string{"audio", "collab"}, 130, 9, 60 * time.Hour},
	{"n2", "blueprintbard", models.CategoryGeneral, "Steam page checklist before Next Fest",
		"Capsule art, trailer, tags, demo. Did I miss anything?", []string{"marketing", "steam"}, 520, 38, 5 * time.Hour},
}

var seedComments = []seedComment{
	{"c1", "u1", "", "shaderbaron", "Nice. Does it survive MSAA?"},
	{"c2", "u1", "c1", "pixelwitch", "Yes, tested with 4x."},
	{"c3", "u1", "c2", "godotgoblin", "Could you post the Godot version too?"},
	{"c4", "u1", "c3", "pixelwitch", "Done, see my Godot post."},
	{"c5", "r1", "", "blueprintbard", "Overdraw dropped a lot on my end."},
	{"c6", "r1", "", "jamjunkie", "What about WPO on the leaves?"},
	{"c7", "r1", "c6", "shaderbaron", "Disabled WPO beyond 30m."},
	{"c8", "g1", "", "tilemapper", "Did you try IL trimming warnings as errors?"},
	{"c9", "n2", "", "pixelwitch", "Localised store page helps a lot."},
	{"c10", "n2", "c9", "blueprintbard", "Good call, adding it."},
	{"c11", "g2", "", "godotgoblin", "The migration tool handled most of it for me."},
}

// SeedDemoData fills an empty database with a small demo community:
// users posting in every category, posts with varied counters, threaded
// comments, whispers and an open inquiry. Every user gets passwordHash.
// Nothing is written when users already exist.
func (db *DB) SeedDemoData(ctx context.Context, passwordHash string) (*SeedResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res := &SeedResult{}
	var existing int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&existing); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if existing > 0 {
		res.Skipped = true
		return res, nil
	}

	now := time.Now().UTC().Truncate(time.Second)
	for i, nick := range seedNicknames {
		u := &models.User{
			ID:           seedID("user", nick),
			Email:        nick + "@demo.indieforge.dev",
			Nickname:     nick,
			PasswordHash: passwordHash,
			Role:         models.RoleUser,
			Bio:          "Demo account",
			CreatedAt:    now.Add(-time.Duration(30-i) * 24 * time.Hour),
		}
		if err := db.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to seed user %s: %w", nick, err)
		}
		res.Users++
	}

	for _, sp := range seedPosts {
		p := &models.Post{
			ID:        seedID("post", sp.key),
			AuthorID:  seedID("user", sp.author),
			Category:  sp.category,
			Title:     sp.title,
			Content:   sp.content,
			Tags:      sp.tags,
			Views:     sp.views,
			Upvotes:   sp.upvotes,
			CreatedAt: now.Add(-sp.age),
		}
		if err := db.CreatePost(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to seed post %s: %w", sp.key, err)
		}
		res.Posts++
	}

	depth := make(map[string]int)
	for i, sc := range seedComments {
		c := &models.Comment{
			ID:        seedID("comment", sc.key),
			PostID:    seedID("post", sc.post),
			AuthorID:  seedID("user", sc.author),
			Content:   sc.text,
			CreatedAt: now.Add(-4*time.Hour + time.Duration(i)*time.Minute),
		}
		if sc.parent != "" {
			c.ParentID = seedID("comment", sc.parent)
			c.Depth = depth[sc.parent] + 1
		}
		depth[sc.key] = c.Depth
		if _, err := db.CreateComment(ctx, c, ranking.DefaultWeights()); err != nil {
			return nil, fmt.Errorf("failed to seed comment %s: %w", sc.key, err)
		}
		res.Comments++
	}

	whispers := []struct{ from, to, text string }{
		{"godotgoblin", "pixelwitch", "Loved the shader port. Want to team up for the next jam?"},
		{"pixelwitch", "godotgoblin", "Absolutely, ping me when the theme drops."},
		{"blueprintbard", "shaderbaron", "Mind reviewing my Steam capsule?"},
	}
	for i, w := range whispers {
		if err := db.CreateWhisper(ctx, &models.Whisper{
			ID:          seedID("whisper", fmt.Sprint(i)),
			SenderID:    seedID("user", w.from),
			RecipientID: seedID("user", w.to),
			Content:     w.text,
			CreatedAt:   now.Add(-time.Duration(3-i) * time.Hour),
		}); err != nil {
			return nil, fmt.Errorf("failed to seed whisper: %w", err)
		}
		res.Whispers++
	}

	if err := db.CreateInquiry(ctx, &models.Inquiry{
		ID:      seedID("inquiry", "1"),
		UserID:  seedID("user", "jamjunkie"),
		Email:   "jamjunkie@demo.indieforge.dev",
		Subject: "Can we get a Bevy channel?",
		Message: "A few of us moved to Rust. Would a Bevy channel be possible?",
	}); err != nil {
		return nil, fmt.Errorf("failed to seed inquiry: %w", err)
	}
	res.Inquiries++

	logging.Info().
		Int("users", res.Users).
		Int("posts", res.Posts).
		Int("comments", res.Comments).
		Msg("Seeded demo data")
	return res, nil
}
