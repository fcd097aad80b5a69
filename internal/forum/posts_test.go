// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/tomtom215/indieforge/internal/events"
	"github.com/tomtom215/indieforge/internal/models"
	"github.com/tomtom215/indieforge/internal/ranking"
)

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	p, err := env.svc.CreatePost(context.Background(), alice, models.CreatePostInput{
		Category: "Unity",
		Title:    "  Shader graph tips  ",
		Content:  "Use subgraphs.",
		Tags:     []string{"Shaders", "shaders ", "URP"},
	})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if p.Category != models.CategoryUnity || p.Title != "Shader graph tips" {
		t.Errorf("post = %s/%q", p.Category, p.Title)
	}
	if !reflect.DeepEqual(p.Tags, []string{"shaders", "urp"}) {
		t.Errorf("Tags = %v", p.Tags)
	}
	if p.Score != 0 || p.Author == nil || p.Author.Nickname != "alice" {
		t.Errorf("Score/Author = %v/%+v", p.Score, p.Author)
	}

	topics := env.pub.topics()
	if len(topics) != 1 || topics[0] != events.TopicPostCreated {
		t.Errorf("published %v, want [%s]", topics, events.TopicPostCreated)
	}
}

func TestGetPost_ViewDedupe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	p := env.post(t, alice, "godot", "GDScript vs C#")

	got, err := env.svc.GetPost(ctx, nil, p.ID, "ip:198.51.100.1")
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if got.Views != 1 || got.Score != 1 {
		t.Errorf("first view: Views=%d Score=%v, want 1/1", got.Views, got.Score)
	}

	got, _ = env.svc.GetPost(ctx, nil, p.ID, "ip:198.51.100.1")
	if got.Views != 1 {
		t.Errorf("repeat view counted: Views=%d", got.Views)
	}

	got, _ = env.svc.GetPost(ctx, nil, p.ID, "user:"+alice.ID)
	if got.Views != 2 {
		t.Errorf("second viewer: Views=%d, want 2", got.Views)
	}

	got, _ = env.svc.GetPost(ctx, nil, p.ID, "")
	if got.Views != 2 {
		t.Errorf("empty viewer key should not count: Views=%d", got.Views)
	}

	if _, err := env.svc.GetPost(ctx, nil, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing post error = %v", err)
	}
}

func TestToggleUpvote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	p := env.post(t, alice, "unreal", "Nanite on mobile?")

	res, err := env.svc.ToggleUpvote(ctx, bob, p.ID)
	if err != nil {
		t.Fatalf("ToggleUpvote() error = %v", err)
	}
	if !res.Upvoted || res.Upvotes != 1 {
		t.Errorf("first toggle = %+v", res)
	}

	got, _ := env.svc.GetPost(ctx, bob, p.ID, "")
	if !got.Upvoted || got.Score != 10 {
		t.Errorf("after upvote: Upvoted=%v Score=%v, want true/10", got.Upvoted, got.Score)
	}

	res, _ = env.svc.ToggleUpvote(ctx, bob, p.ID)
	if res.Upvoted || res.Upvotes != 0 {
		t.Errorf("second toggle = %+v", res)
	}

	if _, err := env.svc.ToggleUpvote(ctx, bob, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing post error = %v", err)
	}

	var upvoteEvents int
	for _, topic := range env.pub.topics() {
		if topic == events.TopicPostUpvoted {
			upvoteEvents++
		}
	}
	if upvoteEvents != 2 {
		t.Errorf("published %d upvote events, want 2", upvoteEvents)
	}
}

func TestListPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	env.post(t, alice, "unity", "Unity one")
	env.post(t, alice, "godot", "Godot one")
	env.post(t, alice, "godot", "Godot two")

	posts, total, err := env.svc.ListPosts(ctx, nil, ListPostsInput{Channel: "godot"})
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if total != 2 || len(posts) != 2 {
		t.Errorf("godot channel = %d/%d posts, want 2", len(posts), total)
	}

	_, total, _ = env.svc.ListPosts(ctx, nil, ListPostsInput{Channel: ChannelAll})
	if total != 3 {
		t.Errorf("all channel total = %d, want 3", total)
	}

	_, total, _ = env.svc.ListPosts(ctx, nil, ListPostsInput{Channel: "unity", Category: "godot"})
	if total != 0 {
		t.Errorf("category outside channel total = %d, want 0", total)
	}

	posts, _, _ = env.svc.ListPosts(ctx, nil, ListPostsInput{Query: "TWO"})
	if len(posts) != 1 || posts[0].Title != "Godot two" {
		t.Errorf("query results = %v", posts)
	}

	for _, in := range []ListPostsInput{{Sort: "random"}, {Channel: "cobol"}, {Category: "cryengine"}} {
		if _, _, err := env.svc.ListPosts(ctx, nil, in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ListPosts(%+v) error = %v, want ErrInvalidInput", in, err)
		}
	}
}

func TestListPosts_PinnedFirstForLatest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t, "mod")
	alice := env.user(t, "alice")
	rules := env.post(t, admin, "general", "Forum rules")
	env.post(t, alice, "general", "Newer post")

	if err := env.svc.PinPost(ctx, admin, rules.ID, models.SetPinnedInput{Pinned: true}); err != nil {
		t.Fatalf("PinPost() error = %v", err)
	}
	posts, _, _ := env.svc.ListPosts(ctx, nil, ListPostsInput{})
	if len(posts) != 2 || posts[0].ID != rules.ID {
		t.Errorf("pinned post should come first, got %v", posts)
	}
}

func TestUpdatePost_Permissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	admin := env.admin(t, "mod")
	p := env.post(t, alice, "unity", "Original")

	title := "Edited"
	if _, err := env.svc.UpdatePost(ctx, bob, p.ID, models.UpdatePostInput{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-author update error = %v, want ErrForbidden", err)
	}

	updated, err := env.svc.UpdatePost(ctx, alice, p.ID, models.UpdatePostInput{Title: &title, Tags: []string{"Help"}})
	if err != nil {
		t.Fatalf("author update error = %v", err)
	}
	if updated.Title != "Edited" || !reflect.DeepEqual(updated.Tags, []string{"help"}) {
		t.Errorf("updated = %q %v", updated.Title, updated.Tags)
	}

	cat := "general"
	if _, err := env.svc.UpdatePost(ctx, admin, p.ID, models.UpdatePostInput{Category: &cat}); err != nil {
		t.Fatalf("admin update error = %v", err)
	}
	got, _ := env.svc.GetPost(ctx, nil, p.ID, "")
	if got.Category != models.CategoryGeneral {
		t.Errorf("Category = %s, want general", got.Category)
	}
	if actions := env.auditor.actions(); len(actions) != 1 || actions[0] != "post.edit" {
		t.Errorf("audit actions = %v", actions)
	}
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	admin := env.admin(t, "mod")
	own := env.post(t, alice, "unity", "Mine")
	other := env.post(t, alice, "unity", "Spam")

	if err := env.svc.DeletePost(ctx, bob, own.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-author delete error = %v", err)
	}
	if err := env.svc.DeletePost(ctx, alice, own.ID); err != nil {
		t.Fatalf("author delete error = %v", err)
	}
	if err := env.svc.DeletePost(ctx, admin, other.ID); err != nil {
		t.Fatalf("admin delete error = %v", err)
	}
	if _, err := env.svc.GetPost(ctx, nil, own.ID, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted post still readable: %v", err)
	}

	_, total, _ := env.svc.ListPosts(ctx, nil, ListPostsInput{})
	if total != 0 {
		t.Errorf("deleted posts listed: total=%d", total)
	}
	if actions := env.auditor.actions(); len(actions) != 1 || actions[0] != "post.delete" {
		t.Errorf("audit actions = %v, want only the admin delete", actions)
	}
}

func TestTopPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	env.post(t, alice, "unity", "Quiet")
	hot := env.post(t, alice, "unity", "Hot")

	if _, err := env.svc.ToggleUpvote(ctx, bob, hot.ID); err != nil {
		t.Fatalf("ToggleUpvote() error = %v", err)
	}
	top, err := env.svc.TopPosts(ctx, "unity", 1)
	if err != nil {
		t.Fatalf("TopPosts() error = %v", err)
	}
	if len(top) != 1 || top[0].ID != hot.ID {
		t.Errorf("TopPosts() = %v, want Hot", top)
	}
	if _, err := env.svc.TopPosts(ctx, "flash", 5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown category error = %v", err)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := normalizeTags([]string{" Pixel-Art", "", "pixel-art", "JAM"})
	if !reflect.DeepEqual(got, []string{"pixel-art", "jam"}) {
		t.Errorf("normalizeTags() = %v", got)
	}
}

func TestViewsAndUpvotes_ConcurrentScoreMatchesCounters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	p := env.post(t, alice, "godot", "Jam recap")

	const n = 32
	voters := make([]*models.Actor, n)
	for i := range voters {
		voters[i] = env.user(t, fmt.Sprintf("voter%02d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if _, err := env.svc.GetPost(ctx, nil, p.ID, fmt.Sprintf("ip:203.0.113.%d", i)); err != nil {
				errs <- err
			}
		}(i)
		go func(voter *models.Actor) {
			defer wg.Done()
			if _, err := env.svc.ToggleUpvote(ctx, voter, p.ID); err != nil {
				errs <- err
			}
		}(voters[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent request: %v", err)
	}

	got, err := env.db.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	counters := models.PostCounters{Views: got.Views, Upvotes: got.Upvotes, CommentCount: got.CommentCount}
	if want := ranking.PostScore(counters, env.svc.Options().Weights); got.Score != want {
		t.Errorf("stored score = %v, counters give %v", got.Score, want)
	}
	if got.Views != n || got.Upvotes != n || got.Score != 352 {
		t.Errorf("views/upvotes/score = %d/%d/%v, want %d/%d/352", got.Views, got.Upvotes, got.Score, n, n)
	}
}

func TestUpdatePost_PublishesEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	p := env.post(t, alice, "unity", "Moving engines")

	cat := "godot"
	if _, err := env.svc.UpdatePost(ctx, alice, p.ID, models.UpdatePostInput{Category: &cat}); err != nil {
		t.Fatalf("UpdatePost() error = %v", err)
	}

	env.pub.mu.Lock()
	defer env.pub.mu.Unlock()
	last, ok := env.pub.events[len(env.pub.events)-1].(*events.PostUpdated)
	if !ok {
		t.Fatalf("last event = %T, want *events.PostUpdated", env.pub.events[len(env.pub.events)-1])
	}
	if last.PostID != p.ID || last.Category != "godot" || last.PreviousCategory != "unity" || last.UpdatedBy != alice.ID {
		t.Errorf("event = %+v", last)
	}
}

func TestPostWrites_RejectWhitespaceContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	if _, err := env.svc.CreatePost(ctx, alice, models.CreatePostInput{
		Category: "unity", Title: "Valid title", Content: " \n\t ",
	}); err == nil {
		t.Error("CreatePost accepted whitespace-only content")
	}
	if _, err := env.svc.CreatePost(ctx, alice, models.CreatePostInput{
		Category: "unity", Title: "   ", Content: "body",
	}); err == nil {
		t.Error("CreatePost accepted whitespace-only title")
	}

	p, err := env.svc.CreatePost(ctx, alice, models.CreatePostInput{
		Category: "unity", Title: "Trimmed", Content: "  padded body  ",
	})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if p.Content != "padded body" {
		t.Errorf("Content = %q, want trimmed", p.Content)
	}

	blank := "   "
	if _, err := env.svc.UpdatePost(ctx, alice, p.ID, models.UpdatePostInput{Content: &blank}); err == nil {
		t.Error("UpdatePost accepted whitespace-only content")
	}
	got, err := env.db.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "padded body" {
		t.Errorf("stored content = %q after rejected update", got.Content)
	}
}
