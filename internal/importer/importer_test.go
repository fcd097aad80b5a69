// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package importer

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/indieforge/internal/kvstore"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

type fakeSource struct {
	mu    sync.Mutex
	docs  map[string][]Document
	calls map[string]int
	// failOn makes the nth ReadBatch of a collection fail.
	failOn map[string]int
}

func newFakeSource(docs map[string][]Document) *fakeSource {
	for _, list := range docs {
		sort.Slice(list, func(a, b int) bool { return list[a].ID < list[b].ID })
	}
	return &fakeSource{docs: docs, calls: make(map[string]int), failOn: make(map[string]int)}
}

func (f *fakeSource) ReadBatch(_ context.Context, collection, afterID string, limit int) ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[collection]++
	if n, ok := f.failOn[collection]; ok && f.calls[collection] == n {
		return nil, errors.New("deadline exceeded talking to firestore")
	}
	var out []Document
	for _, d := range f.docs[collection] {
		if d.ID > afterID {
			out = append(out, d)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSource) Close() error { return nil }

type fakeStore struct {
	mu        sync.Mutex
	users     map[string]*models.User
	posts     map[string]*models.Post
	upvotes   map[string]bool
	comments  map[string]*models.Comment
	whispers  map[string]*models.Whisper
	inquiries map[string]*models.Inquiry
	writes    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]*models.User),
		posts:     make(map[string]*models.Post),
		upvotes:   make(map[string]bool),
		comments:  make(map[string]*models.Comment),
		whispers:  make(map[string]*models.Whisper),
		inquiries: make(map[string]*models.Inquiry),
	}
}

func (s *fakeStore) ImportUser(_ context.Context, u *models.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if _, ok := s.users[u.ID]; ok {
		return false, nil
	}
	s.users[u.ID] = u
	return true, nil
}

func (s *fakeStore) ImportPost(_ context.Context, p *models.Post) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if _, ok := s.posts[p.ID]; ok {
		return false, nil
	}
	s.posts[p.ID] = p
	return true, nil
}

func (s *fakeStore) ImportUpvote(_ context.Context, postID, userID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.upvotes[postID+"/"+userID] = true
	return nil
}

func (s *fakeStore) ImportComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.comments[c.ID] = c
	return nil
}

func (s *fakeStore) CreateWhisper(_ context.Context, w *models.Whisper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.whispers[w.ID] = w
	return nil
}

func (s *fakeStore) CreateInquiry(_ context.Context, q *models.Inquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.inquiries[q.ID] = q
	return nil
}

type fakeRecomputer struct {
	triggers []string
}

func (r *fakeRecomputer) Recompute(_ context.Context, trigger string) (*models.RankingRun, error) {
	r.triggers = append(r.triggers, trigger)
	return &models.RankingRun{ID: "run-1", Trigger: trigger}, nil
}

func legacyData() map[string][]Document {
	created := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	return map[string][]Document{
		CollectionUsers: {
			{ID: "u1", Data: map[string]interface{}{"email": "Ada@Example.com", "nickname": "ada", "createdAt": created}},
			{ID: "u2", Data: map[string]interface{}{"email": "bob@example.com", "nickname": "bob", "role": "admin"}},
			{ID: "u3", Data: map[string]interface{}{"nickname": "ghost"}},
		},
		CollectionPosts: {
			{ID: "p1", Data: map[string]interface{}{"authorId": "u1", "category": "Unity", "title": "Shaders", "content": "...", "views": int64(10), "upvotedBy": []interface{}{"u2"}}},
			{ID: "p2", Data: map[string]interface{}{"authorId": "u2", "category": "gamemaker", "title": "Pixels", "content": "..."}},
			{ID: "p3", Data: map[string]interface{}{"authorId": "u1", "category": "godot", "title": "Signals", "content": "...", "tags": []interface{}{"GDScript", "gdscript", "2d"}}},
			{ID: "p4", Data: map[string]interface{}{"category": "godot", "title": "orphan"}},
		},
		CollectionComments: {
			{ID: "c1", Data: map[string]interface{}{"postId": "p1", "authorId": "u2", "content": "nice"}},
		},
		CollectionWhispers: {
			{ID: "w1", Data: map[string]interface{}{"senderId": "u1", "recipientId": "u2", "content": "hi", "read": true}},
		},
		CollectionInquiries: {
			{ID: "q1", Data: map[string]interface{}{"email": "x@example.com", "subject": "help", "message": "pls", "answer": "done"}},
		},
	}
}

func TestImporter_FullImport(t *testing.T) {
	store := newFakeStore()
	progress := NewInMemoryProgress()
	rec := &fakeRecomputer{}
	imp := NewImporter(newFakeSource(legacyData()), store, progress, rec)
	ctx := context.Background()

	stats, err := imp.Import(ctx, Options{BatchSize: 2})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	processed, imported, skipped, errs := stats.Totals()
	if processed != 10 || imported != 8 || skipped != 2 || errs != 0 {
		t.Errorf("totals = %d/%d/%d/%d, want 10/8/2/0", processed, imported, skipped, errs)
	}

	if got := store.posts["p2"].Category; got != models.CategoryGeneral {
		t.Errorf("unknown category mapped to %s, want general", got)
	}
	if got := store.posts["p1"].Category; got != models.CategoryUnity {
		t.Errorf("p1 category = %s", got)
	}
	if got := store.posts["p1"].Upvotes; got != 1 {
		t.Errorf("p1 upvotes = %d, want 1 from upvotedBy", got)
	}
	if !store.upvotes["p1/u2"] {
		t.Error("upvote of u2 on p1 not imported")
	}
	if tags := store.posts["p3"].Tags; len(tags) != 2 || tags[0] != "gdscript" || tags[1] != "2d" {
		t.Errorf("p3 tags = %v", tags)
	}
	if store.users["u1"].Email != "ada@example.com" || store.users["u2"].Role != models.RoleAdmin {
		t.Errorf("users = %+v, %+v", store.users["u1"], store.users["u2"])
	}
	if store.whispers["w1"].ReadAt == nil {
		t.Error("read whisper should carry a read time")
	}
	if store.inquiries["q1"].Status != models.InquiryAnswered {
		t.Errorf("inquiry status = %s", store.inquiries["q1"].Status)
	}

	if len(rec.triggers) != 1 || rec.triggers[0] != "import" {
		t.Errorf("recompute triggers = %v", rec.triggers)
	}
	if stats.RankingRun != "run-1" {
		t.Errorf("RankingRun = %q", stats.RankingRun)
	}

	for _, c := range Collections {
		cp, _ := progress.LoadCollection(ctx, c)
		if cp == nil || !cp.Done {
			t.Errorf("collection %s progress = %+v, want done", c, cp)
		}
	}

	summary, err := imp.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Status != "completed" || summary.Imported != 8 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestImporter_DryRun(t *testing.T) {
	store := newFakeStore()
	progress := NewInMemoryProgress()
	rec := &fakeRecomputer{}
	imp := NewImporter(newFakeSource(legacyData()), store, progress, rec)

	stats, err := imp.Import(context.Background(), Options{BatchSize: 3, DryRun: true})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if _, imported, _, _ := stats.Totals(); imported != 8 {
		t.Errorf("dry run imported = %d, want 8", imported)
	}
	if store.writes != 0 {
		t.Errorf("dry run wrote %d rows", store.writes)
	}
	if len(rec.triggers) != 0 {
		t.Error("dry run should not recompute")
	}
	if s, _ := progress.LoadStats(context.Background()); s != nil {
		t.Error("dry run should not save progress")
	}
}

func TestImporter_Resume(t *testing.T) {
	store := newFakeStore()
	progress := NewInMemoryProgress()
	source := newFakeSource(legacyData())
	source.failOn[CollectionPosts] = 2
	imp := NewImporter(source, store, progress, nil)
	ctx := context.Background()

	if _, err := imp.Import(ctx, Options{BatchSize: 2}); err == nil {
		t.Fatal("Import() should fail when the source fails")
	}

	users, _ := progress.LoadCollection(ctx, CollectionUsers)
	posts, _ := progress.LoadCollection(ctx, CollectionPosts)
	if users == nil || !users.Done {
		t.Fatalf("users progress = %+v", users)
	}
	if posts == nil || posts.Done || posts.LastID != "p2" {
		t.Fatalf("posts progress = %+v, want stopped after p2", posts)
	}
	if summary, _ := LastStatus(ctx, progress); summary.Status != "failed" {
		t.Errorf("status after failure = %s", summary.Status)
	}

	usersBefore := source.calls[CollectionUsers]
	writesBefore := store.writes
	delete(source.failOn, CollectionPosts)

	stats, err := imp.Import(ctx, Options{BatchSize: 2})
	if err != nil {
		t.Fatalf("resumed Import() error = %v", err)
	}
	if source.calls[CollectionUsers] != usersBefore {
		t.Error("finished collections should not be read again")
	}
	// p3 and p4 (skipped), c1 and w1 and q1
	if got := store.writes - writesBefore; got != 4 {
		t.Errorf("resume wrote %d rows, want 4", got)
	}
	if len(store.posts) != 3 {
		t.Errorf("posts = %d, want 3", len(store.posts))
	}
	posts, _ = progress.LoadCollection(ctx, CollectionPosts)
	if posts.Processed != 4 || posts.Imported != 3 || posts.Skipped != 1 {
		t.Errorf("posts progress = %+v", posts)
	}
	if stats.Error != "" {
		t.Errorf("stats.Error = %q", stats.Error)
	}

	if _, err := imp.Import(ctx, Options{BatchSize: 2, Fresh: true}); err != nil {
		t.Fatal(err)
	}
	posts, _ = progress.LoadCollection(ctx, CollectionPosts)
	if posts.Imported != 0 || posts.Skipped != 4 {
		t.Errorf("fresh rerun over existing rows = %+v, want all skipped", posts)
	}
}

func TestImporter_Collections(t *testing.T) {
	store := newFakeStore()
	imp := NewImporter(newFakeSource(legacyData()), store, NewInMemoryProgress(), nil)

	stats, err := imp.Import(context.Background(), Options{Collections: []string{CollectionInquiries, CollectionUsers}})
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.Collections) != 2 || stats.Collections[0].Collection != CollectionUsers {
		t.Errorf("collections = %+v, want users then inquiries", stats.Collections)
	}
	if len(store.posts) != 0 {
		t.Error("posts should not be imported")
	}

	if _, err := imp.Import(context.Background(), Options{Collections: []string{"likes"}}); err == nil {
		t.Error("unknown collection should be rejected")
	}
}

func TestImporter_Stop(t *testing.T) {
	imp := NewImporter(newFakeSource(nil), newFakeStore(), NewInMemoryProgress(), nil)
	if err := imp.Stop(); err == nil {
		t.Error("Stop() without a running import should fail")
	}
	if imp.IsRunning() {
		t.Error("IsRunning() = true")
	}
	if s := imp.GetStats(); len(s.Collections) != 0 {
		t.Errorf("GetStats() = %+v", s)
	}
}

func TestBadgerProgress(t *testing.T) {
	kv, err := kvstore.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()
	ctx := context.Background()
	p := NewBadgerProgress(kv)

	if cp, err := p.LoadCollection(ctx, CollectionPosts); cp != nil || err != nil {
		t.Errorf("LoadCollection() on empty store = %+v, %v", cp, err)
	}
	if s, err := p.LoadStats(ctx); s != nil || err != nil {
		t.Errorf("LoadStats() on empty store = %+v, %v", s, err)
	}

	if err := p.SaveCollection(ctx, &CollectionProgress{Collection: CollectionPosts, LastID: "p9", Processed: 9}); err != nil {
		t.Fatal(err)
	}
	if err := p.SaveStats(ctx, &ImportStats{StartTime: time.Now(), EndTime: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := kv.Exists(ctx, "import:posts"); !ok {
		t.Error("progress should live under import:posts")
	}

	cp, err := p.LoadCollection(ctx, CollectionPosts)
	if err != nil || cp.LastID != "p9" || cp.Processed != 9 {
		t.Errorf("LoadCollection() = %+v, %v", cp, err)
	}
	summary, err := LastStatus(ctx, p)
	if err != nil || summary.Status != "completed" {
		t.Errorf("LastStatus() = %+v, %v", summary, err)
	}

	if err := p.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if cp, _ := p.LoadCollection(ctx, CollectionPosts); cp != nil {
		t.Error("Clear() should remove collection progress")
	}
	if summary, _ := LastStatus(ctx, p); summary.Status != "never_run" {
		t.Errorf("status after clear = %s", summary.Status)
	}
}
