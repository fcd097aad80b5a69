// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/indieforge/internal/auth"
	"github.com/tomtom215/indieforge/internal/models"
)

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/auth/signup", "", models.SignupInput{
		Email: "ada@example.org", Password: "correct horse", Nickname: "ada",
	})
	expectStatus(t, rec, http.StatusCreated)
	var signup models.AuthResult
	decodeData(t, rec, &signup)
	if signup.Token == "" || signup.User.Nickname != "ada" || signup.IsAdmin {
		t.Fatalf("signup result = %+v", signup)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), auth.TokenCookieName+"=") {
		t.Errorf("signup should set the session cookie, got %q", rec.Header().Get("Set-Cookie"))
	}

	rec = s.do(http.MethodPost, "/api/v1/auth/signup", "", models.SignupInput{
		Email: "ada@example.org", Password: "correct horse", Nickname: "ada2",
	})
	expectStatus(t, rec, http.StatusConflict)

	rec = s.do(http.MethodGet, "/api/v1/auth/me", signup.Token, nil)
	expectStatus(t, rec, http.StatusOK)
	var me models.MeResponse
	decodeData(t, rec, &me)
	if me.User == nil || me.User.Email != "ada@example.org" {
		t.Errorf("me = %+v", me)
	}

	rec = s.do(http.MethodPost, "/api/v1/auth/logout", signup.Token, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(http.MethodGet, "/api/v1/auth/me", signup.Token, nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = s.do(http.MethodPost, "/api/v1/auth/login", "", models.LoginInput{Email: "ada@example.org", Password: "wrong password"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = s.do(http.MethodPost, "/api/v1/auth/login", "", models.LoginInput{Email: "ADA@example.org", Password: "correct horse"})
	expectStatus(t, rec, http.StatusOK)
	var login models.AuthResult
	decodeData(t, rec, &login)
	if login.Token == "" || login.Token == signup.Token {
		t.Error("login should issue a fresh token")
	}
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.createUser("member", models.RoleUser)
	_, adminToken := s.createUser("boss", models.RoleAdmin)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"anonymous browse", http.MethodGet, "/api/v1/posts", "", http.StatusOK},
		{"anonymous channels", http.MethodGet, "/api/v1/channels", "", http.StatusOK},
		{"anonymous write", http.MethodPost, "/api/v1/posts", "", http.StatusUnauthorized},
		{"anonymous whispers", http.MethodGet, "/api/v1/whispers/inbox", "", http.StatusUnauthorized},
		{"anonymous admin", http.MethodGet, "/api/v1/admin/stats", "", http.StatusUnauthorized},
		{"member admin", http.MethodGet, "/api/v1/admin/stats", userToken, http.StatusForbidden},
		{"member inbox", http.MethodGet, "/api/v1/whispers/inbox", userToken, http.StatusOK},
		{"admin stats", http.MethodGet, "/api/v1/admin/stats", adminToken, http.StatusOK},
		{"garbage token is anonymous", http.MethodGet, "/api/v1/admin/stats", "not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.token, nil)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestPosts(t *testing.T) {
	s := newTestServer(t)
	_, author := s.createUser("author", models.RoleUser)
	_, other := s.createUser("other", models.RoleUser)

	var ids []string
	for i := 0; i < 3; i++ {
		rec := s.do(http.MethodPost, "/api/v1/posts", author, models.CreatePostInput{
			Category: "godot", Title: fmt.Sprintf("Devlog %d", i), Content: "Shaders all day", Tags: []string{"devlog"},
		})
		expectStatus(t, rec, http.StatusCreated)
		var post models.Post
		decodeData(t, rec, &post)
		ids = append(ids, post.ID)
	}

	rec := s.do(http.MethodGet, "/api/v1/posts?category=godot&limit=2", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var page []models.Post
	env := decodeData(t, rec, &page)
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	p := env.Metadata.Pagination
	if p == nil || p.Total != 3 || p.Count != 2 || p.Limit != 2 || !p.HasMore {
		t.Errorf("pagination = %+v", p)
	}

	rec = s.do(http.MethodGet, "/api/v1/channels/godot/posts", "", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(http.MethodGet, "/api/v1/posts/"+ids[0], "", nil)
	expectStatus(t, rec, http.StatusOK)

	title := "Devlog zero"
	rec = s.do(http.MethodPut, "/api/v1/posts/"+ids[0], other, models.UpdatePostInput{Title: &title})
	expectStatus(t, rec, http.StatusForbidden)
	rec = s.do(http.MethodPut, "/api/v1/posts/"+ids[0], author, models.UpdatePostInput{Title: &title})
	expectStatus(t, rec, http.StatusOK)
	var updated models.Post
	decodeData(t, rec, &updated)
	if updated.Title != title {
		t.Errorf("title = %q", updated.Title)
	}

	rec = s.do(http.MethodPost, "/api/v1/posts/"+ids[0]+"/upvote", other, nil)
	expectStatus(t, rec, http.StatusOK)
	var vote models.UpvoteResult
	decodeData(t, rec, &vote)
	if !vote.Upvoted || vote.Upvotes != 1 {
		t.Errorf("upvote = %+v", vote)
	}

	rec = s.do(http.MethodPost, "/api/v1/posts/"+ids[0]+"/comments", other, models.CreateCommentInput{Content: "Nice"})
	expectStatus(t, rec, http.StatusCreated)
	rec = s.do(http.MethodGet, "/api/v1/posts/"+ids[0]+"/comments", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var tree []models.CommentNode
	decodeData(t, rec, &tree)
	if len(tree) != 1 || tree[0].Content != "Nice" {
		t.Errorf("comments = %+v", tree)
	}

	rec = s.do(http.MethodDelete, "/api/v1/posts/"+ids[1], other, nil)
	expectStatus(t, rec, http.StatusForbidden)
	rec = s.do(http.MethodDelete, "/api/v1/posts/"+ids[1], author, nil)
	expectStatus(t, rec, http.StatusOK)
	rec = s.do(http.MethodGet, "/api/v1/posts/"+ids[1], "", nil)
	expectStatus(t, rec, http.StatusNotFound)
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestPosts_BadInput(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser("writer", models.RoleUser)

	rec := s.do(http.MethodPost, "/api/v1/posts", token, models.CreatePostInput{Category: "cobol", Title: "t", Content: "c"})
	expectStatus(t, rec, http.StatusBadRequest)
	env := decodeEnvelope(t, rec)
	if env.Status != "error" || env.Error == nil || env.Error.Code != ErrCodeValidation {
		t.Errorf("envelope = %+v", env)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
	if env := decodeEnvelope(t, rec); env.Error.Code != ErrCodeBadRequest {
		t.Errorf("code = %q", env.Error.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/posts", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
	if env := decodeEnvelope(t, rec); env.Error.Message != "Request body is required" {
		t.Errorf("message = %q", env.Error.Message)
	}
}

func TestWhispers(t *testing.T) {
	s := newTestServer(t)
	alice, aliceToken := s.createUser("alice", models.RoleUser)
	bob, bobToken := s.createUser("bob", models.RoleUser)

	rec := s.do(http.MethodPost, "/api/v1/whispers", aliceToken, models.SendWhisperInput{RecipientID: alice.ID, Content: "me"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = s.do(http.MethodPost, "/api/v1/whispers", aliceToken, models.SendWhisperInput{RecipientID: bob.ID, Content: "gg"})
	expectStatus(t, rec, http.StatusCreated)
	var sent models.Whisper
	decodeData(t, rec, &sent)

	rec = s.do(http.MethodGet, "/api/v1/whispers/unread", bobToken, nil)
	expectStatus(t, rec, http.StatusOK)
	var unread map[string]int64
	decodeData(t, rec, &unread)
	if unread["unread"] != 1 {
		t.Errorf("unread = %v", unread)
	}

	rec = s.do(http.MethodGet, "/api/v1/whispers/with/"+alice.ID, bobToken, nil)
	expectStatus(t, rec, http.StatusOK)
	var convo []models.Whisper
	decodeData(t, rec, &convo)
	if len(convo) != 1 || convo[0].ID != sent.ID {
		t.Errorf("conversation = %+v", convo)
	}

	rec = s.do(http.MethodPost, "/api/v1/whispers/"+sent.ID+"/read", bobToken, nil)
	expectStatus(t, rec, http.StatusOK)
	rec = s.do(http.MethodGet, "/api/v1/whispers/unread", bobToken, nil)
	decodeData(t, rec, &unread)
	if unread["unread"] != 0 {
		t.Errorf("unread after read = %v", unread)
	}
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	member, memberToken := s.createUser("member", models.RoleUser)
	_, adminToken := s.createUser("boss", models.RoleAdmin)

	rec := s.do(http.MethodPut, "/api/v1/admin/users/"+member.ID+"/ban", adminToken, models.SetBannedInput{Banned: true})
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(http.MethodGet, "/api/v1/admin/users?banned=true", adminToken, nil)
	expectStatus(t, rec, http.StatusOK)
	var banned []models.User
	env := decodeData(t, rec, &banned)
	if len(banned) != 1 || banned[0].ID != member.ID || env.Metadata.Pagination.Total != 1 {
		t.Errorf("banned users = %+v", banned)
	}

	rec = s.do(http.MethodGet, "/api/v1/admin/users?banned=maybe", adminToken, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	// Banned members keep their token but cannot write.
	rec = s.do(http.MethodPost, "/api/v1/posts", memberToken, models.CreatePostInput{Category: "unity", Title: "t", Content: "c"})
	expectStatus(t, rec, http.StatusForbidden)

	rec = s.do(http.MethodPut, "/api/v1/admin/users/"+member.ID+"/role", adminToken, models.SetRoleInput{Role: "owner"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = s.do(http.MethodGet, "/api/v1/admin/inquiries?status=pending", adminToken, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = s.do(http.MethodPost, "/api/v1/admin/rankings/recompute", adminToken, nil)
	expectStatus(t, rec, http.StatusOK)
	var run models.RankingRun
	decodeData(t, rec, &run)
	if run.ID == "" {
		t.Error("recompute should return the finished run")
	}

	rec = s.do(http.MethodGet, "/api/v1/admin/import/status", adminToken, nil)
	expectStatus(t, rec, http.StatusOK)
	var status map[string]interface{}
	decodeData(t, rec, &status)
	if status["status"] != "never_run" {
		t.Errorf("import status = %v", status["status"])
	}
}

func TestInquiries(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.createUser("boss", models.RoleAdmin)

	rec := s.do(http.MethodPost, "/api/v1/inquiries", "", models.CreateInquiryInput{Subject: "Ads", Message: "hello"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = s.do(http.MethodPost, "/api/v1/inquiries", "", models.CreateInquiryInput{Email: "studio@example.org", Subject: "Ads", Message: "hello"})
	expectStatus(t, rec, http.StatusCreated)
	var q models.Inquiry
	decodeData(t, rec, &q)

	rec = s.do(http.MethodGet, "/api/v1/inquiries/"+q.ID, "", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = s.do(http.MethodPost, "/api/v1/admin/inquiries/"+q.ID+"/answer", adminToken, models.AnswerInquiryInput{Answer: "Sure"})
	expectStatus(t, rec, http.StatusOK)
	decodeData(t, rec, &q)
	if q.Status != models.InquiryAnswered {
		t.Errorf("status = %q", q.Status)
	}

	rec = s.do(http.MethodGet, "/api/v1/admin/inquiries?status=answered", adminToken, nil)
	expectStatus(t, rec, http.StatusOK)
	var list []models.Inquiry
	decodeData(t, rec, &list)
	if len(list) != 1 {
		t.Errorf("answered inquiries = %d", len(list))
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/health/live", "", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(http.MethodGet, "/api/v1/health/ready", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var health models.HealthStatus
	decodeData(t, rec, &health)
	if health.Status != "ready" || !health.DatabaseOK || health.Version != "test" {
		t.Errorf("health = %+v", health)
	}

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(http.MethodGet, "/api/v1/nowhere", "", nil)
	expectStatus(t, rec, http.StatusNotFound)
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route envelope = %+v", env)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("every response should carry a request id")
	}
}
