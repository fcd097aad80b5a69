// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/indieforge/internal/models"
)

func TestAdmin_RequiresStoredAdminRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	// a forged role claim is not enough
	forged := &models.Actor{ID: alice.ID, Nickname: alice.Nickname, Role: models.RoleAdmin}
	if _, err := env.svc.DashboardStats(ctx, forged); !errors.Is(err, ErrForbidden) {
		t.Errorf("DashboardStats error = %v, want ErrForbidden", err)
	}
	if _, err := env.svc.DashboardStats(ctx, nil); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous DashboardStats error = %v", err)
	}
}

func TestAdmin_SetRoleAndBan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t, "mod")
	alice := env.user(t, "alice")

	if err := env.svc.SetRole(ctx, admin, admin.ID, models.SetRoleInput{Role: models.RoleUser}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("self demotion error = %v", err)
	}
	if err := env.svc.SetBanned(ctx, admin, admin.ID, models.SetBannedInput{Banned: true}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("self ban error = %v", err)
	}
	if err := env.svc.SetRole(ctx, admin, alice.ID, models.SetRoleInput{Role: "owner"}); err == nil {
		t.Error("unknown role should fail validation")
	}

	if err := env.svc.SetBanned(ctx, admin, alice.ID, models.SetBannedInput{Banned: true}); err != nil {
		t.Fatalf("SetBanned() error = %v", err)
	}
	if _, err := env.svc.CreatePost(ctx, alice, models.CreatePostInput{Category: "unity", Title: "t", Content: "c"}); !errors.Is(err, ErrBanned) {
		t.Errorf("banned member post error = %v", err)
	}
	if err := env.svc.SetBanned(ctx, admin, alice.ID, models.SetBannedInput{Banned: false}); err != nil {
		t.Fatalf("unban error = %v", err)
	}

	if err := env.svc.SetRole(ctx, admin, alice.ID, models.SetRoleInput{Role: models.RoleAdmin}); err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}
	if _, err := env.svc.DashboardStats(ctx, alice); err != nil {
		t.Errorf("promoted member DashboardStats error = %v", err)
	}
	if err := env.svc.SetBanned(ctx, admin, "ghost", models.SetBannedInput{Banned: true}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user error = %v", err)
	}

	want := []string{"user.ban", "user.unban", "user.set_role"}
	got := env.auditor.actions()
	if len(got) != len(want) {
		t.Fatalf("audit actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("audit action %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestAdmin_ListUsersAndDashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t, "mod")
	alice := env.user(t, "alice")
	env.user(t, "bob")
	env.post(t, alice, "godot", "Hello")

	users, total, err := env.svc.ListUsers(ctx, admin, models.UserFilter{Query: "ali"})
	if err != nil || total != 1 || users[0].Email != "alice@example.org" {
		t.Fatalf("ListUsers() = %+v/%d, %v", users, total, err)
	}
	if _, _, err := env.svc.ListUsers(ctx, admin, models.UserFilter{Role: "owner"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown role filter error = %v", err)
	}

	stats, err := env.svc.DashboardStats(ctx, admin)
	if err != nil {
		t.Fatalf("DashboardStats() error = %v", err)
	}
	if stats.Users != 3 || stats.Posts != 1 || stats.PostsByCategory[models.CategoryGodot] != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAdmin_TriggerRecompute(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t, "mod")
	alice := env.user(t, "alice")

	if _, err := env.svc.TriggerRecompute(ctx, alice); !errors.Is(err, ErrForbidden) {
		t.Errorf("member TriggerRecompute error = %v", err)
	}
	run, err := env.svc.TriggerRecompute(ctx, admin)
	if err != nil {
		t.Fatalf("TriggerRecompute() error = %v", err)
	}
	if run.Trigger != TriggerManual {
		t.Errorf("Trigger = %s", run.Trigger)
	}
}

func TestUsers_ProfileAndSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	env.user(t, "alicorn")
	bob := env.user(t, "bob")

	nick := "bob"
	if _, err := env.svc.UpdateProfile(ctx, alice, models.UpdateProfileInput{Nickname: &nick}); !errors.Is(err, ErrConflict) {
		t.Errorf("taken nickname error = %v, want ErrConflict", err)
	}
	bio := "Pixel artist"
	u, err := env.svc.UpdateProfile(ctx, bob, models.UpdateProfileInput{Bio: &bio})
	if err != nil || u.Bio != bio {
		t.Fatalf("UpdateProfile() = %+v, %v", u, err)
	}

	p, err := env.svc.GetProfileByNickname(ctx, "BOB")
	if err != nil || p.User.Bio != bio || p.OverallRank != 0 {
		t.Errorf("GetProfileByNickname() = %+v, %v", p, err)
	}

	found, err := env.svc.SearchUsers(ctx, "ali", 10)
	if err != nil || len(found) != 2 {
		t.Fatalf("SearchUsers() = %v, %v", found, err)
	}
	for _, u := range found {
		if u.Email != "" {
			t.Errorf("search leaked email %s", u.Email)
		}
	}
	if found, _ := env.svc.SearchUsers(ctx, "example.org", 10); len(found) != 0 {
		t.Errorf("email search should not match nicknames: %v", found)
	}
	if found, _ := env.svc.SearchUsers(ctx, "   ", 10); len(found) != 0 {
		t.Errorf("blank query = %v", found)
	}
}

func TestChannels(t *testing.T) {
	chs := Channels()
	want := []string{"unity", "unreal", "godot", "general", "all"}
	if len(chs) != len(want) {
		t.Fatalf("Channels() = %d, want %d", len(chs), len(want))
	}
	for i, id := range want {
		if chs[i].ID != id {
			t.Errorf("channel %d = %s, want %s", i, chs[i].ID, id)
		}
	}
	chs[0].Categories[0] = models.CategoryGodot
	if cats, _ := ChannelCategories("unity"); cats[0] != models.CategoryUnity {
		t.Error("Channels() must return copies")
	}
	if cats, _ := ChannelCategories(ChannelAll); len(cats) != 4 {
		t.Errorf("all channel categories = %v", cats)
	}
	if _, err := ChannelCategories("flash"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown channel error = %v", err)
	}
}
