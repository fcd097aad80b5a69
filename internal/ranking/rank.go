// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package ranking

import (
	"sort"
	"time"

	"github.com/tomtom215/indieforge/internal/models"
)

// Entry is one user's line in a ranking table.
type Entry struct {
	UserID      string
	Nickname    string
	Score       float64
	PostCount   int64
	FirstPostAt time.Time
	Rank        int
}

// less orders entries for display. Only Score decides the rank; the other
// keys make the order of tied entries deterministic.
func less(a, b *Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.PostCount != b.PostCount {
		return a.PostCount > b.PostCount
	}
	if !a.FirstPostAt.Equal(b.FirstPostAt) {
		return a.FirstPostAt.Before(b.FirstPostAt)
	}
	return a.UserID < b.UserID
}

// AssignRanks returns a sorted copy of entries with Rank filled in using
// competition ranking: entries with the same score share a rank and the
// next distinct score gets its 1-based position (1, 1, 3).
// The input slice is not modified.
func AssignRanks(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)

	sort.Slice(out, func(i, j int) bool { return less(&out[i], &out[j]) })

	for i := range out {
		if i > 0 && out[i].Score == out[i-1].Score {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// Aggregate groups post contributions by category and author, sums the post
// scores and ranks each category independently. Categories with no posts
// are absent from the result.
func Aggregate(posts []models.PostContribution, w Weights) map[models.Category][]Entry {
	type key struct {
		cat    models.Category
		author string
	}
	acc := make(map[key]*Entry)

	for i := range posts {
		p := &posts[i]
		k := key{cat: p.Category, author: p.AuthorID}
		e, ok := acc[k]
		if !ok {
			e = &Entry{UserID: p.AuthorID, Nickname: p.Nickname, FirstPostAt: p.CreatedAt}
			acc[k] = e
		}
		e.Score += PostScore(models.PostCounters{
			Views:        p.Views,
			Upvotes:      p.Upvotes,
			CommentCount: p.CommentCount,
		}, w)
		e.PostCount++
		if p.CreatedAt.Before(e.FirstPostAt) {
			e.FirstPostAt = p.CreatedAt
		}
	}

	grouped := make(map[models.Category][]Entry)
	for k, e := range acc {
		e.Score = round2(e.Score)
		grouped[k.cat] = append(grouped[k.cat], *e)
	}
	for cat, entries := range grouped {
		grouped[cat] = AssignRanks(entries)
	}
	return grouped
}

// Overall sums each user's category entries into a single cross-category
// ranking with the same tie rules.
func Overall(perCategory map[models.Category][]Entry) []Entry {
	acc := make(map[string]*Entry)
	for _, entries := range perCategory {
		for i := range entries {
			src := &entries[i]
			e, ok := acc[src.UserID]
			if !ok {
				e = &Entry{UserID: src.UserID, Nickname: src.Nickname, FirstPostAt: src.FirstPostAt}
				acc[src.UserID] = e
			}
			e.Score += src.Score
			e.PostCount += src.PostCount
			if src.FirstPostAt.Before(e.FirstPostAt) {
				e.FirstPostAt = src.FirstPostAt
			}
		}
	}

	entries := make([]Entry, 0, len(acc))
	for _, e := range acc {
		e.Score = round2(e.Score)
		entries = append(entries, *e)
	}
	return AssignRanks(entries)
}

// BestRank returns the best (lowest non-zero) rank across a user's
// category stats, or 0 when the user is unranked everywhere.
func BestRank(stats []models.CategoryStat) int {
	best := 0
	for _, s := range stats {
		if s.Rank > 0 && (best == 0 || s.Rank < best) {
			best = s.Rank
		}
	}
	return best
}
