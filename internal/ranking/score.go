// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

// Package ranking computes post scores, per-category user rankings and the
// nickname styling derived from them.
//
// Everything here is pure: callers load posts from the store, hand them to
// Aggregate and persist the result. The score of a post is
//
//	score = views*Views + upvotes*Upvotes + comments*Comments
//
// rounded to two decimals so that equal engagement always compares equal.
package ranking

import (
	"math"

	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/models"
)

// Weights are the per-signal multipliers of the post score.
type Weights struct {
	Views    float64
	Upvotes  float64
	Comments float64
}

// DefaultWeights favour upvotes over comments over raw views.
func DefaultWeights() Weights {
	return Weights{Views: 1, Upvotes: 10, Comments: 5}
}

// WeightsFromConfig reads the weights from the ranking config section.
func WeightsFromConfig(cfg *config.RankingConfig) Weights {
	return Weights{
		Views:    cfg.ViewWeight,
		Upvotes:  cfg.UpvoteWeight,
		Comments: cfg.CommentWeight,
	}
}

// PostScore returns the score for one post. Negative counters are treated
// as zero.
func PostScore(c models.PostCounters, w Weights) float64 {
	s := float64(nonNegative(c.Views))*w.Views +
		float64(nonNegative(c.Upvotes))*w.Upvotes +
		float64(nonNegative(c.CommentCount))*w.Comments
	return round2(s)
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
