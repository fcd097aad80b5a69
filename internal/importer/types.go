// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package importer

import (
	"time"
)

// Legacy collections in import order. Later collections reference
// documents of earlier ones.
const (
	CollectionUsers     = "users"
	CollectionPosts     = "posts"
	CollectionComments  = "comments"
	CollectionWhispers  = "whispers"
	CollectionInquiries = "inquiries"
)

// Collections lists every collection the importer reads.
var Collections = []string{
	CollectionUsers,
	CollectionPosts,
	CollectionComments,
	CollectionWhispers,
	CollectionInquiries,
}

// Document is one legacy document as returned by a Source.
type Document struct {
	ID   string
	Data map[string]interface{}
}

// CollectionProgress is the resumable state of one collection.
type CollectionProgress struct {
	Collection string    `json:"collection"`
	LastID     string    `json:"last_id"`
	Processed  int64     `json:"processed"`
	Imported   int64     `json:"imported"`
	Skipped    int64     `json:"skipped"`
	Errors     int64     `json:"errors"`
	Done       bool      `json:"done"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ImportStats holds statistics about an import run.
type ImportStats struct {
	StartTime   time.Time             `json:"start_time"`
	EndTime     time.Time             `json:"end_time"`
	DryRun      bool                  `json:"dry_run"`
	Collections []*CollectionProgress `json:"collections"`
	// RankingRun is the id of the recompute that followed the import.
	RankingRun string `json:"ranking_run,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Duration returns the duration of the import.
func (s *ImportStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Totals sums the per-collection counters.
func (s *ImportStats) Totals() (processed, imported, skipped, errors int64) {
	for _, c := range s.Collections {
		processed += c.Processed
		imported += c.Imported
		skipped += c.Skipped
		errors += c.Errors
	}
	return
}

// RecordsPerSecond returns the import rate.
func (s *ImportStats) RecordsPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	processed, _, _, _ := s.Totals()
	return float64(processed) / duration
}

// ProgressSummary is the admin view of the last import.
type ProgressSummary struct {
	Status         string                `json:"status"`
	Processed      int64                 `json:"processed"`
	Imported       int64                 `json:"imported"`
	Skipped        int64                 `json:"skipped"`
	Errors         int64                 `json:"errors"`
	RecordsPerSec  float64               `json:"records_per_second"`
	ElapsedSeconds float64               `json:"elapsed_seconds"`
	StartTime      time.Time             `json:"start_time,omitempty"`
	EndTime        time.Time             `json:"end_time,omitempty"`
	DryRun         bool                  `json:"dry_run"`
	Collections    []*CollectionProgress `json:"collections"`
	RankingRun     string                `json:"ranking_run,omitempty"`
	Error          string                `json:"error,omitempty"`
}

// ToSummary converts stats to a summary. A nil receiver means no import
// has run.
func (s *ImportStats) ToSummary(running bool) *ProgressSummary {
	if s == nil {
		return &ProgressSummary{Status: "never_run", Collections: []*CollectionProgress{}}
	}
	processed, imported, skipped, errors := s.Totals()
	summary := &ProgressSummary{
		Processed:      processed,
		Imported:       imported,
		Skipped:        skipped,
		Errors:         errors,
		RecordsPerSec:  s.RecordsPerSecond(),
		ElapsedSeconds: s.Duration().Seconds(),
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		DryRun:         s.DryRun,
		Collections:    s.Collections,
		RankingRun:     s.RankingRun,
		Error:          s.Error,
	}
	switch {
	case running:
		summary.Status = "running"
	case s.EndTime.IsZero():
		summary.Status = "interrupted"
	case s.Error != "":
		summary.Status = "failed"
	default:
		summary.Status = "completed"
	}
	if summary.Collections == nil {
		summary.Collections = []*CollectionProgress{}
	}
	return summary
}
