// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

// Package importer copies the legacy Firestore data into DuckDB.
//
// Collections are read in document id order in batches. After each batch
// the last document id is saved in Badger, so a rerun picks up where the
// previous one stopped. Writes are idempotent (ON CONFLICT DO NOTHING),
// which makes replaying a partially written batch safe.
//
//	Firestore ──ReadBatch──▶ Mapper ──▶ DuckDB
//	                                 └─▶ Badger (import:<collection>)
//
// When every collection is done the rankings are recomputed once.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/metrics"
	"github.com/tomtom215/indieforge/internal/models"
)

// DefaultBatchSize is used when Options.BatchSize is not positive.
const DefaultBatchSize = 500

// ErrAlreadyRunning is returned when Import is called during an import.
var ErrAlreadyRunning = errors.New("import already in progress")

// Store is the write side of the forum database.
type Store interface {
	ImportUser(ctx context.Context, u *models.User) (bool, error)
	ImportPost(ctx context.Context, p *models.Post) (bool, error)
	ImportUpvote(ctx context.Context, postID, userID string, at time.Time) error
	ImportComment(ctx context.Context, c *models.Comment) error
	CreateWhisper(ctx context.Context, w *models.Whisper) error
	CreateInquiry(ctx context.Context, q *models.Inquiry) error
}

// Recomputer rebuilds the rankings after an import.
type Recomputer interface {
	Recompute(ctx context.Context, trigger string) (*models.RankingRun, error)
}

// Options control one import run.
type Options struct {
	BatchSize int
	// DryRun maps documents without writing or saving progress.
	DryRun bool
	// Fresh discards saved progress before starting.
	Fresh bool
	// Collections limits the run to these collections, in import order.
	Collections []string
}

// Importer copies legacy collections into the forum database.
type Importer struct {
	source    Source
	store     Store
	progress  ProgressTracker
	recompute Recomputer
	mapper    *Mapper

	mu      sync.RWMutex
	running bool
	stats   *ImportStats
	cancel  context.CancelFunc
}

// NewImporter creates an importer. recompute may be nil.
func NewImporter(source Source, store Store, progress ProgressTracker, recompute Recomputer) *Importer {
	return &Importer{
		source:    source,
		store:     store,
		progress:  progress,
		recompute: recompute,
		mapper:    NewMapper(),
	}
}

// Import runs the import and returns its statistics.
func (i *Importer) Import(ctx context.Context, opts Options) (*ImportStats, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	collections, err := selectCollections(opts.Collections)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	i.running = true
	i.cancel = cancel
	i.stats = &ImportStats{StartTime: time.Now().UTC(), DryRun: opts.DryRun}
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.running = false
		i.cancel = nil
		i.mu.Unlock()
	}()

	if opts.Fresh && !opts.DryRun {
		if err := i.progress.Clear(ctx); err != nil {
			return i.GetStats(), fmt.Errorf("clear progress: %w", err)
		}
	}

	logging.Info().Strs("collections", collections).Int("batch_size", opts.BatchSize).
		Bool("dry_run", opts.DryRun).Msg("Starting Firestore import")

	runErr := i.run(ctx, collections, opts)

	i.mu.Lock()
	i.stats.EndTime = time.Now().UTC()
	if runErr != nil {
		i.stats.Error = runErr.Error()
		if errors.Is(runErr, context.Canceled) {
			// interrupted runs stay resumable
			i.stats.EndTime = time.Time{}
		}
	}
	stats := *i.stats
	i.mu.Unlock()

	if !opts.DryRun {
		saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := i.progress.SaveStats(saveCtx, &stats); err != nil {
			logging.Warn().Err(err).Msg("Failed to save import status")
		}
		saveCancel()
	}

	processed, imported, skipped, errs := stats.Totals()
	logging.Info().
		Int64("processed", processed).
		Int64("imported", imported).
		Int64("skipped", skipped).
		Int64("errors", errs).
		Dur("duration", stats.Duration()).
		Msg("Firestore import finished")

	return &stats, runErr
}

func (i *Importer) run(ctx context.Context, collections []string, opts Options) error {
	for _, name := range collections {
		if err := i.importCollection(ctx, name, opts); err != nil {
			return err
		}
	}
	if opts.DryRun || i.recompute == nil {
		return nil
	}

	run, err := i.recompute.Recompute(ctx, "import")
	if err != nil {
		return fmt.Errorf("recompute rankings: %w", err)
	}
	i.mu.Lock()
	i.stats.RankingRun = run.ID
	i.mu.Unlock()
	return nil
}

func (i *Importer) importCollection(ctx context.Context, name string, opts Options) error {
	cp := &CollectionProgress{Collection: name}
	if !opts.DryRun {
		saved, err := i.progress.LoadCollection(ctx, name)
		if err != nil {
			return err
		}
		if saved != nil {
			cp = saved
		}
	}

	i.mu.Lock()
	i.stats.Collections = append(i.stats.Collections, cp)
	i.mu.Unlock()

	if cp.Done {
		logging.Info().Str("collection", name).Msg("Collection already imported, skipping")
		return nil
	}
	if cp.LastID != "" {
		logging.Info().Str("collection", name).Str("after", cp.LastID).Msg("Resuming collection")
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		docs, err := i.source.ReadBatch(ctx, name, cp.LastID, opts.BatchSize)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			break
		}

		imported, skipped, failed := i.processBatch(ctx, name, docs, opts.DryRun)

		i.mu.Lock()
		cp.Processed += int64(len(docs))
		cp.Imported += int64(imported)
		cp.Skipped += int64(skipped)
		cp.Errors += int64(failed)
		cp.LastID = docs[len(docs)-1].ID
		cp.UpdatedAt = time.Now().UTC()
		snapshot := *cp
		i.mu.Unlock()

		metrics.ImportRecords.WithLabelValues(name, "imported").Add(float64(imported))
		metrics.ImportRecords.WithLabelValues(name, "skipped").Add(float64(skipped))
		metrics.ImportRecords.WithLabelValues(name, "error").Add(float64(failed))

		if !opts.DryRun {
			if err := i.progress.SaveCollection(ctx, &snapshot); err != nil {
				logging.Warn().Err(err).Str("collection", name).Msg("Failed to save progress")
			}
		}

		logging.Info().
			Str("collection", name).
			Int64("processed", snapshot.Processed).
			Int64("imported", snapshot.Imported).
			Int64("skipped", snapshot.Skipped).
			Int64("errors", snapshot.Errors).
			Msg("Import progress")

		if len(docs) < opts.BatchSize {
			break
		}
	}

	i.mu.Lock()
	cp.Done = true
	cp.UpdatedAt = time.Now().UTC()
	snapshot := *cp
	i.mu.Unlock()
	if !opts.DryRun {
		if err := i.progress.SaveCollection(ctx, &snapshot); err != nil {
			return fmt.Errorf("save %s progress: %w", name, err)
		}
	}
	return nil
}

// processBatch maps and writes one batch. Returns counts of imported,
// skipped and failed documents.
func (i *Importer) processBatch(ctx context.Context, collection string, docs []Document, dryRun bool) (imported, skipped, failed int) {
	for _, doc := range docs {
		wrote, err := i.importDocument(ctx, collection, doc, dryRun)
		switch {
		case errors.Is(err, errSkip):
			logging.Debug().Str("collection", collection).Str("doc", doc.ID).Err(err).Msg("Skipping document")
			skipped++
		case err != nil:
			logging.Error().Err(err).Str("collection", collection).Str("doc", doc.ID).Msg("Failed to import document")
			failed++
		case !wrote:
			skipped++
		default:
			imported++
		}
	}
	return imported, skipped, failed
}

// importDocument reports whether a new row was written. In a dry run
// every mappable document counts as written.
func (i *Importer) importDocument(ctx context.Context, collection string, doc Document, dryRun bool) (bool, error) {
	switch collection {
	case CollectionUsers:
		u, err := i.mapper.ToUser(doc)
		if err != nil || dryRun {
			return err == nil, err
		}
		return i.store.ImportUser(ctx, u)

	case CollectionPosts:
		p, upvoters, err := i.mapper.ToPost(doc)
		if err != nil || dryRun {
			return err == nil, err
		}
		inserted, err := i.store.ImportPost(ctx, p)
		if err != nil {
			return false, err
		}
		for _, uid := range upvoters {
			if err := i.store.ImportUpvote(ctx, p.ID, uid, p.CreatedAt); err != nil {
				return inserted, err
			}
		}
		return inserted, nil

	case CollectionComments:
		c, err := i.mapper.ToComment(doc)
		if err != nil || dryRun {
			return err == nil, err
		}
		return true, i.store.ImportComment(ctx, c)

	case CollectionWhispers:
		w, err := i.mapper.ToWhisper(doc)
		if err != nil || dryRun {
			return err == nil, err
		}
		return true, i.store.CreateWhisper(ctx, w)

	case CollectionInquiries:
		q, err := i.mapper.ToInquiry(doc)
		if err != nil || dryRun {
			return err == nil, err
		}
		return true, i.store.CreateInquiry(ctx, q)
	}
	return false, fmt.Errorf("unknown collection %q", collection)
}

func selectCollections(names []string) ([]string, error) {
	if len(names) == 0 {
		return Collections, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make([]string, 0, len(names))
	for _, c := range Collections {
		if want[c] {
			out = append(out, c)
			delete(want, c)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("unknown collection %q", n)
	}
	return out, nil
}

// Stop cancels a running import. Progress up to the last batch is kept.
func (i *Importer) Stop() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.running {
		return fmt.Errorf("no import in progress")
	}
	i.cancel()
	return nil
}

// GetStats returns a copy of the current run's statistics.
func (i *Importer) GetStats() *ImportStats {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.stats == nil {
		return &ImportStats{}
	}
	stats := *i.stats
	stats.Collections = make([]*CollectionProgress, len(i.stats.Collections))
	for n, c := range i.stats.Collections {
		cp := *c
		stats.Collections[n] = &cp
	}
	return &stats
}

// IsRunning reports whether an import is in progress.
func (i *Importer) IsRunning() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.running
}

// Status summarizes the current run, or the last recorded one.
func (i *Importer) Status(ctx context.Context) (*ProgressSummary, error) {
	if i.IsRunning() {
		return i.GetStats().ToSummary(true), nil
	}
	return LastStatus(ctx, i.progress)
}

// LastStatus summarizes the last recorded run from the tracker.
func LastStatus(ctx context.Context, progress ProgressTracker) (*ProgressSummary, error) {
	stats, err := progress.LoadStats(ctx)
	if err != nil {
		return nil, err
	}
	return stats.ToSummary(false), nil
}
