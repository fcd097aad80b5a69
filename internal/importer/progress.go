// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/indieforge/internal/kvstore"
)

const (
	progressPrefix = "import:"
	// statusKey holds the stats of the last run. No collection is named
	// status.
	statusKey = "import:status"
)

// ProgressTracker persists import progress so an interrupted run resumes.
type ProgressTracker interface {
	LoadCollection(ctx context.Context, collection string) (*CollectionProgress, error)
	SaveCollection(ctx context.Context, p *CollectionProgress) error
	LoadStats(ctx context.Context) (*ImportStats, error)
	SaveStats(ctx context.Context, stats *ImportStats) error
	Clear(ctx context.Context) error
}

// BadgerProgress stores progress in the kv store under import:<collection>.
type BadgerProgress struct {
	kv *kvstore.Store
}

// NewBadgerProgress creates a tracker backed by kv.
func NewBadgerProgress(kv *kvstore.Store) *BadgerProgress {
	return &BadgerProgress{kv: kv}
}

// LoadCollection returns nil, nil when the collection has no progress.
func (p *BadgerProgress) LoadCollection(ctx context.Context, collection string) (*CollectionProgress, error) {
	var cp CollectionProgress
	err := p.kv.GetJSON(ctx, progressPrefix+collection, &cp)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s progress: %w", collection, err)
	}
	return &cp, nil
}

// SaveCollection persists the progress of one collection.
func (p *BadgerProgress) SaveCollection(ctx context.Context, cp *CollectionProgress) error {
	return p.kv.SetJSON(ctx, progressPrefix+cp.Collection, cp, 0)
}

// LoadStats returns nil, nil when no import has run.
func (p *BadgerProgress) LoadStats(ctx context.Context) (*ImportStats, error) {
	var stats ImportStats
	err := p.kv.GetJSON(ctx, statusKey, &stats)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load import status: %w", err)
	}
	return &stats, nil
}

// SaveStats persists the stats of the current run.
func (p *BadgerProgress) SaveStats(ctx context.Context, stats *ImportStats) error {
	return p.kv.SetJSON(ctx, statusKey, stats, 0)
}

// Clear removes all saved progress for a fresh import.
func (p *BadgerProgress) Clear(ctx context.Context) error {
	_, err := p.kv.DeletePrefix(ctx, progressPrefix)
	return err
}

// InMemoryProgress implements ProgressTracker without persistence.
type InMemoryProgress struct {
	mu          sync.Mutex
	collections map[string]CollectionProgress
	stats       *ImportStats
}

// NewInMemoryProgress creates an empty in-memory tracker.
func NewInMemoryProgress() *InMemoryProgress {
	return &InMemoryProgress{collections: make(map[string]CollectionProgress)}
}

func (p *InMemoryProgress) LoadCollection(_ context.Context, collection string) (*CollectionProgress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp, ok := p.collections[collection]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

func (p *InMemoryProgress) SaveCollection(_ context.Context, cp *CollectionProgress) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.collections[cp.Collection] = *cp
	return nil
}

func (p *InMemoryProgress) LoadStats(_ context.Context) (*ImportStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stats == nil {
		return nil, nil
	}
	statsCopy := *p.stats
	return &statsCopy, nil
}

func (p *InMemoryProgress) SaveStats(_ context.Context, stats *ImportStats) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	statsCopy := *stats
	p.stats = &statsCopy
	return nil
}

func (p *InMemoryProgress) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.collections = make(map[string]CollectionProgress)
	p.stats = nil
	return nil
}
