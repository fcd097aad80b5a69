// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package media

import (
	"context"
	"errors"

	"github.com/tomtom215/indieforge/internal/kvstore"
)

// Variants stored per image.
const (
	VariantFull  = "full"
	VariantThumb = "thumb"
	VariantMeta  = "meta"
)

// Backend stores image bytes by id and variant.
type Backend interface {
	Name() string
	Put(ctx context.Context, id, variant string, data []byte) error
	Get(ctx context.Context, id, variant string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// BadgerBackend keeps images in the shared kv store under
// media:<id>:<variant>.
type BadgerBackend struct {
	kv *kvstore.Store
}

// NewBadgerBackend creates the default backend.
func NewBadgerBackend(kv *kvstore.Store) *BadgerBackend {
	return &BadgerBackend{kv: kv}
}

func badgerKey(id, variant string) string {
	return "media:" + id + ":" + variant
}

// Name identifies the backend in metrics.
func (b *BadgerBackend) Name() string { return "badger" }

// Put stores one variant.
func (b *BadgerBackend) Put(ctx context.Context, id, variant string, data []byte) error {
	return b.kv.Set(ctx, badgerKey(id, variant), data, 0)
}

// Get loads one variant.
func (b *BadgerBackend) Get(ctx context.Context, id, variant string) ([]byte, error) {
	data, err := b.kv.Get(ctx, badgerKey(id, variant))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

// Delete removes every variant of id.
func (b *BadgerBackend) Delete(ctx context.Context, id string) error {
	_, err := b.kv.DeletePrefix(ctx, "media:"+id+":")
	return err
}
