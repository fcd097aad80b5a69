// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/indieforge/internal/kvstore"
)

const revokedKeyPrefix = "revoked:"

// RevocationStore remembers the jti of logged-out tokens until they would
// have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NewRevocationStore returns a badger-backed store, or an in-memory one
// when kv is nil.
func NewRevocationStore(kv *kvstore.Store) RevocationStore {
	if kv == nil {
		return NewMemoryRevocationStore()
	}
	return &BadgerRevocationStore{kv: kv}
}

// BadgerRevocationStore keeps revoked jtis as TTL keys so they survive a
// restart and expire on their own.
type BadgerRevocationStore struct {
	kv *kvstore.Store
}

// Revoke stores jti until expiresAt. Tokens already past expiry are
// ignored.
func (s *BadgerRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	// badger TTLs are whole seconds
	if ttl < time.Second {
		ttl = time.Second
	}
	return s.kv.Set(ctx, revokedKeyPrefix+jti, []byte{1}, ttl)
}

// IsRevoked reports whether jti was revoked and has not yet expired.
func (s *BadgerRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.kv.Exists(ctx, revokedKeyPrefix+jti)
}

// MemoryRevocationStore is the in-process fallback used when no kv store
// is configured and in tests.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationStore creates an empty in-memory store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke records jti until expiresAt and drops expired entries.
func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !expiresAt.After(now) {
		return nil
	}
	s.entries[jti] = expiresAt
	for k, exp := range s.entries {
		if !exp.After(now) {
			delete(s.entries, k)
		}
	}
	return nil
}

// IsRevoked reports whether jti is revoked.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.entries[jti]
	if !ok {
		return false, nil
	}
	if !exp.After(s.now()) {
		delete(s.entries, jti)
		return false, nil
	}
	return true, nil
}

// Len returns the number of tracked entries.
func (s *MemoryRevocationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
