// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package cache

import (
	"sync"
	"time"

	"github.com/tomtom215/indieforge/internal/metrics"
)

type lruEntry struct {
	key       string
	seenAt    time.Time
	expiresAt time.Time
	prev      *lruEntry
	next      *lruEntry
}

// LRUSet remembers keys for a fixed window and forgets the least recently
// seen key once capacity is reached. The forum uses it to count a post view
// at most once per viewer and window.
//
// All operations are O(1): a map for lookups and a doubly-linked list for
// recency order.
type LRUSet struct {
	mu       sync.Mutex
	name     string
	capacity int
	window   time.Duration
	now      func() time.Time

	items map[string]*lruEntry

	// head.next is the most recently seen, tail.prev the least.
	head *lruEntry
	tail *lruEntry

	hits   int64
	misses int64
}

// NewLRUSet creates a set holding at most capacity keys for window each.
func NewLRUSet(name string, capacity int, window time.Duration) *LRUSet {
	if capacity <= 0 {
		capacity = 100000
	}
	if window <= 0 {
		window = 30 * time.Minute
	}

	s := &LRUSet{
		name:     name,
		capacity: capacity,
		window:   window,
		now:      time.Now,
		items:    make(map[string]*lruEntry, 1024),
		head:     &lruEntry{},
		tail:     &lruEntry{},
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

// Seen reports whether key was recorded within the window. When it was
// not, the key is recorded now and Seen returns false, so exactly one of
// several concurrent callers sees false.
func (s *LRUSet) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if entry, ok := s.items[key]; ok {
		if !now.After(entry.expiresAt) {
			s.moveToFront(entry)
			s.hits++
			metrics.RecordCacheLookup(s.name, true)
			return true
		}
		s.removeEntry(entry)
	}

	entry := &lruEntry{key: key, seenAt: now, expiresAt: now.Add(s.window)}
	s.addToFront(entry)
	s.items[key] = entry
	for len(s.items) > s.capacity {
		s.evictOldest()
	}

	s.misses++
	metrics.RecordCacheLookup(s.name, false)
	return false
}

// Contains checks key without recording it or touching recency.
func (s *LRUSet) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[key]
	return ok && !s.now().After(entry.expiresAt)
}

// Forget drops key so the next Seen returns false.
func (s *LRUSet) Forget(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.items[key]; ok {
		s.removeEntry(entry)
		return true
	}
	return false
}

// Len returns the number of tracked keys, expired ones included until the
// next CleanupExpired.
func (s *LRUSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// CleanupExpired removes expired keys and returns how many were dropped.
func (s *LRUSet) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for entry := s.tail.prev; entry != s.head; {
		prev := entry.prev
		if now.After(entry.expiresAt) {
			s.removeEntry(entry)
			removed++
		}
		entry = prev
	}
	return removed
}

// Stats returns hit/miss counts and the current size.
func (s *LRUSet) Stats() (hits, misses int64, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses, len(s.items)
}

// list helpers; callers hold s.mu

func (s *LRUSet) addToFront(entry *lruEntry) {
	entry.prev = s.head
	entry.next = s.head.next
	s.head.next.prev = entry
	s.head.next = entry
}

func (s *LRUSet) moveToFront(entry *lruEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	s.addToFront(entry)
}

func (s *LRUSet) removeEntry(entry *lruEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(s.items, entry.key)
}

func (s *LRUSet) evictOldest() {
	oldest := s.tail.prev
	if oldest == s.head {
		return
	}
	s.removeEntry(oldest)
}
