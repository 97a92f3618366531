// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Suitable for development and
// testing; data is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	maxLen  int
}

// NewMemoryStore creates a new in-memory audit store. maxLen caps the
// number of retained entries; oldest entries are evicted past the cap.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		entries: make([]Entry, 0, maxLen),
		maxLen:  maxLen,
	}
}

// Create persists an entry.
func (s *MemoryStore) Create(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.maxLen {
		// Evict oldest 10% to amortize the shift.
		removeCount := s.maxLen / 10
		if removeCount < 1 {
			removeCount = 1
		}
		s.entries = s.entries[removeCount:]
	}

	s.entries = append(s.entries, *entry)
	return nil
}

// Query retrieves matching entries, most recent first.
func (s *MemoryStore) Query(_ context.Context, filter Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Entry
	skipped := 0

	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if !filter.Matches(&e) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		results = append(results, e)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}

	return results, nil
}

// Count returns the number of matching entries.
func (s *MemoryStore) Count(_ context.Context, filter Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for i := range s.entries {
		if filter.Matches(&s.entries[i]) {
			count++
		}
	}
	return count, nil
}

// DeleteOlderThan removes entries created strictly before the cutoff.
func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	var deleted int64

	for i := range s.entries {
		if s.entries[i].CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, s.entries[i])
	}

	s.entries = kept
	return deleted, nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
