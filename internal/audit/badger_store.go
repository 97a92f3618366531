// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// entryKeyPrefix namespaces audit entries inside the shared BadgerDB.
const entryKeyPrefix = "audit:"

// BadgerStore implements Store using BadgerDB for durable storage across
// restarts. Keys embed the creation timestamp so time-ordered scans and
// retention deletes are prefix iterations, not full scans with sorting.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a BadgerDB-backed audit store.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// entryKey builds "audit:<padded-unix-nano>:<id>". Zero-padding keeps
// lexicographic order equal to chronological order.
func entryKey(createdAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", entryKeyPrefix, createdAt.UnixNano(), id))
}

// Create persists an entry.
func (s *BadgerStore) Create(_ context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.CreatedAt, entry.ID), data)
	})
}

// Query retrieves matching entries, most recent first.
func (s *BadgerStore) Query(_ context.Context, filter Filter) ([]Entry, error) {
	var results []Entry
	skipped := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryKeyPrefix)
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts past the end of the prefix range.
		seek := append([]byte(entryKeyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(entryKeyPrefix)); it.Next() {
			var entry Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("decode audit entry: %w", err)
			}

			if !filter.Matches(&entry) {
				continue
			}
			if skipped < filter.Offset {
				skipped++
				continue
			}
			results = append(results, entry)
			if filter.Limit > 0 && len(results) >= filter.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// Count returns the number of matching entries.
func (s *BadgerStore) Count(_ context.Context, filter Filter) (int64, error) {
	var count int64

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var entry Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("decode audit entry: %w", err)
			}
			if filter.Matches(&entry) {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteOlderThan removes entries created strictly before the cutoff.
// Safe to run repeatedly and concurrently: deleting an already-deleted
// key is a no-op.
func (s *BadgerStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	// Keys sort chronologically, so everything below the cutoff key is
	// eligible and the scan can stop at the first survivor.
	cutoffKey := []byte(fmt.Sprintf("%s%019d:", entryKeyPrefix, cutoff.UnixNano()))

	var doomed [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryKeyPrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if string(key) >= string(cutoffKey) {
				break
			}
			doomed = append(doomed, key)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(doomed) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range doomed {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("delete audit entry: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush audit deletes: %w", err)
	}

	return int64(len(doomed)), nil
}
