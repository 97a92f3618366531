// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package rbac

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// MemoryOwnershipStore keeps resource ownership metadata in memory.
// Suitable for development and tests.
type MemoryOwnershipStore struct {
	mu      sync.RWMutex
	records map[string]map[string]string
}

// NewMemoryOwnershipStore creates an empty in-memory ownership store.
func NewMemoryOwnershipStore() *MemoryOwnershipStore {
	return &MemoryOwnershipStore{records: make(map[string]map[string]string)}
}

// Put records ownership metadata for a resource instance.
func (s *MemoryOwnershipStore) Put(resource, resourceID string, fields map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	s.records[resource+"/"+resourceID] = cp
}

// FindOwner implements OwnershipStore.
func (s *MemoryOwnershipStore) FindOwner(_ context.Context, resource, resourceID, ownerField string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.records[resource+"/"+resourceID]
	if !ok {
		return "", false, nil
	}
	return fields[ownerField], true, nil
}

const ownerKeyPrefix = "owner:"

// BadgerOwnershipStore implements OwnershipStore on BadgerDB. The content
// system writes a small metadata record per resource; authorization only
// ever reads it.
type BadgerOwnershipStore struct {
	db *badger.DB
}

// NewBadgerOwnershipStore creates a BadgerDB-backed ownership store.
func NewBadgerOwnershipStore(db *badger.DB) *BadgerOwnershipStore {
	return &BadgerOwnershipStore{db: db}
}

func ownerKey(resource, resourceID string) []byte {
	return []byte(ownerKeyPrefix + resource + ":" + resourceID)
}

// Put stores ownership metadata for a resource instance.
func (s *BadgerOwnershipStore) Put(ctx context.Context, resource, resourceID string, fields map[string]string) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal ownership record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(ownerKey(resource, resourceID), data)
	})
}

// FindOwner implements OwnershipStore.
func (s *BadgerOwnershipStore) FindOwner(_ context.Context, resource, resourceID, ownerField string) (string, bool, error) {
	var fields map[string]string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ownerKey(resource, resourceID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &fields)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get ownership record: %w", err)
	}

	return fields[ownerField], true, nil
}
