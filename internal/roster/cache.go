// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package roster holds the in-memory copy of the full directory and the
// derivations built on it.
//
// The Cache is the single source of truth for the roster view. It only
// supports whole-snapshot reads and whole-snapshot replacement; there is no
// way to patch one entry, so readers never see a half-updated roster.
package roster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/classdesk/internal/directory"
)

// Source is anything that can produce the full directory.
type Source interface {
	FetchAll(ctx context.Context) ([]directory.UserRecord, error)
}

// Cache holds the most recent full-roster fetch. It is not persisted.
type Cache struct {
	source Source

	mu        sync.RWMutex
	snapshot  []directory.UserRecord
	fetchedAt time.Time
	loaded    bool
}

// NewCache creates an empty cache that refreshes from source.
func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

// Snapshot returns a copy of the current roster in fetch order.
func (c *Cache) Snapshot() []directory.UserRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return directory.CloneRecords(c.snapshot)
}

// Replace swaps the roster for a copy of records.
func (c *Cache) Replace(records []directory.UserRecord) {
	next := directory.CloneRecords(records)
	if next == nil {
		next = []directory.UserRecord{}
	}

	c.mu.Lock()
	c.snapshot = next
	c.fetchedAt = time.Now()
	c.loaded = true
	c.mu.Unlock()
}

// Refresh re-fetches the whole directory and replaces the roster. On failure
// the current roster is left untouched.
func (c *Cache) Refresh(ctx context.Context) error {
	if c.source == nil {
		return fmt.Errorf("roster refresh: no source configured")
	}
	records, err := c.source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("roster refresh: %w", err)
	}
	c.Replace(records)
	return nil
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshot)
}

// Loaded reports whether at least one fetch has completed.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// FetchedAt returns when the roster was last replaced.
func (c *Cache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}
