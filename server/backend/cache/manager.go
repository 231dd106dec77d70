/*
 * Copyright 2026 The Scribe Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cache provides cache management for Scribe backend.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/scribe-team/scribe/pkg/document"
)

// DefaultSnapshotCacheSize is the default number of documents whose latest
// snapshot is kept in memory.
const DefaultSnapshotCacheSize = 1000

// Stats holds cache statistics.
type Stats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// Hits returns the number of cache hits.
func (s *Stats) Hits() int64 {
	return s.hits.Load()
}

// Misses returns the number of cache misses.
func (s *Stats) Misses() int64 {
	return s.misses.Load()
}

// HitRate returns the cache hit rate as a percentage (0-100).
func (s *Stats) HitRate() float64 {
	total := s.Hits() + s.Misses()
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits()) / float64(total) * 100.0
}

// SnapshotCache keeps the latest snapshot of recently used documents so
// that loading a document replays only the operations after it.
type SnapshotCache struct {
	cache *lru.Cache[string, document.Snapshot]
	stats Stats
}

// NewSnapshotCache creates a snapshot cache holding up to size documents.
func NewSnapshotCache(size int) (*SnapshotCache, error) {
	c, err := lru.New[string, document.Snapshot](size)
	if err != nil {
		return nil, err
	}

	return &SnapshotCache{cache: c}, nil
}

// Get returns the cached snapshot of the given document.
func (c *SnapshotCache) Get(docID string) (document.Snapshot, bool) {
	snapshot, ok := c.cache.Get(docID)
	if ok {
		c.stats.hits.Add(1)
	} else {
		c.stats.misses.Add(1)
	}
	return snapshot, ok
}

// Add caches the given snapshot unless a newer one is already cached. It
// returns whether the snapshot was stored.
func (c *SnapshotCache) Add(snapshot document.Snapshot) bool {
	if cached, ok := c.cache.Peek(snapshot.DocumentID); ok && cached.Version >= snapshot.Version {
		return false
	}

	c.cache.Add(snapshot.DocumentID, snapshot)
	return true
}

// Remove drops the snapshot of the given document.
func (c *SnapshotCache) Remove(docID string) {
	c.cache.Remove(docID)
}

// Len returns the number of cached snapshots.
func (c *SnapshotCache) Len() int {
	return c.cache.Len()
}

// Stats returns the cache statistics.
func (c *SnapshotCache) Stats() *Stats {
	return &c.stats
}

// Manager manages all caches used in the backend.
type Manager struct {
	// Snapshot is used to cache the latest snapshot of documents.
	Snapshot *SnapshotCache
}

// Options contains configuration for cache manager.
type Options struct {
	SnapshotCacheSize int
}

// New creates a new cache manager.
func New(opts Options) (*Manager, error) {
	size := opts.SnapshotCacheSize
	if size <= 0 {
		size = DefaultSnapshotCacheSize
	}

	snapshotCache, err := NewSnapshotCache(size)
	if err != nil {
		return nil, err
	}

	return &Manager{
		Snapshot: snapshotCache,
	}, nil
}
