// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/staranto/photoctl/internal/metrics"
	"github.com/staranto/photoctl/internal/result"
	"github.com/staranto/photoctl/internal/store"
)

const (
	// TTL is how long an entry stays valid after it was stored.
	TTL = 24 * time.Hour

	// SlotName names the durable slot holding the serialized cache.
	SlotName = "photo-result-cache"
)

// Entry is a cached analysis result. Timestamp is unix milliseconds.
type Entry struct {
	Hash      string                  `json:"hash"`
	Result    result.ProcessingResult `json:"result"`
	Timestamp int64                   `json:"timestamp"`
}

// StoredAt returns the entry timestamp as a time.Time.
func (e Entry) StoredAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Pending is one element of a StoreMany batch.
type Pending struct {
	Hash   string
	Result result.ProcessingResult
}

// Stats is read-only introspection. ApproximateSize is the length of the
// payload a durable write would produce right now.
type Stats struct {
	Count           int `json:"count" yaml:"count"`
	ApproximateSize int `json:"approximateSize" yaml:"approximateSize"`
}

// Cache maps content fingerprints to analysis results.
//
// Every operation, durable write included, runs under one mutex, so the
// cache is the single owner of both the map and the slot. A lookup that
// evicts an expired entry and a store for the same hash can never interleave.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
	slot    store.Slot
	now     func() time.Time
	metrics *metrics.CacheMetrics
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics records activity on m.
func WithMetrics(m *metrics.CacheMetrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New reads the slot once and drops every entry already past the TTL. An
// absent, unreadable or corrupt slot yields an empty cache. A nil slot keeps
// the cache in memory only.
func New(ctx context.Context, slot store.Slot, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		slot:    slot,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.load(ctx)
	return c
}

func (c *Cache) load(ctx context.Context) {
	if c.slot == nil {
		return
	}

	b, err := c.slot.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		log.Debugf("cache slot %s is empty", c.slot)
		return
	}
	if err != nil {
		log.WithError(err).Warnf("failed to read cache slot %s, starting empty", c.slot)
		return
	}

	entries, err := decode(b)
	if err != nil {
		log.WithError(err).Warnf("corrupt cache slot %s, starting empty", c.slot)
		return
	}

	c.entries = entries
	dropped := c.compactLocked()
	log.Debugf("loaded %d cache entries from %s (%d expired)", len(c.entries), c.slot, dropped)
	c.metrics.SetEntries(len(c.entries))
}

// Lookup returns the cached result when an entry exists and is younger than
// the TTL. An expired entry is evicted from memory as a side effect; the
// slot keeps it until the next write.
func (c *Cache) Lookup(hash string) (result.ProcessingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[hash]
	if !ok {
		c.metrics.Miss()
		return result.ProcessingResult{}, false
	}

	if c.expired(e) {
		delete(c.entries, hash)
		log.Debugf("cache entry %s expired", hash)
		c.metrics.Expire(1)
		c.metrics.Miss()
		c.metrics.SetEntries(len(c.entries))
		return result.ProcessingResult{}, false
	}

	log.Debugf("cache hit: %s", hash)
	c.metrics.Hit()
	return e.Result, true
}

// Store upserts the entry for hash stamped with the current time and writes
// the whole cache to the slot.
func (c *Cache) Store(ctx context.Context, hash string, r result.ProcessingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.putLocked(hash, r)
	c.persistLocked(ctx)
}

// StoreMany upserts every entry and writes the slot once at the end. An
// empty batch writes nothing.
func (c *Cache) StoreMany(ctx context.Context, batch []Pending) {
	if len(batch) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range batch {
		c.putLocked(p.Hash, p.Result)
	}
	c.persistLocked(ctx)
}

// Evict removes the entry for hash. Removing an absent hash does not touch
// the slot.
func (c *Cache) Evict(ctx context.Context, hash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[hash]; !ok {
		return false
	}
	delete(c.entries, hash)
	c.persistLocked(ctx)
	return true
}

// Clear drops every entry and removes the slot itself rather than writing
// an empty payload.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
	c.metrics.SetEntries(0)
	if c.slot == nil {
		return
	}
	if err := c.slot.Remove(ctx); err != nil {
		log.WithError(err).Warnf("failed to remove cache slot %s", c.slot)
	}
}

// Stats reports the live entry count and the approximate serialized size.
// Expired entries are dropped from memory first, like Lookup does; the slot
// catches up on the next write.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := c.compactLocked(); n > 0 {
		log.Debugf("dropped %d expired cache entries", n)
		c.metrics.SetEntries(len(c.entries))
	}

	payload, err := encode(c.entries)
	if err != nil {
		log.WithError(err).Warn("failed to size cache payload")
	}
	return Stats{Count: len(c.entries), ApproximateSize: len(payload)}
}

func (c *Cache) putLocked(hash string, r result.ProcessingResult) {
	c.entries[hash] = Entry{
		Hash:      hash,
		Result:    r,
		Timestamp: c.now().UnixMilli(),
	}
}

// persistLocked compacts expired entries and serializes the full map to the
// slot. Failures are logged; the in-memory map is already updated and stays
// authoritative for the rest of the process.
func (c *Cache) persistLocked(ctx context.Context) {
	c.compactLocked()
	c.metrics.SetEntries(len(c.entries))

	if c.slot == nil {
		return
	}

	payload, err := encode(c.entries)
	if err != nil {
		log.WithError(err).Warn("failed to serialize cache")
		c.metrics.Write(err)
		return
	}

	err = c.slot.Save(ctx, payload)
	c.metrics.Write(err)
	if err != nil {
		log.WithError(err).Warnf("failed to write cache slot %s, keeping memory only", c.slot)
	}
}

func (c *Cache) compactLocked() int {
	dropped := 0
	for h, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, h)
			dropped++
		}
	}
	c.metrics.Expire(dropped)
	return dropped
}

func (c *Cache) expired(e Entry) bool {
	return c.now().Sub(e.StoredAt()) >= TTL
}
