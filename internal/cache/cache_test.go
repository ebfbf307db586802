// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/photoctl/internal/metrics"
	"github.com/staranto/photoctl/internal/result"
	"github.com/staranto/photoctl/internal/store"
)

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// brokenSlot fails every operation.
type brokenSlot struct{ saves int }

var errBroken = errors.New("quota exceeded")

func (b *brokenSlot) Load(context.Context) ([]byte, error) { return nil, errBroken }
func (b *brokenSlot) Save(context.Context, []byte) error { b.saves++; return errBroken }
func (b *brokenSlot) Remove(context.Context) error { return errBroken }
func (b *brokenSlot) Close() error { return nil }
func (b *brokenSlot) String() string { return "broken:" }

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sample(name string) result.ProcessingResult {
	return result.ProcessingResult{
		Filename:   name,
		Status:     result.StatusSuccess,
		Disciplina: "Drenagem",
		Confidence: result.Float(0.92),
	}
}

func TestTTLBoundary(t *testing.T) {
	clk := &clock{t: t0}
	c := New(context.Background(), store.NewMemory(), WithClock(clk.now))
	c.Store(context.Background(), "abc", sample("a.jpg"))

	clk.set(t0.Add(TTL - time.Millisecond))
	got, ok := c.Lookup("abc")
	require.True(t, ok, "entry should still be live just before the TTL")
	assert.Equal(t, "a.jpg", got.Filename)

	clk.set(t0.Add(TTL + time.Millisecond))
	_, ok = c.Lookup("abc")
	assert.False(t, ok, "entry should be gone just after the TTL")
}

func TestLookup_LazyEvictionLeavesSlotUntilNextWrite(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: t0}
	slot := store.NewMemory()
	c := New(ctx, slot, WithClock(clk.now))

	c.Store(ctx, "old", sample("old.jpg"))
	clk.set(t0.Add(TTL))

	_, ok := c.Lookup("old")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Count, "expired entry evicted from memory")
	assert.Equal(t, 1, slot.Saves(), "lookup does not write")

	payload, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"old"`, "slot keeps the entry until the next write")

	c.Store(ctx, "new", sample("new.jpg"))
	payload, err = slot.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), `"old"`)
	assert.Contains(t, string(payload), `"new"`)
}

func TestStore_Overwrites(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, store.NewMemory())

	c.Store(ctx, "h", sample("first.jpg"))
	c.Store(ctx, "h", sample("second.jpg"))

	got, ok := c.Lookup("h")
	require.True(t, ok)
	assert.Equal(t, "second.jpg", got.Filename)
	assert.Equal(t, 1, c.Stats().Count)
}

func TestStore_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemory()

	New(ctx, slot).Store(ctx, "h", sample("a.jpg"))

	reloaded := New(ctx, slot)
	got, ok := reloaded.Lookup("h")
	require.True(t, ok)
	assert.Equal(t, sample("a.jpg"), got)
}

func TestStoreMany_SingleWrite(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemory()
	c := New(ctx, slot)

	c.StoreMany(ctx, []Pending{
		{Hash: "a", Result: sample("a.jpg")},
		{Hash: "b", Result: sample("b.jpg")},
		{Hash: "c", Result: sample("c.jpg")},
	})
	assert.Equal(t, 1, slot.Saves())
	assert.Equal(t, 3, c.Stats().Count)

	c.StoreMany(ctx, nil)
	assert.Equal(t, 1, slot.Saves(), "empty batch writes nothing")
}

func TestNew_DropsExpiredOnLoad(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemory()
	clk := &clock{t: t0}

	c := New(ctx, slot, WithClock(clk.now))
	c.Store(ctx, "stale", sample("stale.jpg"))
	clk.set(t0.Add(12 * time.Hour))
	c.Store(ctx, "fresh", sample("fresh.jpg"))

	clk.set(t0.Add(30 * time.Hour))
	reloaded := New(ctx, slot, WithClock(clk.now))
	assert.Equal(t, 1, reloaded.Stats().Count)
	_, ok := reloaded.Lookup("fresh")
	assert.True(t, ok)
}

func TestNew_CorruptSlotIsEmpty(t *testing.T) {
	payloads := []string{
		`not json`,
		`{"a": 1}`,
		`[["only-hash"]]`,
		`[[1, {}]]`,
		`[["h", "not an entry"]]`,
		`[["", {}]]`,
	}
	for _, p := range payloads {
		t.Run(p, func(t *testing.T) {
			ctx := context.Background()
			slot := store.NewMemory()
			require.NoError(t, slot.Save(ctx, []byte(p)))

			c := New(ctx, slot)
			assert.Equal(t, 0, c.Stats().Count)
		})
	}
}

func TestBrokenSlot_DegradesToMemory(t *testing.T) {
	ctx := context.Background()
	slot := &brokenSlot{}
	m := metrics.NewCacheMetrics()
	c := New(ctx, slot, WithMetrics(m))

	c.Store(ctx, "h", sample("a.jpg"))
	got, ok := c.Lookup("h")
	require.True(t, ok)
	assert.Equal(t, "a.jpg", got.Filename)
	assert.Equal(t, 1, slot.saves)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WriteFailures))

	assert.NotPanics(t, func() { c.Clear(ctx) })
	assert.Equal(t, 0, c.Stats().Count)
}

func TestEvict(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemory()
	c := New(ctx, slot)
	c.Store(ctx, "h", sample("a.jpg"))

	assert.False(t, c.Evict(ctx, "missing"))
	assert.Equal(t, 1, slot.Saves())

	assert.True(t, c.Evict(ctx, "h"))
	_, ok := c.Lookup("h")
	assert.False(t, ok)
	assert.Equal(t, 2, slot.Saves())
}

func TestClear_RemovesSlot(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemory()
	c := New(ctx, slot)
	c.Store(ctx, "h", sample("a.jpg"))

	c.Clear(ctx)
	assert.Equal(t, 0, c.Stats().Count)
	_, err := slot.Load(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStats_SizeMatchesPayload(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemory()
	c := New(ctx, slot)
	c.Store(ctx, "a", sample("a.jpg"))
	c.Store(ctx, "b", sample("b.jpg"))

	payload, err := slot.Load(ctx)
	require.NoError(t, err)

	st := c.Stats()
	assert.Equal(t, 2, st.Count)
	assert.Equal(t, len(payload), st.ApproximateSize)
}

func TestStats_IgnoresExpiredEntries(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemory()
	clk := &clock{t: t0}
	c := New(ctx, slot, WithClock(clk.now))
	c.Store(ctx, "old", sample("old.jpg"))

	clk.set(t0.Add(TTL - time.Hour))
	c.Store(ctx, "new", sample("new.jpg"))
	saves := slot.Saves()

	clk.set(t0.Add(TTL))
	st := c.Stats()
	assert.Equal(t, 1, st.Count)

	payload, err := encode(map[string]Entry{"new": {Hash: "new", Result: sample("new.jpg"), Timestamp: t0.Add(TTL - time.Hour).UnixMilli()}})
	require.NoError(t, err)
	assert.Equal(t, len(payload), st.ApproximateSize)
	assert.Equal(t, saves, slot.Saves(), "stats never writes the slot")

	_, ok := c.Lookup("old")
	assert.False(t, ok)
}

func TestPayloadIsArrayOfPairs(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemory()
	clk := &clock{t: t0}
	c := New(ctx, slot, WithClock(clk.now))
	c.Store(ctx, "h1", sample("a.jpg"))

	payload, err := slot.Load(ctx)
	require.NoError(t, err)

	var pairs [][]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &pairs))
	require.Len(t, pairs, 1)
	require.Len(t, pairs[0], 2)
	assert.JSONEq(t, `"h1"`, string(pairs[0][0]))

	var e Entry
	require.NoError(t, json.Unmarshal(pairs[0][1], &e))
	assert.Equal(t, "h1", e.Hash)
	assert.Equal(t, t0.UnixMilli(), e.Timestamp)
	assert.Equal(t, t0, e.StoredAt().UTC())
}

func TestConcurrentStores(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemory()
	c := New(ctx, slot)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Store(ctx, fmt.Sprintf("h%02d", i), sample(fmt.Sprintf("%d.jpg", i)))
		}(i)
	}
	wg.Wait()

	reloaded := New(ctx, slot)
	assert.Equal(t, 20, reloaded.Stats().Count, "every write serializes the full map")
}

func TestNilSlot(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, nil)
	c.Store(ctx, "h", sample("a.jpg"))
	_, ok := c.Lookup("h")
	assert.True(t, ok)
	c.Clear(ctx)
	assert.Equal(t, 0, c.Stats().Count)
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	m := metrics.NewCacheMetrics()
	c := New(ctx, store.NewMemory(), WithMetrics(m))

	c.Store(ctx, "h", sample("a.jpg"))
	c.Lookup("h")
	c.Lookup("nope")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Misses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Writes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Entries))
}
