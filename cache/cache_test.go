package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestCache_GetSet(t *testing.T) {
	c := New[string, int](3)

	c.Set("CIEL|v1", 1)
	c.Set("CIEL|v2", 2)

	if v, ok := c.Get("CIEL|v1"); !ok || v != 1 {
		t.Errorf("Get(CIEL|v1) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("LOINC|v1"); ok {
		t.Error("Get(LOINC|v1) should miss")
	}

	c.Set("CIEL|v1", 10)
	if v, _ := c.Get("CIEL|v1"); v != 10 {
		t.Errorf("Get(CIEL|v1) after update = %d; want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d; want 2", c.Len())
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("'b' should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("'a' should survive, it was used recently")
	}
	if got := c.Stats().Evicts; got != 1 {
		t.Errorf("Stats.Evicts = %d; want 1", got)
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New[string, int](3)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) should miss after Delete")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d; want 0", c.Len())
	}
}

func TestCache_TTL(t *testing.T) {
	clock := newFakeClock()
	c := New[string, string](10, WithTTL(time.Minute), WithClock(clock.Now))

	c.Set("k", "v")
	clock.Advance(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should be live before TTL")
	}

	clock.Advance(31 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should expire after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d; expired entry should be removed on access", c.Len())
	}
}

func TestCache_Stats(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Get("a")
	c.Get("c")

	stats := c.Stats()
	if stats.Size != 2 || stats.Capacity != 2 {
		t.Errorf("Stats size/capacity = %d/%d; want 2/2", stats.Size, stats.Capacity)
	}
	if stats.Hits != 2 || stats.Misses != 1 || stats.Sets != 2 {
		t.Errorf("Stats hits/misses/sets = %d/%d/%d; want 2/1/2", stats.Hits, stats.Misses, stats.Sets)
	}
	want := 2.0 / 3.0
	if stats.HitRate < want-0.01 || stats.HitRate > want+0.01 {
		t.Errorf("Stats.HitRate = %f; want ~%f", stats.HitRate, want)
	}
}

func TestCache_ZeroCapacity(t *testing.T) {
	c := New[int, int](0)
	for i := 0; i < DefaultCapacity; i++ {
		c.Set(i, i)
	}
	if c.Len() != DefaultCapacity {
		t.Errorf("Len() = %d; want %d", c.Len(), DefaultCapacity)
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int, int](100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Set(i, i*10)
		}(i)
		go func(i int) {
			defer wg.Done()
			c.Get(i)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		if v, ok := c.Get(i); ok && v != i*10 {
			t.Errorf("Get(%d) = %d; want %d", i, v, i*10)
		}
	}
}

func BenchmarkCache_Get(b *testing.B) {
	c := New[string, int](1000)
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("CIEL|%d", i)
		c.Set(keys[i], i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(keys[i%1000])
	}
}
