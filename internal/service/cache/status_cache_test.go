package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
)

type memoryBackend struct {
	mu     sync.Mutex
	values map[string]string
	writes int
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{values: make(map[string]string)}
}

func (b *memoryBackend) GetValue(key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[key]
	if !ok {
		return "", fmt.Errorf("not found: %s", key)
	}
	return v, nil
}

func (b *memoryBackend) SetValue(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
	b.writes++
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var alert1 = model.ReportClassification{Status: model.StatusAlert, HighConsumptionUnitsCount: 1}

func TestStatusCache_GetPut(t *testing.T) {
	t.Parallel()

	c := Open(newMemoryBackend(), Options{})
	if _, ok := c.Get("f1", ""); ok {
		t.Fatalf("empty cache should miss")
	}
	c.Put("f1", alert1, "2025-10-01T00:00:00Z")
	got, ok := c.Get("f1", "2025-10-01T00:00:00Z")
	if !ok || got != alert1 {
		t.Fatalf("Get=%+v,%v want %+v,true", got, ok, alert1)
	}
}

func TestStatusCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)}
	c := Open(newMemoryBackend(), Options{Now: clock.Now})
	c.Put("f1", alert1, "")

	clock.Advance(5*time.Hour + 59*time.Minute)
	if _, ok := c.Get("f1", ""); !ok {
		t.Fatalf("entry within TTL should hit")
	}

	clock.Advance(2 * time.Minute)
	if _, ok := c.Get("f1", ""); ok {
		t.Fatalf("entry older than TTL should miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be removed, Len=%d", c.Len())
	}
}

func TestStatusCache_ModifiedTimeMismatch(t *testing.T) {
	t.Parallel()

	c := Open(newMemoryBackend(), Options{})
	c.Put("f1", alert1, "v1")

	if _, ok := c.Get("f1", "v2"); ok {
		t.Fatalf("changed modification time should miss")
	}
	if c.Len() != 0 {
		t.Fatalf("stale entry should be removed, Len=%d", c.Len())
	}
	if _, ok := c.Get("f1", ""); ok {
		t.Fatalf("stale entry served to reader without modification time")
	}
	if _, ok := c.Get("f1", "v1"); ok {
		t.Fatalf("stale entry served to reader with old modification time")
	}

	// 删除需要写回快照
	reopened := Open(c.backend, Options{})
	if reopened.Len() != 0 {
		t.Fatalf("persisted snapshot still holds stale entry, Len=%d", reopened.Len())
	}

	c.Put("f2", alert1, "")
	if _, ok := c.Get("f2", "v9"); !ok {
		t.Fatalf("entry written without modification time should hit")
	}
}

func TestStatusCache_CapacityEviction(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)}
	c := Open(newMemoryBackend(), Options{Now: clock.Now})
	for i := 0; i < DefaultMaxEntries; i++ {
		c.Put(fmt.Sprintf("f%04d", i), alert1, "")
		clock.Advance(time.Millisecond)
	}
	if c.Len() != DefaultMaxEntries {
		t.Fatalf("Len=%d, want %d", c.Len(), DefaultMaxEntries)
	}

	c.Put("new", alert1, "")
	if got, want := c.Len(), 801; got != want {
		t.Fatalf("Len after overflow=%d, want %d", got, want)
	}
	if _, ok := c.Get("f0000", ""); ok {
		t.Fatalf("oldest entry should be evicted")
	}
	if _, ok := c.Get("f0199", ""); ok {
		t.Fatalf("entry f0199 should be evicted")
	}
	if _, ok := c.Get("f0200", ""); !ok {
		t.Fatalf("entry f0200 should survive")
	}
	if _, ok := c.Get("new", ""); !ok {
		t.Fatalf("new entry should be present")
	}
}

func TestStatusCache_OverwriteDoesNotEvict(t *testing.T) {
	t.Parallel()

	c := Open(newMemoryBackend(), Options{MaxEntries: 2})
	c.Put("a", alert1, "")
	c.Put("b", alert1, "")
	c.Put("b", model.ReportClassification{Status: model.StatusError, HighConsumptionUnitsCount: 4}, "")
	if c.Len() != 2 {
		t.Fatalf("Len=%d, want 2", c.Len())
	}
}

func TestStatusCache_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()

	backend := newMemoryBackend()
	c := Open(backend, Options{})
	c.Put("f1", alert1, "v1")
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := Open(backend, Options{})
	got, ok := reopened.Get("f1", "v1")
	if !ok || got != alert1 {
		t.Fatalf("reopened Get=%+v,%v want %+v,true", got, ok, alert1)
	}
}

func TestStatusCache_CorruptedSnapshotIsDiscarded(t *testing.T) {
	t.Parallel()

	backend := newMemoryBackend()
	backend.values[StorageKey] = "{not json"

	c := Open(backend, Options{})
	if c.Len() != 0 {
		t.Fatalf("Len=%d, want 0", c.Len())
	}
	if backend.values[StorageKey] != "{}" {
		t.Fatalf("corrupted snapshot should be overwritten, got %q", backend.values[StorageKey])
	}
	c.Put("f1", alert1, "")
	if _, ok := c.Get("f1", ""); !ok {
		t.Fatalf("cache should work after discarding snapshot")
	}
}

func TestStatusCache_InvalidateAll(t *testing.T) {
	t.Parallel()

	c := Open(newMemoryBackend(), Options{})
	c.Put("f1", alert1, "")
	c.Put("f2", alert1, "")
	c.Invalidate("f1")
	if _, ok := c.Get("f1", ""); ok {
		t.Fatalf("invalidated entry should miss")
	}
	c.InvalidateAll()
	if c.Len() != 0 {
		t.Fatalf("Len=%d, want 0", c.Len())
	}
}

func TestStatusCache_ConcurrentPut(t *testing.T) {
	t.Parallel()

	c := Open(newMemoryBackend(), Options{})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Put(fmt.Sprintf("f%d", i%5), alert1, "")
		}(i)
	}
	wg.Wait()
	if c.Len() != 5 {
		t.Fatalf("Len=%d, want 5", c.Len())
	}
}
