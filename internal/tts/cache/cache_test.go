package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestCache(t *testing.T, capacity int) *Cache {
	t.Helper()
	c, err := New(Config{Dir: t.TempDir(), Capacity: capacity})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return c
}

func TestGenerateKey(t *testing.T) {
	a := GenerateKey("你好", "ling", "happy")
	if a != GenerateKey("你好", "ling", "happy") {
		t.Fatalf("key is not stable across calls")
	}

	// every input dimension must change the key
	variants := []string{
		GenerateKey("你好嗎", "ling", "happy"),
		GenerateKey("你好", "rin", "happy"),
		GenerateKey("你好", "ling", "excited"),
	}
	for i, v := range variants {
		if v == a {
			t.Fatalf("variant %d collided with base key", i)
		}
	}
}

func TestStoreAndGet(t *testing.T) {
	c := newTestCache(t, 10)
	key := GenerateKey("hello", "rin", "neutral")
	payload := []byte("audio-bytes")

	if _, hit, err := c.Get(key); err != nil || hit {
		t.Fatalf("expected clean miss, got hit=%v err=%v", hit, err)
	}

	if err := c.Store(key, payload); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	data, hit, err := c.Get(key)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if string(data) != string(payload) {
		t.Fatalf("payload got=%q want=%q", data, payload)
	}

	stats := c.Stats()
	if stats.Misses != 1 || stats.Hits != 1 || stats.DiskWrites != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestGetBackfillsFromDisk(t *testing.T) {
	dir := t.TempDir()
	c, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	key := GenerateKey("persisted", "ling", "calm")
	if err := c.Store(key, []byte("x")); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	// a fresh instance over the same dir starts with a cold memory tier
	c2, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("failed to reopen cache: %v", err)
	}
	if _, hit, err := c2.Get(key); err != nil || !hit {
		t.Fatalf("expected disk hit, got hit=%v err=%v", hit, err)
	}
	if got := c2.Stats().DiskReads; got != 1 {
		t.Fatalf("disk reads got=%d want=1", got)
	}
	// second read comes from memory
	if _, hit, _ := c2.Get(key); !hit {
		t.Fatalf("expected memory hit after backfill")
	}
	if got := c2.Stats().DiskReads; got != 1 {
		t.Fatalf("disk reads after backfill got=%d want=1", got)
	}
}

func TestLRUEvictionKeepsDisk(t *testing.T) {
	c := newTestCache(t, 2)
	keys := []string{
		GenerateKey("a", "ling", "neutral"),
		GenerateKey("b", "ling", "neutral"),
		GenerateKey("c", "ling", "neutral"),
	}
	for _, k := range keys {
		if err := c.Store(k, []byte(k)); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}

	// oldest fell out of memory but must still hit through disk
	data, hit, err := c.Get(keys[0])
	if err != nil || !hit {
		t.Fatalf("expected disk hit for evicted key, got hit=%v err=%v", hit, err)
	}
	if string(data) != keys[0] {
		t.Fatalf("payload got=%q want=%q", data, keys[0])
	}
	if got := c.Stats().DiskReads; got != 1 {
		t.Fatalf("disk reads got=%d want=1", got)
	}
}

func TestDeleteRemovesBothTiers(t *testing.T) {
	c := newTestCache(t, 10)
	key := GenerateKey("gone", "rin", "sad")
	if err := c.Store(key, []byte("x")); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if c.Has(key) {
		t.Fatalf("key survives delete")
	}
	if _, err := os.Stat(filepath.Join(c.Dir(), key+".mp3")); !os.IsNotExist(err) {
		t.Fatalf("file survives delete: %v", err)
	}
	// deleting again is a no-op
	if err := c.Delete(key); err != nil {
		t.Fatalf("second delete errored: %v", err)
	}
}

func TestCleanOldEntries(t *testing.T) {
	c := newTestCache(t, 10)
	key := GenerateKey("old", "ling", "neutral")
	if err := c.Store(key, []byte("x")); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	// zero max age makes every entry stale
	removed, err := c.CleanOldEntries(0)
	if err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed got=%d want=1", removed)
	}
	if c.Has(key) {
		t.Fatalf("entry survives clean in some tier")
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t, 10)
	for _, text := range []string{"a", "b", "c"} {
		if err := c.Store(GenerateKey(text, "x", "neutral"), []byte(text)); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	files, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("cache dir not empty after clear: %d files", len(files))
	}
}

func TestURLFor(t *testing.T) {
	c, err := New(Config{Dir: t.TempDir(), BaseURL: "/cache/"})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	key := GenerateKey("u", "ling", "neutral")
	want := "/cache/" + key + ".mp3"
	if got := c.URLFor(key); got != want {
		t.Fatalf("url got=%q want=%q", got, want)
	}
}

func TestHitRate(t *testing.T) {
	var s Stats
	if s.HitRate() != 0 {
		t.Fatalf("empty stats hit rate got=%v want=0", s.HitRate())
	}
	s = Stats{Hits: 3, Misses: 1}
	if got := s.HitRate(); got != 0.75 {
		t.Fatalf("hit rate got=%v want=0.75", got)
	}
}
