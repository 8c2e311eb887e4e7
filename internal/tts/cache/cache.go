package cache

import (
	"container/list"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry is one cached audio artifact. Only LastAccessed mutates after create.
type Entry struct {
	Key          string
	Data         []byte
	Size         int64
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Stats are cumulative counters for cache behavior.
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	DiskReads  int64 `json:"disk_reads"`
	DiskWrites int64 `json:"disk_writes"`
}

// HitRate is hits over total lookups, 0 when nothing was looked up yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

const defaultCapacity = 100

// Cache is the two-tier audio store: a capacity-bounded in-memory LRU in
// front of one-file-per-key persisted storage. The filename is the sole
// source of truth for the key; listing the directory enumerates entries.
//
// The LRU is guarded by a mutex: the original design relied on cooperative
// single-threaded scheduling, and true goroutines need the lock to keep the
// map and recency list coherent.
type Cache struct {
	dir      string
	ext      string
	baseURL  string
	capacity int

	mu    sync.Mutex
	ll    *list.List // front = most recently used
	items map[string]*list.Element
	stats Stats

	log *logrus.Entry
}

// Config for a cache instance.
type Config struct {
	Dir      string
	Ext      string // audio file extension including dot, default ".mp3"
	BaseURL  string // public URL prefix for cached files, default "/cache"
	Capacity int    // memory tier size, default 100
}

func New(cfg Config) (*Cache, error) {
	if cfg.Ext == "" {
		cfg.Ext = ".mp3"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "/cache"
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultCapacity
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Cache{
		dir:      cfg.Dir,
		ext:      cfg.Ext,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		capacity: cfg.Capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		log:      logrus.WithField("component", "audiocache"),
	}, nil
}

// GenerateKey derives the content address for one synthesis. It is a pure
// function of its inputs — no salt, no timestamp — so the same line hits the
// same entry across process restarts.
func GenerateKey(text, characterID string, emotion string) string {
	sum := md5.Sum([]byte(text + ":" + characterID + ":" + emotion))
	return fmt.Sprintf("%x", sum)
}

// Get looks a key up memory-first, then disk. A disk hit back-fills the
// memory tier. A missing file is a normal miss, never an error.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		entry := el.Value.(*Entry)
		entry.LastAccessed = time.Now()
		c.stats.Hits++
		data := entry.Data
		c.mu.Unlock()
		return data, true, nil
	}
	c.mu.Unlock()

	data, err := os.ReadFile(c.pathFor(key))
	if os.IsNotExist(err) {
		c.mu.Lock()
		c.stats.Misses++
		c.mu.Unlock()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	c.mu.Lock()
	c.stats.DiskReads++
	c.stats.Hits++
	c.insertLocked(key, data)
	c.mu.Unlock()
	return data, true, nil
}

// Store persists bytes and refreshes the memory tier. Write failures
// propagate: a silently lost write costs a redundant synthesis later.
func (c *Cache) Store(key string, data []byte) error {
	path := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}

	c.mu.Lock()
	c.stats.DiskWrites++
	c.insertLocked(key, data)
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"key":  key,
		"size": len(data),
	}).Debug("stored cache entry")
	return nil
}

// Has reports whether either tier holds the key.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	_, ok := c.items[key]
	c.mu.Unlock()
	if ok {
		return true
	}
	_, err := os.Stat(c.pathFor(key))
	return err == nil
}

// Delete removes a key from both tiers.
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
	c.mu.Unlock()

	if err := os.Remove(c.pathFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

// Clear empties both tiers.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.ll = list.New()
	c.items = make(map[string]*list.Element)
	c.mu.Unlock()

	files, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to list cache dir: %w", err)
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), c.ext) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, f.Name())); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}
	c.log.Info("cleared audio cache")
	return nil
}

// CleanOldEntries removes entries whose files are older than maxAgeDays by
// modification time. Matching memory entries are purged too so the tiers
// never diverge.
func (c *Cache) CleanOldEntries(maxAgeDays int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)

	files, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache dir: %w", err)
	}

	removed := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), c.ext) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		key := strings.TrimSuffix(f.Name(), c.ext)
		if err := c.Delete(key); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		c.log.WithFields(logrus.Fields{
			"removed":      removed,
			"max_age_days": maxAgeDays,
		}).Info("swept old cache entries")
	}
	return removed, nil
}

// URLFor maps a key to its public URL.
func (c *Cache) URLFor(key string) string {
	return c.baseURL + "/" + key + c.ext
}

// Dir returns the persisted-storage directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Stats returns a snapshot of the cumulative counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// ResetStats zeroes the counters.
func (c *Cache) ResetStats() {
	c.mu.Lock()
	c.stats = Stats{}
	c.mu.Unlock()
}

func (c *Cache) pathFor(key string) string {
	return filepath.Join(c.dir, key+c.ext)
}

// insertLocked adds or refreshes a memory entry and evicts past capacity.
// Eviction never touches persisted storage. Caller holds c.mu.
func (c *Cache) insertLocked(key string, data []byte) {
	now := time.Now()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		entry := el.Value.(*Entry)
		entry.Data = data
		entry.Size = int64(len(data))
		entry.LastAccessed = now
		return
	}

	el := c.ll.PushFront(&Entry{
		Key:          key,
		Data:         data,
		Size:         int64(len(data)),
		CreatedAt:    now,
		LastAccessed: now,
	})
	c.items[key] = el

	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*Entry).Key)
	}
}
