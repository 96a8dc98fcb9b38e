// Package cache stores transform results keyed by source content and
// capability level, so unchanged files skip the engine entirely on repeat
// runs. The in-memory shape is an LRU with a doubly-linked recency list;
// persistence is msgpack at .esfix/cache.msgpack.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/esfix/esfix/pkg/engine"
)

// DefaultPath is the on-disk location relative to the working directory.
const DefaultPath = ".esfix/cache.msgpack"

// Key derives the cache key for one file's content at one level.
func Key(content []byte, level engine.Level) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]) + ":" + level.String()
}

// Entry is one cached transform outcome.
type Entry struct {
	Key        string          `msgpack:"key"`
	Code       string          `msgpack:"code"`
	Modified   bool            `msgpack:"modified"`
	Changes    []engine.Change `msgpack:"changes"`
	AccessedAt time.Time       `msgpack:"accessed_at"`
	CreatedAt  time.Time       `msgpack:"created_at"`
}

// Result is the cached portion of a transform outcome.
type Result struct {
	Code     string
	Modified bool
	Changes  []engine.Change
}

// listItem is an item in the doubly-linked recency list.
type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

// lruList keeps the most recently used item at the front.
type lruList struct {
	head *listItem
	tail *listItem
	len  int
}

func (l *lruList) moveToFront(item *listItem) {
	if item == l.head {
		return
	}
	if item.prev != nil {
		item.prev.next = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	}
	if item == l.tail {
		l.tail = item.prev
	}
	item.prev = nil
	item.next = l.head
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
}

func (l *lruList) removeBack() *listItem {
	if l.tail == nil {
		return nil
	}
	item := l.tail
	l.tail = item.prev
	if l.tail != nil {
		l.tail.next = nil
	} else {
		l.head = nil
	}
	l.len--
	return item
}

func (l *lruList) pushFront(item *listItem) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

// Options configures the cache.
type Options struct {
	// MaxEntries is the maximum number of cached results. 0 means
	// unlimited.
	MaxEntries int
}

// Cache is a concurrency-safe LRU of transform results.
type Cache struct {
	mu         sync.Mutex
	items      map[string]*listItem
	lru        *lruList
	maxEntries int
}

// New creates a cache with the given options.
func New(opts Options) *Cache {
	return &Cache{
		items:      make(map[string]*listItem),
		lru:        &lruList{},
		maxEntries: opts.MaxEntries,
	}
}

// Get retrieves a cached result and refreshes its recency.
func (c *Cache) Get(key string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}
	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	return &Result{Code: item.Code, Modified: item.Modified, Changes: item.Changes}, true
}

// Set stores a transform result, evicting the least recently used entries
// past the size limit.
func (c *Cache) Set(key string, res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[key]; exists {
		item.Code = res.Code
		item.Modified = res.Modified
		item.Changes = res.Changes
		item.AccessedAt = time.Now()
		c.lru.moveToFront(item)
		return
	}

	now := time.Now()
	item := &listItem{Entry: Entry{
		Key: key, Code: res.Code, Modified: res.Modified, Changes: res.Changes,
		AccessedAt: now, CreatedAt: now,
	}}
	c.items[key] = item
	c.lru.pushFront(item)

	for c.maxEntries > 0 && c.lru.len > c.maxEntries {
		evicted := c.lru.removeBack()
		if evicted == nil {
			break
		}
		delete(c.items, evicted.Key)
	}
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*listItem)
	c.lru = &lruList{}
}

// Save persists the cache to a writer using msgpack, least recently used
// first so Load rebuilds the same recency order.
func (c *Cache) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, 0, len(c.items))
	for item := c.lru.tail; item != nil; item = item.prev {
		entries = append(entries, item.Entry)
	}
	return msgpack.NewEncoder(w).Encode(entries)
}

// Load restores the cache from a reader, replacing current contents.
func (c *Cache) Load(r io.Reader) error {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*listItem)
	c.lru = &lruList{}
	for i := range entries {
		entry := entries[i]
		if _, dup := c.items[entry.Key]; dup {
			continue
		}
		item := &listItem{Entry: entry}
		c.items[entry.Key] = item
		c.lru.pushFront(item)
	}
	return nil
}

// PersistToFile saves the cache to path, creating parent directories.
func PersistToFile(c *Cache, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()
	return c.Save(f)
}

// LoadFromFile loads the cache from path. A missing file is not an error.
func LoadFromFile(c *Cache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}
