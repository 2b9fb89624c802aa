package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GmS-001/Law-Verdict/internal/scraper"
	"github.com/GmS-001/Law-Verdict/pkg/logger"
	"github.com/patrickmn/go-cache"
)

// ErrFull is returned when the live session limit is reached
var ErrFull = errors.New("too many live scrape sessions")

// Entry is one operator's scrape waiting for or running a CAPTCHA submission
type Entry struct {
	ID          string
	Session     scraper.Session
	Filters     scraper.Filters
	CaptchaPath string
	CreatedAt   time.Time

	// serializes operations on the session
	mu sync.Mutex
}

// Lock serializes work on the entry's browser tab
func (e *Entry) Lock() { e.mu.Lock() }

// Unlock releases the tab
func (e *Entry) Unlock() { e.mu.Unlock() }

// Cache is the session registry the scrape service works against
type Cache interface {
	Get(id string) (*Entry, bool)
	Set(e *Entry) error
	Touch(id string) bool
	Pin(id string) bool
	Delete(id string)
	Clear()
	Stats() CacheStats
}

type CacheStats struct {
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Size       int       `json:"size"`
	Evictions  int64     `json:"evictions"`
	LastAccess time.Time `json:"last_access"`
}

var _ Cache = (*SessionCache)(nil)

// SessionCache keeps live sessions and closes their tabs when they are
// deleted or sit idle past the TTL.
type SessionCache struct {
	cache     *cache.Cache
	mu        sync.RWMutex
	stats     CacheStats
	evictions atomic.Int64
	maxSize   int
	logger    *logger.Logger
}

func NewCache(maxSize int, ttl time.Duration, logger *logger.Logger) *SessionCache {
	c := &SessionCache{
		cache:   cache.New(ttl, ttl/2),
		maxSize: maxSize,
		logger:  logger,
	}
	c.cache.OnEvicted(c.evicted)
	return c
}

func (c *SessionCache) Get(id string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()

	if data, found := c.cache.Get(id); found {
		if entry, ok := data.(*Entry); ok {
			c.stats.Hits++
			return entry, true
		}
	}

	c.stats.Misses++
	return nil, false
}

// Set registers a new entry with the default TTL
func (c *SessionCache) Set(e *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && c.cache.ItemCount() >= c.maxSize {
		return ErrFull
	}

	c.cache.Set(e.ID, e, cache.DefaultExpiration)
	return nil
}

// Touch restarts the idle timer of an entry
func (c *SessionCache) Touch(id string) bool {
	return c.reset(id, cache.DefaultExpiration)
}

// Pin stops an entry from expiring while a long run uses it
func (c *SessionCache) Pin(id string) bool {
	return c.reset(id, cache.NoExpiration)
}

func (c *SessionCache) reset(id string, d time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, found := c.cache.Get(id)
	if !found {
		return false
	}
	// Replacing an item does not fire the eviction callback
	c.cache.Set(id, data, d)
	return true
}

// Delete removes the entry and closes its session
func (c *SessionCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(id)
}

// Clear closes every live session
func (c *SessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Items skips entries past their TTL that the janitor has not swept yet
	c.cache.DeleteExpired()
	items := c.cache.Items()
	c.cache.Flush()
	for id, item := range items {
		c.evicted(id, item.Object)
	}
	c.stats = CacheStats{}
}

func (c *SessionCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Size = c.cache.ItemCount()
	stats.Evictions = c.evictions.Load()
	return stats
}

// evicted is called by go-cache when an item is dropped. It must not take c.mu.
func (c *SessionCache) evicted(id string, value interface{}) {
	entry, ok := value.(*Entry)
	if !ok || entry.Session == nil {
		return
	}
	c.evictions.Add(1)

	if err := entry.Session.Close(); err != nil {
		c.logger.Warn("Failed to close scrape session", "session_id", id, "error", err)
		return
	}
	c.logger.Debug("Scrape session closed", "session_id", id)
}
