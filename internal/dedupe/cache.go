// ABOUTME: Thread-safe, per-target, TTL + size-bounded cache for notification dedup.
// ABOUTME: CheckApply is a single atomic critical section per target shard.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// entry stores the record for one key on one target. window is the freshness
// window that was in effect when the entry was last recorded, and doubles as
// its retention bound for eviction.
type entry[K comparable] struct {
	key       K
	timestamp time.Time
	window    time.Duration
	element   *list.Element
}

// shard holds the entries for a single target. Each shard has its own mutex
// so suppression bookkeeping for one channel never blocks another.
type shard[K comparable] struct {
	mu    sync.Mutex
	seen  map[K]*entry[K]
	order *list.List // keys in refresh order, oldest at front
}

// Cache is a per-target deduplication cache generic over the fingerprint
// type. An entry for (target, key) is fresh while now - timestamp < window;
// fresh entries suppress repeat postings. Entries are evicted lazily on any
// operation and by a background sweep, and each target's submap is bounded to
// maxSize entries with oldest-first eviction.
//
// Callers pass the current time explicitly so tests can drive the clock.
// A backward time jump makes an entry's age negative; negative ages are
// treated as stale, never as fresh-forever.
type Cache[K comparable] struct {
	mu      sync.RWMutex
	targets map[string]*shard[K]
	window  time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a dedupe cache with the given default freshness window and
// per-target size limit. A background goroutine sweeps expired entries once
// a minute; Close stops it.
func New[K comparable](window time.Duration, maxSize int) *Cache[K] {
	c := &Cache[K]{
		targets: make(map[string]*shard[K]),
		window:  window,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// CheckApply reports whether the caller should post key to target, using the
// cache's default window. See CheckApplyWindow.
func (c *Cache[K]) CheckApply(target string, key K, now time.Time) bool {
	return c.CheckApplyWindow(target, key, now, c.window)
}

// CheckApplyWindow returns true iff no fresh entry exists for (target, key),
// recording or refreshing the entry with now as a side effect of returning
// true. The check and the record happen inside one critical section on the
// target's shard, so when concurrent calls race for the same pair exactly one
// observes true.
//
// window overrides the cache default for this call site; tracker handlers
// carry their own configured windows.
func (c *Cache[K]) CheckApplyWindow(target string, key K, now time.Time, window time.Duration) bool {
	sh := c.shard(target)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.evictExpired(now)

	if e, ok := sh.seen[key]; ok {
		age := now.Sub(e.timestamp)
		if age >= 0 && age < window {
			return false // fresh entry, suppress
		}
		// Stale or clock went backwards: refresh and allow.
		e.timestamp = now
		e.window = window
		sh.order.MoveToBack(e.element)
		return true
	}

	if len(sh.seen) >= c.maxSize {
		sh.evictOldest()
	}

	elem := sh.order.PushBack(key)
	sh.seen[key] = &entry[K]{key: key, timestamp: now, window: window, element: elem}
	return true
}

// Forget drops the entry for (target, key) if present. The dispatcher calls
// this when an external lookup fails after the claim, so the next occurrence
// of the key retries instead of being suppressed by a phantom entry.
func (c *Cache[K]) Forget(target string, key K) {
	c.mu.RLock()
	sh := c.targets[target]
	c.mu.RUnlock()
	if sh == nil {
		return
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.seen[key]; ok {
		sh.order.Remove(e.element)
		delete(sh.seen, key)
	}
}

// shard returns the submap for target, creating it on demand.
func (c *Cache[K]) shard(target string) *shard[K] {
	c.mu.RLock()
	sh := c.targets[target]
	c.mu.RUnlock()
	if sh != nil {
		return sh
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if sh = c.targets[target]; sh == nil {
		sh = &shard[K]{seen: make(map[K]*entry[K]), order: list.New()}
		c.targets[target] = sh
	}
	return sh
}

// evictExpired removes entries from the front of the order list whose age
// exceeds their recorded window. Must be called with the shard mutex held.
func (sh *shard[K]) evictExpired(now time.Time) {
	for front := sh.order.Front(); front != nil; front = sh.order.Front() {
		key, _ := front.Value.(K)
		e, ok := sh.seen[key]
		if !ok {
			sh.order.Remove(front)
			continue
		}
		if now.Sub(e.timestamp) < e.window {
			return
		}
		sh.order.Remove(front)
		delete(sh.seen, key)
	}
}

// evictOldest removes the oldest entry. Must be called with the shard mutex
// held. O(1) via the order list.
func (sh *shard[K]) evictOldest() {
	front := sh.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(K)
	sh.order.Remove(front)
	delete(sh.seen, key)
}

// sweep runs in a background goroutine, periodically removing expired
// entries from every shard.
func (c *Cache[K]) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runSweep(time.Now())
		case <-c.done:
			return
		}
	}
}

// runSweep removes expired entries from all shards.
func (c *Cache[K]) runSweep(now time.Time) {
	c.mu.RLock()
	shards := make([]*shard[K], 0, len(c.targets))
	for _, sh := range c.targets {
		shards = append(shards, sh)
	}
	c.mu.RUnlock()

	for _, sh := range shards {
		sh.mu.Lock()
		for key, e := range sh.seen {
			if now.Sub(e.timestamp) >= e.window {
				sh.order.Remove(e.element)
				delete(sh.seen, key)
			}
		}
		sh.mu.Unlock()
	}
}

// len reports the number of live entries for target. Test helper.
func (c *Cache[K]) len(target string) int {
	c.mu.RLock()
	sh := c.targets[target]
	c.mu.RUnlock()
	if sh == nil {
		return 0
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return len(sh.seen)
}

// Close stops the background sweep goroutine. Safe to call multiple times.
func (c *Cache[K]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
