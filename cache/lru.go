package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// entry is the stored representation of one cached value.
type entry struct {
	key             string
	value           any
	createdAt       time.Time
	ttl             time.Duration // <= 0 never expires
	refresh         RefreshFunc
	lastRefreshedAt time.Time
}

// expired reports whether the entry's TTL has elapsed at now.
func (e *entry) expired(now time.Time) bool {
	if e.ttl <= 0 {
		return false
	}
	return now.Sub(e.createdAt) > e.ttl
}

// LRUStore is a bounded, thread-safe TTL cache with least-recently-used
// eviction. Recency is tracked with a doubly linked list plus a map index,
// so promotion and eviction are O(1). One mutex guards all state; nothing
// sleeps or performs I/O while holding it.
type LRUStore struct {
	mu        sync.Mutex
	index     map[string]*list.Element
	ll        *list.List // front = most recently used
	maxSize   int
	hits      int64
	misses    int64
	evictions int64
	refreshes int64
}

var _ Store = (*LRUStore)(nil)

// DefaultMaxSize is the entry bound applied when none is configured.
const DefaultMaxSize = 1000

// NewLRUStore creates an empty store bounded to maxSize entries.
// A maxSize <= 0 falls back to DefaultMaxSize.
func NewLRUStore(maxSize int) *LRUStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &LRUStore{
		index:   make(map[string]*list.Element),
		ll:      list.New(),
		maxSize: maxSize,
	}
}

// Get retrieves a cached value. An expired entry is removed and reported
// as a miss; a hit promotes the entry to most recently used.
func (s *LRUStore) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ele, ok := s.index[key]
	if !ok {
		s.misses++
		return nil, false
	}

	ent := ele.Value.(*entry)
	if ent.expired(time.Now()) {
		s.removeElement(ele)
		s.misses++
		return nil, false
	}

	s.ll.MoveToFront(ele)
	s.hits++
	return ent.value, true
}

// Set stores a value with the given TTL and optional refresh function.
// Replacing an existing key is not an insertion: the entry is updated in
// place and promoted, and nothing is evicted.
func (s *LRUStore) Set(key string, value any, ttl time.Duration, refresh RefreshFunc) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ele, ok := s.index[key]; ok {
		ent := ele.Value.(*entry)
		ent.value = value
		ent.createdAt = now
		ent.ttl = ttl
		ent.refresh = refresh
		ent.lastRefreshedAt = now
		s.ll.MoveToFront(ele)
		return
	}

	if s.ll.Len() >= s.maxSize {
		s.removeOldest()
		s.evictions++
	}

	ele := s.ll.PushFront(&entry{
		key:             key,
		value:           value,
		createdAt:       now,
		ttl:             ttl,
		refresh:         refresh,
		lastRefreshedAt: now,
	})
	s.index[key] = ele
}

// Delete removes a key, reporting whether it was present.
func (s *LRUStore) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ele, ok := s.index[key]
	if !ok {
		return false
	}
	s.removeElement(ele)
	return true
}

// DeletePrefix removes every key with the given prefix.
func (s *LRUStore) DeletePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doomed []*list.Element
	for key, ele := range s.index {
		if strings.HasPrefix(key, prefix) {
			doomed = append(doomed, ele)
		}
	}
	for _, ele := range doomed {
		s.removeElement(ele)
	}
	return len(doomed)
}

// Clear removes all entries. Counters are preserved.
func (s *LRUStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = make(map[string]*list.Element)
	s.ll.Init()
}

// Len returns the number of entries currently stored.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

// Stats returns a snapshot of the store's counters without mutating any
// cache state.
func (s *LRUStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Size:      s.ll.Len(),
		MaxSize:   s.maxSize,
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		Refreshes: s.refreshes,
	}
}

// removeOldest evicts the least recently used entry.
func (s *LRUStore) removeOldest() {
	if ele := s.ll.Back(); ele != nil {
		s.removeElement(ele)
	}
}

func (s *LRUStore) removeElement(ele *list.Element) {
	s.ll.Remove(ele)
	delete(s.index, ele.Value.(*entry).key)
}

// refreshTask pairs a key with its refresh function, captured under the
// lock so the refresher can run the function outside of it.
type refreshTask struct {
	key     string
	refresh RefreshFunc
}

// refreshDue collects the entries whose refresh function is due: a refresh
// function is present and the entry was last refreshed more than interval
// ago. Expired entries are skipped; Get will collect them lazily.
func (s *LRUStore) refreshDue(interval time.Duration) []refreshTask {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var due []refreshTask
	for ele := s.ll.Front(); ele != nil; ele = ele.Next() {
		ent := ele.Value.(*entry)
		if ent.refresh == nil || ent.expired(now) {
			continue
		}
		if now.Sub(ent.lastRefreshedAt) > interval {
			due = append(due, refreshTask{key: ent.key, refresh: ent.refresh})
		}
	}
	return due
}

// applyRefresh installs a freshly derived value for key. The swap restarts
// the TTL clock and stamps the refresh time; recency order is untouched,
// since a background refresh is not a use. A key deleted or evicted while
// the refresh ran is left absent.
func (s *LRUStore) applyRefresh(key string, value any) bool {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ele, ok := s.index[key]
	if !ok {
		return false
	}
	ent := ele.Value.(*entry)
	ent.value = value
	ent.createdAt = now
	ent.lastRefreshedAt = now
	s.refreshes++
	return true
}
