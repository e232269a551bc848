package idempotency

import (
	"context"
	"sync"
	"time"
)

// Response is a cached response to an idempotent checkout request.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	CachedAt   time.Time
}

// Store manages idempotency keys and their cached responses.
type Store interface {
	Get(ctx context.Context, key string) (*Response, bool)
	Set(ctx context.Context, key string, response *Response, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type storedEntry struct {
	response  *Response
	expiresAt time.Time
}

// MemoryStore is an in-memory Store with TTL expiry and a hard entry cap.
// When the cap is reached, the entry closest to expiry is evicted.
type MemoryStore struct {
	mu          sync.Mutex
	entries     map[string]storedEntry
	maxEntries  int
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewMemoryStore creates a store capped at 10,000 entries.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithSize(10000)
}

// NewMemoryStoreWithSize creates a store with a custom entry cap.
func NewMemoryStoreWithSize(maxEntries int) *MemoryStore {
	s := &MemoryStore{
		entries:     make(map[string]storedEntry),
		maxEntries:  maxEntries,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Get returns the cached response for key if present and unexpired.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Response, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.After(entry.expiresAt) {
		return nil, false
	}
	return entry.response, true
}

// Set stores a response under key for the given TTL.
func (s *MemoryStore) Set(ctx context.Context, key string, response *Response, ttl time.Duration) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		s.evictSoonestExpiring(now)
	}

	s.entries[key] = storedEntry{
		response:  response,
		expiresAt: now.Add(ttl),
	}
	return nil
}

// evictSoonestExpiring drops the entry with the nearest expiry. Expired
// entries are removed along the way. Caller must hold the lock.
func (s *MemoryStore) evictSoonestExpiring(now time.Time) {
	var victim string
	var victimExpiry time.Time
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
			continue
		}
		if victim == "" || entry.expiresAt.Before(victimExpiry) {
			victim = key
			victimExpiry = entry.expiresAt
		}
	}
	if len(s.entries) >= s.maxEntries && victim != "" {
		delete(s.entries, victim)
	}
}

// Delete removes a cached response.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	defer close(s.cleanupDone)

	for {
		select {
		case <-s.stopCleanup:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Stop shuts down the background cleanup goroutine.
func (s *MemoryStore) Stop() {
	close(s.stopCleanup)
	<-s.cleanupDone
}
