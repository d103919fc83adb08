package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store with TTL expiry and LRU eviction once
// maxSize entries are held.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	maxSize int
}

type memoryEntry struct {
	value      []byte
	expiresAt  time.Time
	lastAccess time.Time
}

// NewMemory creates an in-memory store. maxSize <= 0 defaults to 1000.
func NewMemory(maxSize int) *Memory {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Memory{
		entries: make(map[string]*memoryEntry),
		maxSize: maxSize,
	}
}

// Get retrieves a value; expired entries report a miss and are left for
// the cleanup pass to remove.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		return nil, false
	}
	entry.lastAccess = time.Now()
	return entry.value, true
}

// Set stores a value with a TTL, evicting the least recently used entry
// when the store is full.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok && len(m.entries) >= m.maxSize {
		m.evictLRU()
	}
	now := time.Now()
	m.entries[key] = &memoryEntry{
		value:      value,
		expiresAt:  now.Add(ttl),
		lastAccess: now,
	}
}

// Delete removes a key.
func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memory) evictLRU() {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range m.entries {
		if oldestKey == "" || entry.lastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccess
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

// Cleanup removes expired entries.
func (m *Memory) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
}

// StartCleanup runs Cleanup on the given interval in a background goroutine.
func (m *Memory) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			m.Cleanup()
		}
	}()
}

var _ Store = (*Memory)(nil)
