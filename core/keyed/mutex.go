package keyed

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Mutex hands out one lock per key. Entries are dropped once no caller holds
// or waits for them, so the map only grows with concurrently active keys.
type Mutex[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

// NewMutex constructs an empty keyed mutex.
func NewMutex[K comparable]() *Mutex[K] {
	return &Mutex[K]{entries: make(map[K]*entry)}
}

// Lock blocks until the lock for key is acquired and returns its release func.
func (m *Mutex[K]) Lock(key K) (unlock func()) {
	m.mu.Lock()
	if m.entries == nil {
		m.entries = make(map[K]*entry)
	}
	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			m.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(m.entries, key)
			}
			m.mu.Unlock()
		})
	}
}

// Do runs fn while holding the lock for key.
func (m *Mutex[K]) Do(key K, fn func()) {
	unlock := m.Lock(key)
	defer unlock()
	fn()
}

// Len reports how many keys are currently held or awaited.
func (m *Mutex[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
