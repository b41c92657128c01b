package services

import "sync"

// KeyedMutex serializes work per key. Entries are dropped once no goroutine
// holds or waits for them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyedEntry)}
}

func (locks *KeyedMutex) Lock(key string) func() {
	locks.mu.Lock()
	entry, ok := locks.entries[key]
	if !ok {
		entry = &keyedEntry{}
		locks.entries[key] = entry
	}
	entry.refs++
	locks.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		locks.mu.Lock()
		defer locks.mu.Unlock()
		entry.refs--
		if entry.refs == 0 {
			delete(locks.entries, key)
		}
	}
}

func (locks *KeyedMutex) size() int {
	locks.mu.Lock()
	defer locks.mu.Unlock()
	return len(locks.entries)
}
