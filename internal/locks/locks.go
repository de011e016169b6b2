// Package locks provides per-key mutual exclusion for read-modify-write sequences.
package locks

import (
	"sync"

	"github.com/google/uuid"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed serializes work per uuid. Entries are dropped once no goroutine holds or waits on them.
type Keyed struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

// New creates an empty Keyed lock set.
func New() *Keyed {
	return &Keyed{entries: make(map[uuid.UUID]*entry)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *Keyed) Lock(key uuid.UUID) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}

// Len returns the number of keys currently held or awaited.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
