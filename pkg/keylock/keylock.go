// Package keylock serializes work per key without a global lock. The accrual
// pipeline locks on customer ID so concurrent orders for the same customer
// observe a consistent before/after point snapshot, while different customers
// proceed in parallel.
package keylock

import "sync"

// KeyedMutex provides one mutex per key.
type KeyedMutex[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New constructs an empty KeyedMutex.
func New[K comparable]() *KeyedMutex[K] {
	return &KeyedMutex[K]{locks: make(map[K]*entry)}
}

// Lock acquires the mutex for key, blocking while another holder owns it.
func (k *KeyedMutex[K]) Lock(key K) {
	k.mu.Lock()
	e := k.locks[key]
	if e == nil {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. Entries are dropped once no goroutine
// holds or waits on them, so the map does not grow with customer count.
func (k *KeyedMutex[K]) Unlock(key K) {
	k.mu.Lock()
	e := k.locks[key]
	if e == nil {
		k.mu.Unlock()
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
