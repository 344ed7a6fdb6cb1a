package store

import (
	"sort"
	"sync"
)

// KeyMutex provides per-key critical sections over a whole-document store.
// The store itself has no conditional writes, so engine operations lock every
// document they will touch before the first read and hold the locks until the
// last write. LockAll sorts and deduplicates keys so two operations touching
// overlapping key sets always acquire in the same order and cannot deadlock.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyMutex creates an empty keyed mutex set
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// LockAll locks every key and returns the matching unlock function
func (k *KeyMutex) LockAll(keys ...string) (unlock func()) {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" && !seen[key] {
			seen[key] = true
			uniq = append(uniq, key)
		}
	}
	sort.Strings(uniq)

	locked := make([]*sync.Mutex, 0, len(uniq))
	for _, key := range uniq {
		m := k.get(key)
		m.Lock()
		locked = append(locked, m)
	}

	return func() {
		// release in reverse acquisition order
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}
