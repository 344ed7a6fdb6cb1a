package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutexSerializesSameKey(t *testing.T) {
	km := NewKeyMutex()

	const workers = 50
	counter := 0

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.LockAll("user:did:mdip:alice", "matrix:did:mdip:m1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyMutexOverlappingKeySets(t *testing.T) {
	km := NewKeyMutex()

	// Two goroutines lock overlapping sets in opposite declaration order.
	// Sorted acquisition means this must not deadlock.
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := km.LockAll("a", "b")
			defer unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := km.LockAll("b", "a")
			defer unlock()
		}()
	}
	wg.Wait()
}

func TestKeyMutexIgnoresEmptyAndDuplicateKeys(t *testing.T) {
	km := NewKeyMutex()

	unlock := km.LockAll("x", "", "x", "x")
	unlock()

	// relocking after unlock must succeed
	unlock = km.LockAll("x")
	unlock()
}
