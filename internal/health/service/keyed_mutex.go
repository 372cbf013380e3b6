package service

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

// keyedMutex serializes work per customer id so concurrent recomputes of
// the same customer cannot interleave history writes or dedup checks.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[snowflake.ID]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[snowflake.ID]*keyedLock)}
}

// Lock acquires the per-key mutex and returns its unlock function.
func (k *keyedMutex) Lock(id snowflake.ID) func() {
	k.mu.Lock()
	lock, ok := k.locks[id]
	if !ok {
		lock = &keyedLock{}
		k.locks[id] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		k.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
