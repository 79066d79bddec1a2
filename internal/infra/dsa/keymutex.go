// Package dsa holds small self-contained data structures used across the
// engine.
package dsa

import "sync"

// ─── Keyed Mutex ────────────────────────────────────────────────────────────
// Serializes mutation per key (per account). Two concurrent claims on the
// same account would otherwise both read the same session start and
// double-credit; holding the key's lock across the read-modify-write makes
// each account single-writer at any instant. Locks are created on first use
// and kept — the set of hot accounts is bounded by the set of accounts.

// KeyMutex is a map of lazily created per-key mutexes.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyMutex creates an empty KeyMutex.
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (km *KeyMutex) Lock(key string) {
	km.mu.Lock()
	l, ok := km.locks[key]
	if !ok {
		l = &sync.Mutex{}
		km.locks[key] = l
	}
	km.mu.Unlock()
	l.Lock()
}

// Unlock releases the mutex for key. It panics when the key was never locked,
// mirroring sync.Mutex semantics.
func (km *KeyMutex) Unlock(key string) {
	km.mu.Lock()
	l := km.locks[key]
	km.mu.Unlock()
	l.Unlock()
}
