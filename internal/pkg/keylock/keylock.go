// Package keylock serialises work per key: callers holding different keys never wait on each other.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker is safe for concurrent use; its zero value is ready.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Lock blocks until key is free and returns the function releasing it.
func (l *Locker) Lock(key string) (unlock func()) {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[string]*entry)
	}
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of keys currently held or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
