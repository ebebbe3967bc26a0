package memstore

import "sync"

// keyLocks держит по мьютексу на каждый ключ. Разные ключи друг друга не блокируют.
type keyLocks struct {
	locks map[int64]*sync.Mutex
	mu    sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *keyLocks) lock(key int64) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
}

func (l *keyLocks) unlock(key int64) {
	l.mu.Lock()
	m := l.locks[key]
	l.mu.Unlock()

	if m != nil {
		m.Unlock()
	}
}
