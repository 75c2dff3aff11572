package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memEntry[V any] struct {
	key     string
	value   V
	expires time.Time // zero means no expiry
}

func (e *memEntry[V]) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Memory is an in-process Cache. Reads refresh an entry's recency, so
// with a capacity set the cache evicts in LRU order. A background
// sweeper drops expired entries between reads.
type Memory[V any] struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used
	cfg     config
	stop    chan struct{}
	closed  bool
}

var _ Cache[any] = (*Memory[any])(nil)

// NewMemory builds an in-process cache.
//
//	c := cache.NewMemory[Profile](
//	    cache.WithDefaultTTL(5*time.Minute),
//	    cache.WithCapacity(10_000),
//	)
//	defer c.Close()
func NewMemory[V any](opts ...Option) *Memory[V] {
	m := &Memory[V]{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		cfg:     newConfig(opts),
		stop:    make(chan struct{}),
	}
	if m.cfg.sweepEvery > 0 {
		go m.sweep()
	}
	return m
}

// Get implements Cache. A hit marks the entry as recently used.
func (m *Memory[V]) Get(_ context.Context, key string) (V, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	elem, ok := m.entries[key]
	if !ok {
		return zero, false, nil
	}
	e := elem.Value.(*memEntry[V])
	if e.expired(time.Now()) {
		m.drop(elem)
		return zero, false, nil
	}
	m.order.MoveToFront(elem)
	return e.value, true, nil
}

// Set implements Cache.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.cfg.defaultTTL
	}
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	if elem, ok := m.entries[key]; ok {
		e := elem.Value.(*memEntry[V])
		e.value = value
		e.expires = expires
		m.order.MoveToFront(elem)
		return nil
	}

	if m.cfg.capacity > 0 && len(m.entries) >= m.cfg.capacity {
		if oldest := m.order.Back(); oldest != nil {
			m.drop(oldest)
		}
	}

	m.entries[key] = m.order.PushFront(&memEntry[V]{key: key, value: value, expires: expires})
	return nil
}

// Delete implements Cache.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if elem, ok := m.entries[key]; ok {
		m.drop(elem)
	}
	return nil
}

// Clear implements Cache.
func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.entries = make(map[string]*list.Element)
	m.order.Init()
	return nil
}

// Close stops the sweeper and rejects further writes. Close is
// idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.stop)
	}
	return nil
}

// Len reports the number of live entries, expired ones included until
// a read or sweep drops them.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory[V]) sweep() {
	ticker := time.NewTicker(m.cfg.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.dropExpired(now)
		}
	}
}

func (m *Memory[V]) dropExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Walk from the back: LRU entries are the most likely to have
	// expired.
	for elem := m.order.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memEntry[V]).expired(now) {
			m.drop(elem)
		}
		elem = prev
	}
}

// drop removes one entry. Caller holds the mutex.
func (m *Memory[V]) drop(elem *list.Element) {
	m.order.Remove(elem)
	delete(m.entries, elem.Value.(*memEntry[V]).key)
}
