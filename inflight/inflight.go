// Package inflight keeps one running operation per key.
package inflight

import "sync"

// Set tracks keys with an operation in progress.
type Set struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewSet() *Set {
	return &Set{keys: make(map[string]struct{})}
}

// Acquire marks key busy. ok is false when it already was; otherwise call release when done.
func (s *Set) Acquire(key string) (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.keys[key]; busy {
		return nil, false
	}
	s.keys[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.keys, key)
			s.mu.Unlock()
		})
	}, true
}

// Busy reports whether key has an operation in progress.
func (s *Set) Busy(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.keys[key]
	return busy
}

// Keys lists the busy keys, e.g. to disable buttons in a view.
func (s *Set) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.keys))
	for key := range s.keys {
		keys = append(keys, key)
	}
	return keys
}
