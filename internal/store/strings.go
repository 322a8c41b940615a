package store

import "time"

// Set unconditionally replaces the record at key with a byte string,
// clearing any prior variant and expiry. A zero deadline means no
// expiry.
func (s *Store) Set(key string, value []byte, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = &record{kind: KindString, str: value, deadline: deadline}
}

// Get returns the byte string at key. ok is false when the key is
// absent or has expired; err is ErrWrongType when the key holds a
// different variant.
func (s *Store) Get(key string) (value []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, present := s.getLive(key, time.Now())
	if !present {
		return nil, false, nil
	}
	if r.kind != KindString {
		return nil, false, ErrWrongType
	}
	return r.str, true, nil
}

// Del removes each of keys and returns how many were actually present
// (and not already expired).
func (s *Store) Del(keys []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for _, k := range keys {
		if _, present := s.getLive(k, now); present {
			delete(s.data, k)
			n++
		}
	}
	return n
}
