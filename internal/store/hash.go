package store

import "time"

// HSet writes each (field, value) pair in pairs into the hash at key,
// creating the hash if absent, overwriting existing fields in place.
// The returned count is the number of pairs written, including ones
// that overwrote an existing field — see SPEC_FULL.md's Open Question
// resolution (original_source/storage.rs::hash_set counts every pair,
// not just newly-created fields).
func (s *Store) HSet(key string, pairs [][2][]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, present := s.getLive(key, time.Now())
	if !present {
		r = &record{kind: KindHash, hash: make(map[string][]byte, len(pairs))}
		s.data[key] = r
	} else if r.kind != KindHash {
		return 0, ErrWrongType
	}
	for _, p := range pairs {
		r.hash[string(p[0])] = append([]byte(nil), p[1]...)
	}
	return len(pairs), nil
}
