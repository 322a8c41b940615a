package store

import (
	"bytes"
	"time"
)

// side selects which end of a list a push targets.
type side int

const (
	sideLeft side = iota
	sideRight
)

// push implements LPUSH/RPUSH. Each value in vals is inserted one at a
// time at the chosen end, in the order given — so for LPUSH, the last
// argument ends up nearest the head (spec: "the last-prepended argument
// is at position 0").
func (s *Store) push(key string, vals [][]byte, sd side) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, present := s.getLive(key, time.Now())
	if !present {
		r = &record{kind: KindList}
		s.data[key] = r
	} else if r.kind != KindList {
		return 0, ErrWrongType
	}
	for _, v := range vals {
		cp := append([]byte(nil), v...)
		if sd == sideLeft {
			r.list = append([][]byte{cp}, r.list...)
		} else {
			r.list = append(r.list, cp)
		}
	}
	return len(r.list), nil
}

// LPush prepends each value in vals, one at a time, at the head.
func (s *Store) LPush(key string, vals [][]byte) (int, error) {
	return s.push(key, vals, sideLeft)
}

// RPush appends each value in vals, in order, at the tail.
func (s *Store) RPush(key string, vals [][]byte) (int, error) {
	return s.push(key, vals, sideRight)
}

// LLen reports the length of the list at key, 0 if absent.
func (s *Store) LLen(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, present := s.getLive(key, time.Now())
	if !present {
		return 0, nil
	}
	if r.kind != KindList {
		return 0, ErrWrongType
	}
	return len(r.list), nil
}

// LRange returns the elements in [start, stop] inclusive, with
// negative-index normalization applied to both bounds. An empty slice
// (not an error) is returned when the key is absent or the range is
// empty after clamping.
func (s *Store) LRange(key string, start, stop int) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, present := s.getLive(key, time.Now())
	if !present {
		return [][]byte{}, nil
	}
	if r.kind != KindList {
		return nil, ErrWrongType
	}
	n := len(r.list)
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return [][]byte{}, nil
	}
	out := make([][]byte, stop-start+1)
	copy(out, r.list[start:stop+1])
	return out, nil
}

// LPopOne removes and returns the head element. ok is false when the
// list is absent or already empty; the empty list record, if it
// existed, is left in place rather than deleted (see SPEC_FULL.md's
// Open Question resolution).
func (s *Store) LPopOne(key string) (value []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, present := s.getLive(key, time.Now())
	if !present {
		return nil, false, nil
	}
	if r.kind != KindList {
		return nil, false, ErrWrongType
	}
	if len(r.list) == 0 {
		return nil, false, nil
	}
	v := r.list[0]
	r.list = r.list[1:]
	return v, true, nil
}

// LPopN removes and returns up to count elements from the head, in
// head-to-tail order. count == 0 yields an empty (non-nil) slice, not
// an error.
func (s *Store) LPopN(key string, count int) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count < 0 {
		return nil, ErrBadArgs
	}
	r, present := s.getLive(key, time.Now())
	if !present {
		return [][]byte{}, nil
	}
	if r.kind != KindList {
		return nil, ErrWrongType
	}
	if count > len(r.list) {
		count = len(r.list)
	}
	out := make([][]byte, count)
	copy(out, r.list[:count])
	r.list = r.list[count:]
	return out, nil
}

// LIndex returns the element at index (negative indices count from the
// end). ok is false when the index, after normalization, is out of
// range — this is not an error.
func (s *Store) LIndex(key string, index int) (value []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, present := s.getLive(key, time.Now())
	if !present {
		return nil, false, nil
	}
	if r.kind != KindList {
		return nil, false, ErrWrongType
	}
	eff, inRange := normalizeIndex(index, len(r.list))
	if !inRange {
		return nil, false, nil
	}
	return r.list[eff], true, nil
}

// LSet overwrites the element at index. Unlike LIndex, an out-of-range
// index (after normalization) is ErrOutOfRange, not a quiet no-op.
func (s *Store) LSet(key string, index int, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, present := s.getLive(key, time.Now())
	if !present {
		return ErrOutOfRange
	}
	if r.kind != KindList {
		return ErrWrongType
	}
	eff, inRange := normalizeIndex(index, len(r.list))
	if !inRange {
		return ErrOutOfRange
	}
	r.list[eff] = append([]byte(nil), value...)
	return nil
}

// LRem removes matching elements per the count-signed policy: count > 0
// scans head-to-tail removing up to count matches, count < 0 scans
// tail-to-head removing up to |count| matches, count == 0 removes every
// match. It returns the number actually removed and preserves the
// relative order of the elements that remain.
func (s *Store) LRem(key string, count int, element []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, present := s.getLive(key, time.Now())
	if !present {
		return 0, nil
	}
	if r.kind != KindList {
		return 0, ErrWrongType
	}
	if len(r.list) == 0 {
		return 0, nil
	}

	matches := func(b []byte) bool { return bytes.Equal(b, element) }

	out := make([][]byte, 0, len(r.list))
	removed := 0
	switch {
	case count == 0:
		for _, v := range r.list {
			if matches(v) {
				removed++
				continue
			}
			out = append(out, v)
		}
	case count > 0:
		for _, v := range r.list {
			if removed < count && matches(v) {
				removed++
				continue
			}
			out = append(out, v)
		}
	default:
		limit := -count
		keep := make([]bool, len(r.list))
		for i := range keep {
			keep[i] = true
		}
		for i := len(r.list) - 1; i >= 0 && removed < limit; i-- {
			if matches(r.list[i]) {
				keep[i] = false
				removed++
			}
		}
		for i, v := range r.list {
			if keep[i] {
				out = append(out, v)
			}
		}
	}
	r.list = out
	return removed, nil
}
