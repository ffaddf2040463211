package multiset

import (
	"encoding/binary"
	"iter"
	"maps"

	"github.com/arloliu/rowdiff/internal/hash"
	"github.com/arloliu/rowdiff/internal/pool"
	"github.com/arloliu/rowdiff/row"
)

type stringMapEntry struct {
	sm    row.StringMap
	count int
}

// StringMaps is a multiset of string maps.
//
// Maps are bucketed by the xxHash64 of a canonical encoding (sorted keys, each key
// and value length-prefixed) and compared by full equality inside a bucket, so hash
// collisions never produce false matches. Collisions are recorded and exposed
// through HasCollision.
type StringMaps struct {
	buckets      map[uint64][]*stringMapEntry
	order        []*stringMapEntry // one entry per Add
	total        int
	hasCollision bool
	hashFn       func(row.StringMap) uint64
}

// NewStringMaps creates an empty string-map multiset.
func NewStringMaps() *StringMaps {
	return &StringMaps{
		buckets: make(map[uint64][]*stringMapEntry),
		hashFn:  canonicalHash,
	}
}

// Add records one occurrence of sm. The map is retained, callers must not
// modify it afterwards.
func (s *StringMaps) Add(sm row.StringMap) {
	h := s.hashFn(sm)

	bucket := s.buckets[h]
	for _, e := range bucket {
		if maps.Equal(e.sm, sm) {
			e.count++
			s.order = append(s.order, e)
			s.total++

			return
		}
	}

	if len(bucket) > 0 {
		s.hasCollision = true
	}

	e := &stringMapEntry{sm: sm, count: 1}
	s.buckets[h] = append(bucket, e)
	s.order = append(s.order, e)
	s.total++
}

// Remove consumes one occurrence equal to sm and reports whether one was present.
func (s *StringMaps) Remove(sm row.StringMap) bool {
	for _, e := range s.buckets[s.hashFn(sm)] {
		if e.count > 0 && maps.Equal(e.sm, sm) {
			e.count--
			s.total--

			return true
		}
	}

	return false
}

// Len returns the number of remaining occurrences.
func (s *StringMaps) Len() int {
	return s.total
}

// HasCollision reports whether two different maps shared a hash since the last Reset.
func (s *StringMaps) HasCollision() bool {
	return s.hasCollision
}

// All yields every remaining occurrence in first insertion order, each repeated as
// many times as it remains.
func (s *StringMaps) All() iter.Seq[row.StringMap] {
	return func(yield func(row.StringMap) bool) {
		if s.total == 0 {
			return
		}

		emitted := make(map[*stringMapEntry]int, len(s.order))
		for _, e := range s.order {
			if emitted[e] >= e.count {
				continue
			}
			emitted[e]++

			if !yield(e.sm) {
				return
			}
		}
	}
}

// Reset clears all maps and the collision flag.
func (s *StringMaps) Reset() {
	clear(s.buckets)
	clear(s.order)
	s.order = s.order[:0]
	s.total = 0
	s.hasCollision = false
}

func canonicalHash(sm row.StringMap) uint64 {
	buf := pool.GetRowBuffer()
	defer pool.PutRowBuffer(buf)

	for _, k := range sm.Keys() {
		v := sm[k]
		buf.B = binary.AppendUvarint(buf.B, uint64(len(k)))
		buf.MustWriteString(k)
		buf.B = binary.AppendUvarint(buf.B, uint64(len(v)))
		buf.MustWriteString(v)
	}

	return hash.Sum(buf.Bytes())
}
