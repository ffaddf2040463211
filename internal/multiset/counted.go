// Package multiset provides the match sets the differencing engines consume history
// from: a byte-string multiset and a hash-bucketed string-map multiset.
package multiset

import "iter"

// Counted tracks byte-string keys with multiplicity.
//
// In unique mode repeated keys collapse to a single occurrence, which gives plain
// set semantics. Iteration follows first insertion order.
type Counted struct {
	unique bool
	counts map[string]int
	order  []string // one entry per accepted Add
	total  int
}

// NewCounted creates an empty multiset. When unique is true, the set ignores
// repeated keys.
func NewCounted(unique bool) *Counted {
	return &Counted{
		unique: unique,
		counts: make(map[string]int),
	}
}

// Add records one occurrence of key. The bytes are copied.
func (c *Counted) Add(key []byte) {
	c.AddString(string(key))
}

// AddString records one occurrence of key.
func (c *Counted) AddString(key string) {
	if c.unique && c.counts[key] > 0 {
		return
	}

	c.counts[key]++
	c.order = append(c.order, key)
	c.total++
}

// Consume removes one occurrence of key and reports whether one was present.
func (c *Counted) Consume(key []byte) bool {
	// the string conversion in a map index does not allocate
	n := c.counts[string(key)]
	if n == 0 {
		return false
	}

	c.counts[string(key)] = n - 1
	c.total--

	return true
}

// ConsumeString is Consume for string keys.
func (c *Counted) ConsumeString(key string) bool {
	n := c.counts[key]
	if n == 0 {
		return false
	}

	c.counts[key] = n - 1
	c.total--

	return true
}

// Contains reports whether at least one occurrence of key remains.
func (c *Counted) Contains(key []byte) bool {
	return c.counts[string(key)] > 0
}

// Len returns the number of remaining occurrences.
func (c *Counted) Len() int {
	return c.total
}

// Remaining yields every unconsumed occurrence. Keys appear in first insertion
// order, each repeated as many times as it remains.
func (c *Counted) Remaining() iter.Seq[string] {
	return func(yield func(string) bool) {
		if c.total == 0 {
			return
		}

		emitted := make(map[string]int, len(c.counts))
		for _, key := range c.order {
			if emitted[key] >= c.counts[key] {
				continue
			}
			emitted[key]++

			if !yield(key) {
				return
			}
		}
	}
}

// Reset clears all keys while keeping allocated capacity.
func (c *Counted) Reset() {
	clear(c.counts)
	c.order = c.order[:0]
	c.total = 0
}
