// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package indexset implements a compact bit-vector set of dense transaction
// indices. All cluster dependency graph operations are expressed in terms of
// this set, so unions, differences, and intersection tests run a word at a
// time rather than per element.
package indexset

import (
	"iter"
	"math/bits"
	"strconv"
	"strings"
)

const wordBits = 64

// Set is a bit-vector set of dense, zero-based indices. The zero value is an
// empty set. The universe grows automatically as indices are added, so a Set
// built for a small graph keeps working when the graph is extended.
//
// Mutating methods use pointer receivers; read-only methods accept the set by
// value. Two sets may be operated on together regardless of how large a
// universe each has seen.
type Set struct {
	words []uint64
}

// Singleton returns a set containing only index i.
func Singleton(i uint32) Set {
	var s Set
	s.Add(i)
	return s
}

// FromSlice returns a set containing every index in the given slice.
func FromSlice(indices ...uint32) Set {
	var s Set
	for _, i := range indices {
		s.Add(i)
	}
	return s
}

// ensure grows the backing storage so that it can hold at least n words.
func (s *Set) ensure(n int) {
	if len(s.words) >= n {
		return
	}
	if cap(s.words) >= n {
		s.words = s.words[:n]
		return
	}
	words := make([]uint64, n)
	copy(words, s.words)
	s.words = words
}

// Contains reports whether index i is a member of the set.
func (s Set) Contains(i uint32) bool {
	w := int(i / wordBits)
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&(1<<(i%wordBits)) != 0
}

// Add sets index i, growing the universe if needed.
func (s *Set) Add(i uint32) {
	w := int(i / wordBits)
	s.ensure(w + 1)
	s.words[w] |= 1 << (i % wordBits)
}

// Remove clears index i. Removing an index beyond the universe is a no-op.
func (s *Set) Remove(i uint32) {
	w := int(i / wordBits)
	if w >= len(s.words) {
		return
	}
	s.words[w] &^= 1 << (i % wordBits)
}

// Union adds every member of other to the set (s |= other). Safe to call with
// other aliasing s.
func (s *Set) Union(other Set) {
	s.ensure(len(other.words))
	for w, word := range other.words {
		s.words[w] |= word
	}
}

// Subtract removes every member of other from the set (s \= other). Safe to
// call with other aliasing s.
func (s *Set) Subtract(other Set) {
	n := len(s.words)
	if len(other.words) < n {
		n = len(other.words)
	}
	for w := 0; w < n; w++ {
		s.words[w] &^= other.words[w]
	}
}

// Intersection returns a new set holding the members present in both sets.
func (s Set) Intersection(other Set) Set {
	n := len(s.words)
	if len(other.words) < n {
		n = len(other.words)
	}
	out := Set{words: make([]uint64, n)}
	for w := 0; w < n; w++ {
		out.words[w] = s.words[w] & other.words[w]
	}
	return out
}

// Intersects reports whether the two sets share at least one member.
func (s Set) Intersects(other Set) bool {
	n := len(s.words)
	if len(other.words) < n {
		n = len(other.words)
	}
	for w := 0; w < n; w++ {
		if s.words[w]&other.words[w] != 0 {
			return true
		}
	}
	return false
}

// Equal reports whether both sets hold exactly the same members. Universe
// size is irrelevant: trailing empty words are ignored.
func (s Set) Equal(other Set) bool {
	long, short := s.words, other.words
	if len(short) > len(long) {
		long, short = short, long
	}
	for w := range short {
		if long[w] != short[w] {
			return false
		}
	}
	for _, word := range long[len(short):] {
		if word != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of members in the set.
func (s Set) Count() int {
	n := 0
	for _, word := range s.words {
		n += bits.OnesCount64(word)
	}
	return n
}

// IsEmpty reports whether the set has no members.
func (s Set) IsEmpty() bool {
	for _, word := range s.words {
		if word != 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	if len(s.words) == 0 {
		return Set{}
	}
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	return Set{words: words}
}

// Members returns an iterator over the members of the set in increasing
// order. The iterator reads each backing word once, so members added to an
// already-visited word during iteration are not yielded.
func (s Set) Members() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for wi := 0; wi < len(s.words); wi++ {
			word := s.words[wi]
			for word != 0 {
				tz := bits.TrailingZeros64(word)
				if !yield(uint32(wi*wordBits + tz)) {
					return
				}
				word &^= 1 << tz
			}
		}
	}
}

// Slice returns the members of the set as a sorted slice.
func (s Set) Slice() []uint32 {
	out := make([]uint32, 0, s.Count())
	for i := range s.Members() {
		out = append(out, i)
	}
	return out
}

// String returns a human-readable rendering of the set, e.g. "{0, 3, 7}".
func (s Set) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for i := range s.Members() {
		if !first {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatUint(uint64(i), 10))
		first = false
	}
	sb.WriteByte('}')
	return sb.String()
}
