// Package bloom implements a fixed-size bloom filter used by the storage
// index as a fast-negative check before probing the ordered tree.
//
// Adapted from a sharded-cache bloom filter that used atomic bit-sets to
// stay safe under concurrent writers. The query engine runs single-threaded
// handlers (no two handlers ever interleave), so the atomics are dropped and
// replaced with plain word operations.
package bloom

import (
	"hash/fnv"
	"math"
)

const bitsPerWord = 64

// Filter is a Bloom filter over []byte keys using double hashing
// (h1 + i*h2) to derive k probe positions per key.
type Filter struct {
	bits  []uint64
	size  uint64
	k     uint64
	count uint64
}

// New creates a filter sized for size bits and k hash probes per key.
func New(size uint64, k uint64) *Filter {
	if size == 0 {
		size = 1024
	}
	if k == 0 {
		k = 4
	}
	numWords := (size + bitsPerWord - 1) / bitsPerWord
	return &Filter{
		bits: make([]uint64, numWords),
		size: size,
		k:    k,
	}
}

// NewOptimal sizes a filter for expectedItems entries at falsePositiveRate.
func NewOptimal(expectedItems uint64, falsePositiveRate float64) *Filter {
	if expectedItems == 0 {
		expectedItems = 1
	}
	m := -float64(expectedItems) * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2)
	size := uint64(math.Ceil(m))
	k := uint64(math.Ceil(float64(size) / float64(expectedItems) * math.Ln2))
	return New(size, k)
}

func (f *Filter) hashes(key []byte) (uint64, uint64) {
	h := fnv.New64a()
	h.Write(key)
	h1 := h.Sum64()

	h.Reset()
	h.Write([]byte{59})
	h.Write(key)
	h2 := h.Sum64()

	return h1, h2 | 1
}

// Add marks key as present.
func (f *Filter) Add(key []byte) {
	h1, h2 := f.hashes(key)
	for i := uint64(0); i < f.k; i++ {
		idx := (h1 + i*h2) % f.size
		f.bits[idx>>6] |= uint64(1) << (idx & 63)
	}
	f.count++
}

// MayContain returns false if key is definitely absent, true if it might
// be present (subject to false positives — the caller must still probe the
// authoritative index).
func (f *Filter) MayContain(key []byte) bool {
	h1, h2 := f.hashes(key)
	for i := uint64(0); i < f.k; i++ {
		idx := (h1 + i*h2) % f.size
		if f.bits[idx>>6]&(uint64(1)<<(idx&63)) == 0 {
			return false
		}
	}
	return true
}

// Count returns the number of Add calls since the filter (or its last
// rebuild) was created. Bloom filters cannot support deletion, so this is
// only an upper bound on distinct members.
func (f *Filter) Count() uint64 {
	return f.count
}
