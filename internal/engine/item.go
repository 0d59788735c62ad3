// Package engine implements the query execution engine: request dispatch,
// key/expression parsing, the prefix-indexed storage with lazy TTL expiry,
// transparent compression on write, the advisory lock discipline, and the
// numeric-encoding fast path for INC/DEC.
//
// The engine is single-threaded cooperative: every exported handler runs to
// completion with respect to the index and the counters on Server, and must
// never be invoked concurrently from more than one goroutine at a time
// (mirrors an event-loop-driven dispatch model).
package engine

import (
	"unsafe"

	"github.com/exprkv/exprkv/internal/memheap"
	"github.com/exprkv/exprkv/internal/objpool"
)

// Encoding tags how Item.data/num should be interpreted.
type Encoding uint8

const (
	// Plain means data holds the literal value bytes, uncompressed.
	Plain Encoding = iota
	// LZF means data holds the compressed value; the reader must know the
	// encoding to decompress it (the original length is not retained).
	LZF
	// Number means the value is carried inline as num; data is unused and
	// must never be freed.
	Number
)

func (e Encoding) String() string {
	switch e {
	case Plain:
		return "PLAIN"
	case LZF:
		return "LZF"
	case Number:
		return "NUMBER"
	default:
		return "UNKNOWN"
	}
}

// Item is the unit of storage: opaque bytes or an inline integer, a TTL, an
// advisory lock, and access bookkeeping. See spec §3.1 for the full
// contract; encoding == Number is the only case where data must not be
// treated as an owned buffer.
type Item struct {
	data     []byte
	num      int64
	size     int
	encoding Encoding

	time           int64 // anchor for ttl/lock countdowns
	lastAccessTime int64
	ttl            int64 // -1 disables expiry
	lock           int64 // -1 permanent, 0 unlocked, >0 timed

	volatile bool // constructed for one reply, never indexed or counted
}

// Encoding returns the item's storage encoding.
func (it *Item) Encoding() Encoding { return it.encoding }

// Size returns the logical byte length (word width for Number).
func (it *Item) Size() int { return it.size }

// Bytes returns the raw stored bytes. Only meaningful when Encoding() != Number.
func (it *Item) Bytes() []byte { return it.data }

// Int returns the inline integer value. Only meaningful when Encoding() == Number.
func (it *Item) Int() int64 { return it.num }

// TTL returns the item's configured TTL in seconds (-1 = no expiry).
func (it *Item) TTL() int64 { return it.ttl }

// Lock returns the item's configured lock duration in seconds.
func (it *Item) Lock() int64 { return it.lock }

// AnchorTime returns the wall-clock second the TTL/lock countdowns are
// measured from.
func (it *Item) AnchorTime() int64 { return it.time }

const numberWordSize = 8 // sizeof(int64), the "native word" spec §3.1 refers to

// newItemPool builds the object pool backing item allocation. Items are
// zero-valued between uses; every field is reset in reset() below.
func newItemPool() *objpool.Pool[Item] {
	return objpool.New[Item](unsafe.Sizeof(Item{}), func() *Item { return &Item{} })
}

func (it *Item) reset() {
	it.data = nil
	it.num = 0
	it.size = 0
	it.encoding = Plain
	it.time = 0
	it.lastAccessTime = 0
	it.ttl = 0
	it.lock = 0
	it.volatile = false
}

// createItem allocates a new item from the pool and updates population
// counters. now is the anchoring wall-clock second (server.time).
func (s *Server) createItem(encoding Encoding, data []byte, num int64, size int, ttl int64, now int64) *Item {
	it := s.pool.Alloc()
	it.reset()
	it.encoding = encoding
	it.data = data
	it.num = num
	it.size = size
	it.ttl = ttl
	it.lock = 0
	it.time = now
	it.lastAccessTime = now

	s.nitems++
	s.memused += int64(itemFootprint(it))
	if s.mempeak < s.memused {
		s.mempeak = s.memused
	}
	if s.firstin == 0 {
		s.firstin = now
	}
	s.lastin = now
	s.sizeavg = runningAverageSize(s.sizeavg, s.nitems, size)
	if encoding == LZF {
		s.ncompressed++
	}
	return it
}

// createVolatileItem wraps a value for exactly one reply. Volatile items are
// never inserted into the index and never counted toward population stats.
func (s *Server) createVolatileItem(encoding Encoding, data []byte, num int64, size int) *Item {
	it := s.pool.Alloc()
	it.reset()
	it.encoding = encoding
	it.data = data
	it.num = num
	it.size = size
	it.ttl = -1
	it.lock = 0
	it.time = 0
	it.lastAccessTime = 0
	it.volatile = true
	return it
}

// destroyItem frees an indexed item's storage and updates counters
// symmetrically with createItem.
func (s *Server) destroyItem(it *Item) {
	if it.volatile {
		s.destroyVolatileItem(it)
		return
	}
	if it.encoding != Number {
		memheap.Free(it.data)
	}
	s.nitems--
	s.memused -= int64(itemFootprint(it))
	if s.memused < 0 {
		s.memused = 0
	}
	if it.encoding == LZF {
		s.ncompressed--
	}
	if s.nitems > 0 {
		s.sizeavg = float64(s.memused) / float64(s.nitems)
	} else {
		s.sizeavg = 0
	}
	it.data = nil
	s.pool.Free(it)
}

// destroyVolatileItem tears down a reply-only item without touching
// population counters.
func (s *Server) destroyVolatileItem(it *Item) {
	if it.encoding != Number {
		memheap.Free(it.data)
	}
	it.data = nil
	s.pool.Free(it)
}

func itemFootprint(it *Item) int {
	if it.encoding == Number {
		return numberWordSize
	}
	return it.size
}

// runningAverageSize keeps a true running mean of item sizes across n
// (post-increment) population count.
func runningAverageSize(avg float64, n int64, newSize int) float64 {
	if n <= 1 {
		return float64(newSize)
	}
	return avg + (float64(newSize)-avg)/float64(n)
}
