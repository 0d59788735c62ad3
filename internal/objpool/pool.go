// Package objpool implements the object pool allocator contract required by
// the item lifecycle: items are allocated from and returned to a pool
// instead of hitting the Go allocator on every SET/DEL.
//
// Grounded on the sharded-cache bloom filter's use of sync.Pool for scratch
// hash.Hash64 objects, generalized here into a counted pool that also
// reports the allocator-shape stats STATS needs (used/capacity/object size).
package objpool

import "sync"

// Pool hands out *T values, recycling freed ones. It tracks how many are
// currently checked out (Used) and the largest number ever checked out at
// once (peak capacity), matching the shape of the §6.3 item_pool_* stats.
type Pool[T any] struct {
	mu   sync.Mutex
	pool sync.Pool

	objectSize    uintptr
	used          int
	totalAlloc    int64
	peakUsed      int
	maxBlockAlloc int
}

// New creates a pool for type T, sized objectSize bytes per object (used
// only for reporting; the pool itself is not fixed-capacity).
func New[T any](objectSize uintptr, newFn func() *T) *Pool[T] {
	p := &Pool[T]{objectSize: objectSize}
	p.pool.New = func() any {
		return newFn()
	}
	return p
}

// Alloc returns a *T, reusing a freed one when available.
func (p *Pool[T]) Alloc() *T {
	p.mu.Lock()
	p.used++
	p.totalAlloc++
	if p.used > p.peakUsed {
		p.peakUsed = p.used
	}
	p.mu.Unlock()
	return p.pool.Get().(*T)
}

// Free returns v to the pool for reuse.
func (p *Pool[T]) Free(v *T) {
	p.mu.Lock()
	if p.used > 0 {
		p.used--
	}
	p.mu.Unlock()
	p.pool.Put(v)
}

// Used returns how many objects are currently checked out.
func (p *Pool[T]) Used() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used
}

// Capacity returns the current in-flight peak (this pool has no fixed
// ceiling, so "capacity" is reported as the high-water mark).
func (p *Pool[T]) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peakUsed
}

// TotalCapacity returns the total number of Alloc calls ever served.
func (p *Pool[T]) TotalCapacity() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalAlloc
}

// ObjectSize returns the reported per-object size in bytes.
func (p *Pool[T]) ObjectSize() uintptr {
	return p.objectSize
}

// MaxBlockSize returns the largest single-allocation block size the pool
// has served. This pool never batches, so it equals ObjectSize.
func (p *Pool[T]) MaxBlockSize() uintptr {
	return p.objectSize
}
