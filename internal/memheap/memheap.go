// Package memheap implements the heap-wrapper contract required by item
// storage: owned-buffer duplication/free plus process memory reporting.
//
// Grounded on the final-stats reporting pattern of reading runtime.MemStats
// to print Alloc/TotalAlloc/Sys/NumGC on shutdown; this generalizes that
// into the always-available MemUsed/MemFragmentationRatio pair the STATS
// emitter needs.
package memheap

import "runtime"

// Strdup returns an owned copy of s as a byte slice.
func Strdup(s string) []byte {
	b := make([]byte, len(s))
	copy(b, s)
	return b
}

// Memdup returns an owned copy of src, exclusively owned by the caller.
func Memdup(src []byte) []byte {
	if src == nil {
		return nil
	}
	b := make([]byte, len(src))
	copy(b, src)
	return b
}

// Free is a documentation stand-in: Go's GC reclaims owned buffers once
// unreferenced. It exists so ownership-transfer call sites read the same
// as an explicit free() would, and so a future manual-memory backend has
// an obvious seam.
func Free(_ []byte) {}

// MemUsed returns bytes currently held by the Go heap.
func MemUsed() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapInuse
}

// MemFragmentationRatio approximates fragmentation as the fraction of
// heap space reserved from the OS that is not actively in use.
func MemFragmentationRatio() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	if m.HeapSys == 0 {
		return 0
	}
	return 1 - float64(m.HeapInuse)/float64(m.HeapSys)
}
