package engine

import (
	"github.com/golang/snappy"

	"github.com/exprkv/exprkv/internal/memheap"
)

// minCompressionSaving is the "at least 4 bytes of saving" bar spec §4.4
// sets before a compressed write is accepted over a plain copy.
const minCompressionSaving = 4

// encodeForStore implements the SET/MSET compress-or-copy policy: values
// larger than the compression threshold are run through the LZF-contract
// codec (here github.com/golang/snappy block encoding, stored without any
// marker byte: the item's encoding tag alone records that data is
// compressed); if compression doesn't save at least minCompressionSaving
// bytes, the value is stored PLAIN instead.
//
// Returns the owned bytes to store, the resulting encoding, and — when the
// result is LZF — the compression rate achieved (0-100) for the running
// average in Server.compravg.
func (s *Server) encodeForStore(value []byte) (data []byte, enc Encoding, rate float64, compressed bool) {
	if len(value) <= s.comprThreshold {
		return memheap.Memdup(value), Plain, 0, false
	}

	s.lzfScratch = growScratch(s.lzfScratch, snappy.MaxEncodedLen(len(value)))
	out := snappy.Encode(s.lzfScratch, value)

	if len(value)-len(out) < minCompressionSaving {
		return memheap.Memdup(value), Plain, 0, false
	}

	rate = 100 - 100*float64(len(out))/float64(len(value))
	return memheap.Memdup(out), LZF, rate, true
}

func growScratch(buf []byte, n int) []byte {
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]byte, n)
}

// recordCompressionRate folds a new sample into the running pairwise
// average spec §9 calls out as deliberate (not an arithmetic mean): the
// first sample sets the average outright, subsequent samples are averaged
// pairwise with the current average.
func (s *Server) recordCompressionRate(rate float64) {
	if s.ncompressedSamples == 0 {
		s.compravg = rate
	} else {
		s.compravg = (s.compravg + rate) / 2
	}
	s.ncompressedSamples++
}
