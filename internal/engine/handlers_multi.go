package engine

// multiKeyCount runs a mutation callback across every entry matching expr
// and replies with the count of mutated entries, or ERR_NOT_FOUND when
// nothing was touched (spec §4.5's common multi-key contract).
func (s *Server) multiKeyCount(expr []byte, sink ReplySink, mutate func(key []byte, it *Item) int) {
	count := s.index.SearchCallback(expr, s.limits.MaxKeySize, mutate)
	if count == 0 {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}
	sink.EnqueueData(nil, int64(count), Number)
}

// guardedMutate wraps a per-entry mutator with the shared skip rules every
// multi-key handler except MUNLOCK obeys: skip locked entries, and detect
// and clean up expired ones, both without counting toward the reply.
func (s *Server) guardedMutate(mutate func(it *Item)) func(key []byte, it *Item) int {
	return func(key []byte, it *Item) int {
		if it == nil {
			return 0
		}
		if s.isLocked(it) {
			return 0
		}
		if !s.isNodeStillValid(it, key) {
			return 0
		}
		mutate(it)
		it.lastAccessTime = s.time
		return 1
	}
}

// handleMSet implements MSET <expr> <value>. Every matched, unlocked key
// gets a fresh single-value copy under the same compress-or-copy policy as
// SET (spec §4.4/§4.5) — this replaces the stored item wholesale rather than
// mutating it in place, so it drives its own SearchCallback instead of
// routing through multiKeyCount/guardedMutate.
func (s *Server) handleMSet(payload []byte, sink ReplySink) {
	if s.memPressured() {
		sink.EnqueueCode(ErrMem, false)
		return
	}
	expr, value, ok := parseKeyOptionalValue(payload, true, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}

	count := s.index.SearchCallback(expr, s.limits.MaxKeySize, func(key []byte, it *Item) int {
		if it == nil {
			return 0
		}
		if s.isLocked(it) {
			return 0
		}
		if !s.isNodeStillValid(it, key) {
			return 0
		}
		data, enc, rate, compressed := s.encodeForStore(value)
		fresh := s.createItem(enc, data, 0, len(data), -1, s.time)
		if compressed {
			s.recordCompressionRate(rate)
		}
		if prev := s.index.Insert(key, fresh); prev != nil {
			s.destroyItem(prev)
		}
		return 1
	})
	if count == 0 {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}
	sink.EnqueueData(nil, int64(count), Number)
}

// handleMTTL implements MTTL <expr> <ttl>.
func (s *Server) handleMTTL(payload []byte, sink ReplySink) {
	expr, ttlSpan, ok := parseKeyOptionalValue(payload, true, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}
	ttl, ok := parseLong(ttlSpan)
	if !ok {
		sink.EnqueueCode(ErrNaN, false)
		return
	}
	s.multiKeyCount(expr, sink, s.guardedMutate(func(it *Item) {
		it.ttl = s.clampTTL(ttl)
		it.time = s.time
	}))
}

// handleMDel implements MDEL <expr>.
func (s *Server) handleMDel(payload []byte, sink ReplySink) {
	expr, _, ok := parseKeyOptionalValue(payload, false, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}
	count := s.index.SearchCallback(expr, s.limits.MaxKeySize, func(key []byte, it *Item) int {
		if it == nil {
			return 0
		}
		if s.isLocked(it) {
			return 0
		}
		if !s.isNodeStillValid(it, key) {
			return 0
		}
		s.index.Tombstone(key)
		s.destroyItem(it)
		return 1
	})
	if count == 0 {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}
	sink.EnqueueData(nil, int64(count), Number)
}

// handleMIncDec implements MINC/MDEC <expr>.
func (s *Server) handleMIncDec(payload []byte, sink ReplySink, delta int64) {
	expr, _, ok := parseKeyOptionalValue(payload, false, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}
	s.multiKeyCount(expr, sink, func(key []byte, it *Item) int {
		if it == nil {
			return 0
		}
		if s.isLocked(it) {
			return 0
		}
		if !s.isNodeStillValid(it, key) {
			return 0
		}
		switch it.encoding {
		case Number:
			it.num += delta
		case Plain:
			n, ok := parseLong(it.data)
			if !ok {
				return 0
			}
			it.data = nil
			it.encoding = Number
			it.num = n + delta
			it.size = numberWordSize
			it.time = s.time
		default:
			return 0
		}
		it.lastAccessTime = s.time
		return 1
	})
}

// handleMLock implements MLOCK <expr> <secs>.
func (s *Server) handleMLock(payload []byte, sink ReplySink) {
	expr, secsSpan, ok := parseKeyOptionalValue(payload, true, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}
	secs, ok := parseLong(secsSpan)
	if !ok {
		sink.EnqueueCode(ErrNaN, false)
		return
	}
	s.multiKeyCount(expr, sink, s.guardedMutate(func(it *Item) {
		it.lock = secs
		it.time = s.time
	}))
}

// handleMUnlock implements MUNLOCK <expr>. Unlike every other multi-key
// mutator, it ignores lock state on the entries it visits.
func (s *Server) handleMUnlock(payload []byte, sink ReplySink) {
	expr, _, ok := parseKeyOptionalValue(payload, false, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}
	s.multiKeyCount(expr, sink, func(key []byte, it *Item) int {
		if it == nil {
			return 0
		}
		if !s.isNodeStillValid(it, key) {
			return 0
		}
		it.lock = 0
		it.lastAccessTime = s.time
		return 1
	})
}

// handleMGet implements MGET <expr>. The trailing token is required but
// unused: MGET shares its strict key+value parser with MSET, so a
// value-less MGET fails to parse (spec §9 open question, preserved here
// deliberately rather than "fixed").
func (s *Server) handleMGet(payload []byte, sink ReplySink) {
	expr, _, ok := parseKeyOptionalValue(payload, true, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}

	keys, values := s.index.SearchValues(expr, -1, s.limits.MaxKeySize)

	outKeys := keys[:0]
	outValues := values[:0]
	for i, k := range keys {
		it := values[i]
		if !s.isItemStillValid(it, k, true) {
			continue
		}
		it.lastAccessTime = s.time
		outKeys = append(outKeys, k)
		outValues = append(outValues, it)
	}

	if len(outKeys) == 0 {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}
	sink.EnqueueKV(outKeys, outValues)
}
