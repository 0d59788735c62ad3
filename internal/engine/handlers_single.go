package engine

import "bytes"

// lookupValid finds key and, if present, checks it hasn't expired,
// destroying and detaching it on the way out if it has. TTL, GET, LOCK,
// UNLOCK and META go through it; SET, DEL and INC/DEC call Find directly
// and order their own lock and expiry checks.
func (s *Server) lookupValid(key []byte) (*Item, bool) {
	it, ok := s.index.Find(key)
	if !ok {
		return nil, false
	}
	if !s.isItemStillValid(it, key, true) {
		return nil, false
	}
	return it, true
}

// handleSet implements SET <ttl> <key> <value> (spec §4.4).
func (s *Server) handleSet(payload []byte, sink ReplySink) {
	if s.memPressured() {
		sink.EnqueueCode(ErrMem, false)
		return
	}

	ttlSpan, key, value, ok := parseTTLKeyValue(payload, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}
	ttl, ok := parseLong(ttlSpan)
	if !ok {
		sink.EnqueueCode(ErrNaN, false)
		return
	}

	if existing, found := s.index.Find(key); found && s.isLocked(existing) {
		sink.EnqueueCode(ErrLocked, false)
		return
	}

	data, enc, rate, compressed := s.encodeForStore(value)
	it := s.createItem(enc, data, 0, len(data), -1, s.time)
	if compressed {
		s.recordCompressionRate(rate)
	}

	if ttl > 0 {
		it.ttl = s.clampTTL(ttl)
		it.time = s.time
	}

	if prev := s.index.Insert(key, it); prev != nil {
		s.destroyItem(prev)
	}

	sink.EnqueueItem(it)
}

// handleTTL implements TTL <key> <ttl>.
func (s *Server) handleTTL(payload []byte, sink ReplySink) {
	key, ttlSpan, ok := parseKeyOptionalValue(payload, true, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}
	it, ok := s.lookupValid(key)
	if !ok {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}
	ttl, ok := parseLong(ttlSpan)
	if !ok {
		sink.EnqueueCode(ErrNaN, false)
		return
	}
	it.ttl = s.clampTTL(ttl)
	it.time = s.time
	it.lastAccessTime = s.time
	sink.EnqueueCode(OK, false)
}

// handleGet implements GET <key>.
func (s *Server) handleGet(payload []byte, sink ReplySink) {
	key, _, ok := parseKeyOptionalValue(payload, false, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}
	it, ok := s.lookupValid(key)
	if !ok {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}
	it.lastAccessTime = s.time
	sink.EnqueueItem(it)
}

// handleDel implements DEL <key>.
func (s *Server) handleDel(payload []byte, sink ReplySink) {
	key, _, ok := parseKeyOptionalValue(payload, false, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}
	it, found := s.index.Find(key)
	if !found {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}
	if s.isLocked(it) {
		sink.EnqueueCode(ErrLocked, false)
		return
	}
	if !s.isItemStillValid(it, key, true) {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}
	s.index.Tombstone(key)
	s.destroyItem(it)
	sink.EnqueueCode(OK, false)
}

// handleIncDec implements INC/DEC <key> with delta = +1/-1.
func (s *Server) handleIncDec(payload []byte, sink ReplySink, delta int64) {
	key, _, ok := parseKeyOptionalValue(payload, false, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}

	it, found := s.index.Find(key)
	if !found {
		it := s.createItem(Number, nil, 1, numberWordSize, -1, s.time)
		s.index.Insert(key, it)
		sink.EnqueueItem(it)
		return
	}
	if !s.isItemStillValid(it, key, true) {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}
	if s.isLocked(it) {
		sink.EnqueueCode(ErrLocked, false)
		return
	}

	switch it.encoding {
	case Number:
		it.num += delta
	case Plain:
		n, ok := parseLong(it.data)
		if !ok {
			sink.EnqueueCode(ErrNaN, false)
			return
		}
		it.data = nil
		it.encoding = Number
		it.num = n + delta
		it.size = numberWordSize
		it.time = s.time
	default:
		sink.EnqueueCode(ErrNaN, false)
		return
	}
	it.lastAccessTime = s.time
	sink.EnqueueItem(it)
}

// handleLock implements LOCK <key> <secs>.
func (s *Server) handleLock(payload []byte, sink ReplySink) {
	key, secsSpan, ok := parseKeyOptionalValue(payload, true, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}
	it, ok := s.lookupValid(key)
	if !ok {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}
	secs, ok := parseLong(secsSpan)
	if !ok {
		sink.EnqueueCode(ErrNaN, false)
		return
	}
	if s.isLocked(it) {
		sink.EnqueueCode(ErrLocked, false)
		return
	}
	it.lock = secs
	it.time = s.time
	sink.EnqueueCode(OK, false)
}

// handleUnlock implements UNLOCK <key>. Like TTL, it ignores the current
// lock state entirely; SET, DEL, INC/DEC and LOCK refuse a locked item.
func (s *Server) handleUnlock(payload []byte, sink ReplySink) {
	key, _, ok := parseKeyOptionalValue(payload, false, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}
	it, ok := s.lookupValid(key)
	if !ok {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}
	it.lock = 0
	it.lastAccessTime = s.time
	sink.EnqueueCode(OK, false)
}

var metaFields = []string{"size", "encoding", "access", "created", "ttl", "left", "lock"}

// handleMeta implements META <key> <field>.
func (s *Server) handleMeta(payload []byte, sink ReplySink) {
	key, field, ok := parseKeyOptionalValue(payload, true, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}
	it, ok := s.lookupValid(key)
	if !ok {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}

	matched := matchMetaField(field)
	if matched == "" {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}

	var value int64
	switch matched {
	case "size":
		value = int64(it.size)
	case "encoding":
		value = int64(it.encoding)
	case "access":
		value = it.lastAccessTime
	case "created":
		value = it.time
	case "ttl":
		value = it.ttl
	case "left":
		if it.ttl <= 0 {
			value = -1
		} else {
			value = it.ttl - (s.time - it.time)
		}
	case "lock":
		value = it.lock
	}
	sink.EnqueueData(nil, value, Number)
}

// matchMetaField matches field against metaFields by prefix, in declaration
// order, returning the first match. A prefix like "l" matching both "left"
// and "lock" resolves to "left" rather than erroring — first match wins,
// no ambiguity detection.
func matchMetaField(field []byte) string {
	if len(field) == 0 {
		return ""
	}
	for _, f := range metaFields {
		if bytes.HasPrefix([]byte(f), field) {
			return f
		}
	}
	return ""
}

// handleKeys implements KEYS <expr>.
func (s *Server) handleKeys(payload []byte, sink ReplySink) {
	expr, _, ok := parseKeyOptionalValue(payload, false, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}

	matched := s.index.SearchKeys(expr, -1, s.limits.MaxKeySize)
	if len(matched) == 0 {
		sink.EnqueueCode(ErrNotFound, false)
		return
	}

	s.resetScratch()
	positions := make([][]byte, len(matched))
	items := make([]*Item, len(matched))
	for i, k := range matched {
		positions[i] = []byte(itoa(i))
		items[i] = s.createVolatileItem(Plain, k, 0, len(k))
	}
	sink.EnqueueKV(positions, items)
	for _, it := range items {
		s.destroyVolatileItem(it)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// handleCount implements COUNT <expr>.
func (s *Server) handleCount(payload []byte, sink ReplySink) {
	expr, _, ok := parseKeyOptionalValue(payload, false, s.limits.MaxKeySize, s.limits.MaxValueSize)
	if !ok {
		sink.EnqueueCode(ErrGeneric, false)
		return
	}

	tally := s.index.SearchCallback(expr, s.limits.MaxKeySize, func(key []byte, it *Item) int {
		if it == nil {
			return 0
		}
		if !s.isNodeStillValid(it, key) {
			return 0
		}
		it.lastAccessTime = s.time
		return 1
	})
	sink.EnqueueData(nil, int64(tally), Number)
}
