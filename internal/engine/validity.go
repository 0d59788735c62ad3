package engine

// isItemStillValid is the sole place TTL is evaluated for a key that was
// resolved to an item by value. On expiry it optionally removes the key
// from the index and always destroys the item, then reports false.
func (s *Server) isItemStillValid(it *Item, key []byte, remove bool) bool {
	if it.ttl > 0 && s.time-it.time >= it.ttl {
		if remove {
			s.index.Remove(key)
		}
		s.destroyItem(it)
		return false
	}
	return true
}

// isNodeStillValid is the node-oriented counterpart spec §4.3 describes:
// on expiry it detaches the key via Tombstone, then destroys the item. With
// node handles hidden behind the Index facade, Tombstone is a full Remove
// (see index.go), so the two predicates converge on the same underlying
// call, matching the reimplementation the Design Notes sanction.
func (s *Server) isNodeStillValid(it *Item, key []byte) bool {
	if it.ttl > 0 && s.time-it.time >= it.ttl {
		s.index.Tombstone(key)
		s.destroyItem(it)
		return false
	}
	return true
}

// isLocked reports whether it is currently locked: permanently (lock == -1)
// or because fewer than lock seconds have elapsed since its anchor time.
func (s *Server) isLocked(it *Item) bool {
	return s.isLockedAt(it, s.time-it.time)
}

// isLockedAt is isLocked with an explicit elapsed-seconds value, for
// callers that already computed eta.
func (s *Server) isLockedAt(it *Item, eta int64) bool {
	if it.lock == -1 {
		return true
	}
	return eta < it.lock
}
