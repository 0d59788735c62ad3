package engine

import (
	"bytes"

	"github.com/google/btree"

	"github.com/exprkv/exprkv/internal/bloom"
)

// entryRef is the ordered element stored in the tree: keys sort
// lexicographically as raw bytes, which is what makes a prefix expression a
// bounded ascending scan (AscendGreaterOrEqual(expr) until the key no
// longer has expr as a prefix).
type entryRef struct {
	key  string
	item *Item
}

func entryLess(a, b *entryRef) bool { return a.key < b.key }

// bloomRebuildThreshold triggers a full filter rebuild once too many
// tombstones have accumulated (a bloom filter cannot support deletion, so
// it goes stale after enough removals).
const bloomRebuildThreshold = 1000

// Index is the storage-index facade required by spec §3.2: point lookup,
// insert, remove, and two forms of bounded prefix traversal. It is backed
// by an ordered B-tree (github.com/google/btree) with a bloom filter used
// purely as a fast-negative check ahead of the tree probe.
type Index struct {
	tree   *btree.BTreeG[*entryRef]
	filter *bloom.Filter
	dirty  int
}

// NewIndex creates an empty storage index sized for an expected population.
func NewIndex(expectedItems int) *Index {
	if expectedItems < 1024 {
		expectedItems = 1024
	}
	return &Index{
		tree:   btree.NewG(32, entryLess),
		filter: bloom.NewOptimal(uint64(expectedItems), 0.01),
	}
}

// Find returns the item stored at key, if any.
func (ix *Index) Find(key []byte) (*Item, bool) {
	if !ix.filter.MayContain(key) {
		return nil, false
	}
	e, ok := ix.tree.Get(&entryRef{key: string(key)})
	if !ok {
		return nil, false
	}
	return e.item, true
}

// Insert stores item at key, returning the previously stored item (nil if
// key was not present). The caller is responsible for destroying the
// displaced item.
func (ix *Index) Insert(key []byte, item *Item) *Item {
	prev, existed := ix.tree.ReplaceOrInsert(&entryRef{key: string(key), item: item})
	if !existed {
		ix.filter.Add(key)
	}
	if existed {
		return prev.item
	}
	return nil
}

// Remove deletes key from the index, returning the removed item if present.
func (ix *Index) Remove(key []byte) *Item {
	prev, existed := ix.tree.Delete(&entryRef{key: string(key)})
	if !existed {
		return nil
	}
	ix.dirty++
	if ix.dirty >= bloomRebuildThreshold {
		ix.rebuildFilter()
	}
	return prev.item
}

// Tombstone removes key from the index. An in-place null-out of a node's
// data field (avoiding a full remove/rebalance) is one valid strategy;
// this facade instead performs a full Remove, per spec §9 — the observable
// contract (the key no longer resolves to a value) is identical either way.
func (ix *Index) Tombstone(key []byte) *Item {
	return ix.Remove(key)
}

// Len returns the number of keys currently indexed.
func (ix *Index) Len() int { return ix.tree.Len() }

func (ix *Index) rebuildFilter() {
	ix.filter = bloom.NewOptimal(uint64(ix.tree.Len()+1), 0.01)
	ix.tree.Ascend(func(e *entryRef) bool {
		ix.filter.Add([]byte(e.key))
		return true
	})
	ix.dirty = 0
}

func hasPrefix(key string, expr []byte) bool {
	return bytes.HasPrefix([]byte(key), expr)
}

// matchingKeys collects, in ascending order, every key with expr as a
// prefix, bounded by limit (-1 = unbounded) and maxKeyLen (0 = unbounded).
// Collecting the key list up front before invoking any callback gives the
// multi-key handlers traversal-snapshot semantics for free: a callback that
// mutates or replaces one of these keys can never cause the scan itself to
// revisit it, because the scan is already finished by the time callbacks run.
func (ix *Index) matchingKeys(expr []byte, limit int, maxKeyLen int) []string {
	var keys []string
	ix.tree.AscendGreaterOrEqual(&entryRef{key: string(expr)}, func(e *entryRef) bool {
		if !hasPrefix(e.key, expr) {
			return false
		}
		if maxKeyLen > 0 && len(e.key) > maxKeyLen {
			return true
		}
		keys = append(keys, e.key)
		if limit >= 0 && len(keys) >= limit {
			return false
		}
		return true
	})
	return keys
}

// SearchValues appends every (key, value) pair whose key starts with expr,
// bounded by limit and maxKeyLen. Returned keys are owned copies; values
// are the live items still owned by the index.
func (ix *Index) SearchValues(expr []byte, limit int, maxKeyLen int) (keys [][]byte, values []*Item) {
	for _, k := range ix.matchingKeys(expr, limit, maxKeyLen) {
		e, ok := ix.tree.Get(&entryRef{key: k})
		if !ok {
			continue
		}
		keys = append(keys, []byte(k))
		values = append(values, e.item)
	}
	return keys, values
}

// SearchKeys is the keys-only counterpart of SearchValues (spec §9's
// suggested dedicated variant, rather than repurposing the values stream).
func (ix *Index) SearchKeys(expr []byte, limit int, maxKeyLen int) [][]byte {
	matched := ix.matchingKeys(expr, limit, maxKeyLen)
	keys := make([][]byte, len(matched))
	for i, k := range matched {
		keys[i] = []byte(k)
	}
	return keys
}

// SearchCallback invokes cb(key, item) for every entry matching expr, in
// ascending key order, and returns the sum of cb's return values. The match
// set is snapshotted before any callback runs (see matchingKeys), so cb
// mutating the index (SET/DEL a matched key, inserting a new key under expr)
// never causes this traversal to revisit or skip entries because of its own
// side effects.
func (ix *Index) SearchCallback(expr []byte, maxKeyLen int, cb func(key []byte, item *Item) int) int {
	total := 0
	for _, k := range ix.matchingKeys(expr, -1, maxKeyLen) {
		e, ok := ix.tree.Get(&entryRef{key: k})
		var item *Item
		if ok {
			item = e.item
		}
		total += cb([]byte(k), item)
	}
	return total
}
