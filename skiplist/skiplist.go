// Package skiplist implements the ordered concurrent-map index (without
// internal locking — the caller supplies synchronization) that backs each
// Database's keyspace.
package skiplist

import (
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/ringdb/ringdb/entry"
)

const maxLevel = 32

// seedCounter guarantees distinct seeds even when several SkipLists are
// constructed within the same nanosecond tick (e.g. a Manager building its
// 16 per-database lists back to back).
var seedCounter int64

type node struct {
	key   string
	entry *entry.Entry
	next  *node
	down  *node
}

// SkipList is an ordered index from string keys to *entry.Entry. Level 0
// holds every key; level L (L>0) is a strict subsequence sampled by
// independent coin flips at insert time. It provides no synchronization of
// its own — Database wraps it with a readers-writer lock.
type SkipList struct {
	sentinels [maxLevel]*node
	rng       *rand.Rand
}

// New builds an empty 32-level skip list, sentinel-array down-linked from
// the bottom level (0) up to the top (31) — sentinels[31].down eventually
// reaches sentinels[0] (down == nil), matching every traversal's "start at
// the top, descend via .down toward level 0" walk.
func New() *SkipList {
	seed := time.Now().UnixNano() + atomic.AddInt64(&seedCounter, 1)
	s := &SkipList{rng: rand.New(rand.NewSource(seed))}
	var below *node
	for lvl := 0; lvl < maxLevel; lvl++ {
		n := &node{key: ""}
		n.down = below
		s.sentinels[lvl] = n
		below = n
	}
	return s
}

func (s *SkipList) randomHeight() int {
	h := 0
	for h < maxLevel-1 && s.rng.Intn(2) == 0 {
		h++
	}
	return h
}

// Find returns the entry bound to key, starting at the top sentinel and
// descending only after exhausting rightward moves at each level.
func (s *SkipList) Find(key string) (*entry.Entry, bool) {
	cur := s.sentinels[maxLevel-1]
	for lvl := maxLevel - 1; lvl >= 0; lvl-- {
		for cur.next != nil && cur.next.key <= key {
			if cur.next.key == key {
				return cur.next.entry, true
			}
			cur = cur.next
		}
		if lvl > 0 {
			cur = cur.down
		}
	}
	return nil, false
}

// Insert upserts e under e.Key(). The traversal always starts at the top
// sentinel (level 31), not at the freshly sampled height — an existing key
// whose height exceeds the new sample still gets every one of its level
// references replaced with e, matching the invariant that all of a key's
// levels point at the same logical Entry. A brand-new key's tower is built
// in a second, bottom-up pass once every level's predecessor is known,
// since the down-links must point from high levels to the already-built
// lower ones, not the other way around.
func (s *SkipList) Insert(e *entry.Entry) {
	key := e.Key()
	height := s.randomHeight()
	cur := s.sentinels[maxLevel-1]
	var preds [maxLevel]*node
	exists := false
	for lvl := maxLevel - 1; lvl >= 0; lvl-- {
		for cur.next != nil && cur.next.key < key {
			cur = cur.next
		}
		preds[lvl] = cur
		if cur.next != nil && cur.next.key == key {
			cur.next.entry = e
			exists = true
		}
		if lvl > 0 {
			cur = cur.down
		}
	}
	if exists {
		return
	}
	var below *node
	for lvl := 0; lvl <= height; lvl++ {
		n := &node{key: key, entry: e, next: preds[lvl].next, down: below}
		preds[lvl].next = n
		below = n
	}
}

// Erase removes key from every level it occupies. Returns whether key was
// present.
func (s *SkipList) Erase(key string) bool {
	cur := s.sentinels[maxLevel-1]
	found := false
	for lvl := maxLevel - 1; lvl >= 0; lvl-- {
		for cur.next != nil && cur.next.key < key {
			cur = cur.next
		}
		if cur.next != nil && cur.next.key == key {
			cur.next = cur.next.next
			found = true
		}
		if lvl > 0 {
			cur = cur.down
		}
	}
	return found
}

// Len counts level-0 keys.
func (s *SkipList) Len() int {
	n := 0
	for cur := s.sentinels[0].next; cur != nil; cur = cur.next {
		n++
	}
	return n
}

// ForEach visits every key in ascending order, via the level-0 chain.
func (s *SkipList) ForEach(visit func(e *entry.Entry) bool) {
	for cur := s.sentinels[0].next; cur != nil; cur = cur.next {
		if !visit(cur.entry) {
			return
		}
	}
}

// Clear discards every key, resetting the list to empty.
func (s *SkipList) Clear() {
	for lvl := 0; lvl < maxLevel; lvl++ {
		s.sentinels[lvl].next = nil
	}
}

// Serialize scans level 0 and frames each entry with a u64 length prefix.
func (s *SkipList) Serialize() []byte {
	buf := make([]byte, 0, 256)
	for cur := s.sentinels[0].next; cur != nil; cur = cur.next {
		eb := cur.entry.Serialize()
		buf = entry.WriteU64(buf, uint64(len(eb)))
		buf = append(buf, eb...)
	}
	return buf
}

// DeserializeInto inserts every length-prefixed entry frame in data.
func (s *SkipList) DeserializeInto(data []byte) error {
	for len(data) > 0 {
		l, rest, err := entry.ReadU64(data)
		if err != nil {
			return err
		}
		if uint64(len(rest)) < l {
			return entry.ErrMalformed
		}
		e, err := entry.FromBytes(rest[:l])
		if err != nil {
			return err
		}
		s.Insert(e)
		data = rest[l:]
	}
	return nil
}
