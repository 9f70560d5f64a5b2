// Package entry implements the tagged polymorphic value stored at each
// SkipList key, along with its binary codec.
package entry

import (
	"errors"
	"sort"
)

// ErrWrongType is returned by a typed accessor when the Entry's active arm
// does not match the requested type.
var ErrWrongType = errors.New("wrong type")

// ErrMalformed is returned by FromBytes on truncated or unrecognised input.
var ErrMalformed = errors.New("malformed entry data")

// Type is the discriminant selecting which arm of Entry's value union is
// active.
type Type byte

const (
	TypeString Type = iota
	TypeHash
	TypeList
	TypeSet
	TypeSortedSet
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeHash:
		return "hash"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	case TypeSortedSet:
		return "zset"
	default:
		return "none"
	}
}

// ZMember is one (member, score) pair of a sorted-set Entry.
type ZMember struct {
	Member string
	Score  float64
}

// Entry is one record in a Database: a key plus a tagged union value. The
// type tag always matches the active field below; the unused fields stay
// nil/zero. A single Entry may be referenced from several SkipList levels
// at once — Go's garbage collector makes the shared pointer safe, so no
// arena/handle indirection is needed.
type Entry struct {
	key string
	typ Type

	str  string
	hash map[string]string
	list *DList
	set  map[string]struct{}
	zset []ZMember
	zidx map[string]int
}

func NewString(key, val string) *Entry {
	return &Entry{key: key, typ: TypeString, str: val}
}

func NewHash(key string) *Entry {
	return &Entry{key: key, typ: TypeHash, hash: make(map[string]string)}
}

func NewList(key string) *Entry {
	return &Entry{key: key, typ: TypeList, list: NewDList()}
}

func NewSet(key string) *Entry {
	return &Entry{key: key, typ: TypeSet, set: make(map[string]struct{})}
}

func NewSortedSet(key string) *Entry {
	return &Entry{key: key, typ: TypeSortedSet, zidx: make(map[string]int)}
}

func (e *Entry) Key() string    { return e.key }
func (e *Entry) Type() Type     { return e.typ }
func (e *Entry) SetKey(k string) { e.key = k }

// String returns the string arm, or ErrWrongType.
func (e *Entry) String() (string, error) {
	if e.typ != TypeString {
		return "", ErrWrongType
	}
	return e.str, nil
}

func (e *Entry) SetString(v string) { e.str = v }

// Hash returns the mutable hash arm, or ErrWrongType.
func (e *Entry) Hash() (map[string]string, error) {
	if e.typ != TypeHash {
		return nil, ErrWrongType
	}
	return e.hash, nil
}

// List returns the mutable list arm, or ErrWrongType.
func (e *Entry) List() (*DList, error) {
	if e.typ != TypeList {
		return nil, ErrWrongType
	}
	return e.list, nil
}

// Set returns the mutable set arm, or ErrWrongType.
func (e *Entry) Set() (map[string]struct{}, error) {
	if e.typ != TypeSet {
		return nil, ErrWrongType
	}
	return e.set, nil
}

// SortedSet returns the zset arm's members in score-then-member order, or
// ErrWrongType.
func (e *Entry) SortedSet() ([]ZMember, error) {
	if e.typ != TypeSortedSet {
		return nil, ErrWrongType
	}
	return e.zset, nil
}

func zLess(a ZMember, bScore float64, bMember string) bool {
	if a.Score != bScore {
		return a.Score < bScore
	}
	return a.Member < bMember
}

func (e *Entry) zInsert(m ZMember) {
	i := sort.Search(len(e.zset), func(i int) bool {
		return !zLess(e.zset[i], m.Score, m.Member)
	})
	e.zset = append(e.zset, ZMember{})
	copy(e.zset[i+1:], e.zset[i:])
	e.zset[i] = m
	e.reindexFrom(i)
}

func (e *Entry) reindexFrom(i int) {
	for ; i < len(e.zset); i++ {
		e.zidx[e.zset[i].Member] = i
	}
}

func (e *Entry) zRemoveAt(idx int) {
	member := e.zset[idx].Member
	e.zset = append(e.zset[:idx], e.zset[idx+1:]...)
	delete(e.zidx, member)
	e.reindexFrom(idx)
}

// ZAdd inserts or updates member's score, keeping the slice sorted by
// (score, member). Returns true if member was newly added.
func (e *Entry) ZAdd(member string, score float64) bool {
	if idx, ok := e.zidx[member]; ok {
		if e.zset[idx].Score == score {
			return false
		}
		e.zRemoveAt(idx)
		e.zInsert(ZMember{Member: member, Score: score})
		return false
	}
	e.zInsert(ZMember{Member: member, Score: score})
	return true
}

func (e *Entry) ZRem(member string) bool {
	idx, ok := e.zidx[member]
	if !ok {
		return false
	}
	e.zRemoveAt(idx)
	return true
}

func (e *Entry) ZScore(member string) (float64, bool) {
	idx, ok := e.zidx[member]
	if !ok {
		return 0, false
	}
	return e.zset[idx].Score, true
}

func (e *Entry) ZRank(member string) (int, bool) {
	idx, ok := e.zidx[member]
	return idx, ok
}

func (e *Entry) ZIncrBy(member string, delta float64) float64 {
	cur, ok := e.ZScore(member)
	if ok {
		e.zRemoveAt(e.zidx[member])
	}
	newScore := cur + delta
	e.zInsert(ZMember{Member: member, Score: newScore})
	return newScore
}

func (e *Entry) ZCard() int { return len(e.zset) }

// Serialize produces the entry's wire bytes: type, length-prefixed key, and
// a type-specific body. The body carries no overall length prefix of its
// own — the enclosing container (SkipList level-0 scan, or an AOF/snapshot
// frame) supplies the exact length that bounds FromBytes' parse.
func (e *Entry) Serialize() []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(e.typ))
	buf = WriteLenStr(buf, e.key)
	switch e.typ {
	case TypeString:
		buf = append(buf, e.str...)
	case TypeHash:
		for k, v := range e.hash {
			buf = WriteLenStr(buf, k)
			buf = WriteLenStr(buf, v)
		}
	case TypeList:
		e.list.ForEach(func(_ int, v string) bool {
			buf = WriteLenStr(buf, v)
			return true
		})
	case TypeSet:
		for m := range e.set {
			buf = WriteLenStr(buf, m)
		}
	case TypeSortedSet:
		for _, m := range e.zset {
			buf = WriteU64(buf, uint64(len(m.Member)+8))
			buf = append(buf, m.Member...)
			buf = WriteF64(buf, m.Score)
		}
	}
	return buf
}

// FromBytes parses a single entry frame produced by Serialize. data must
// contain exactly one entry (the caller's container already stripped the
// framing length) — variable-arity bodies are parsed until data runs out.
func FromBytes(data []byte) (*Entry, error) {
	if len(data) < 1 {
		return nil, ErrMalformed
	}
	typ := Type(data[0])
	data = data[1:]
	key, data, err := ReadLenStr(data)
	if err != nil {
		return nil, err
	}
	switch typ {
	case TypeString:
		return NewString(key, string(data)), nil
	case TypeHash:
		e := NewHash(key)
		for len(data) > 0 {
			var k, v string
			k, data, err = ReadLenStr(data)
			if err != nil {
				return nil, err
			}
			v, data, err = ReadLenStr(data)
			if err != nil {
				return nil, err
			}
			e.hash[k] = v
		}
		return e, nil
	case TypeList:
		e := NewList(key)
		for len(data) > 0 {
			var v string
			v, data, err = ReadLenStr(data)
			if err != nil {
				return nil, err
			}
			e.list.PushBack(v)
		}
		return e, nil
	case TypeSet:
		e := NewSet(key)
		for len(data) > 0 {
			var v string
			v, data, err = ReadLenStr(data)
			if err != nil {
				return nil, err
			}
			e.set[v] = struct{}{}
		}
		return e, nil
	case TypeSortedSet:
		e := NewSortedSet(key)
		for len(data) > 0 {
			var l uint64
			l, data, err = ReadU64(data)
			if err != nil {
				return nil, err
			}
			if l < 8 || uint64(len(data)) < l {
				return nil, ErrMalformed
			}
			member := string(data[:l-8])
			score, _, ferr := ReadF64(data[l-8 : l])
			if ferr != nil {
				return nil, ferr
			}
			data = data[l:]
			e.ZAdd(member, score)
		}
		return e, nil
	default:
		return nil, ErrMalformed
	}
}
