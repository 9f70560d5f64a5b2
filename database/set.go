package database

import (
	"math/rand"

	"github.com/ringdb/ringdb/entry"
	"github.com/ringdb/ringdb/protocol"
)

func init() {
	RegisterCommand("SADD", execSAdd, true)
	RegisterCommand("SREM", execSRem, true)
	RegisterCommand("SPOP", execSPop, true)
	RegisterCommand("SCARD", execSCard, false)
	RegisterCommand("SMEMBERS", execSMembers, false)
	RegisterCommand("SISMEMBER", execSIsMember, false)
	RegisterCommand("SINTER", execSInter, false)
	RegisterCommand("SINTERSTORE", execSInterStore, true)
	RegisterCommand("SUNION", execSUnion, false)
	RegisterCommand("SUNIONSTORE", execSUnionStore, true)
	RegisterCommand("SDIFF", execSDiff, false)
	RegisterCommand("SDIFFSTORE", execSDiffStore, true)
	RegisterCommand("SRANDMEMBER", execSRandMember, false)
}

func findSet(db *Database, key string) (map[string]struct{}, bool, error) {
	e, ok := db.sl.Find(key)
	if !ok {
		return nil, false, nil
	}
	s, err := e.Set()
	if err != nil {
		return nil, true, ErrWrongType
	}
	return s, true, nil
}

func execSAdd(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) < 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.sl.Find(tokens[0])
	if !ok {
		e = entry.NewSet(tokens[0])
		db.sl.Insert(e)
	}
	s, err := e.Set()
	if err != nil {
		return errReply(ErrWrongType)
	}
	count := int64(0)
	for _, mem := range tokens[1:] {
		if _, exists := s[mem]; !exists {
			s[mem] = struct{}{}
			count++
		}
	}
	return intReply(count)
}

func execSRem(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) < 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	s, _, err := findSet(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if s == nil {
		return intReply(0)
	}
	count := int64(0)
	for _, mem := range tokens[1:] {
		if _, exists := s[mem]; exists {
			delete(s, mem)
			count++
		}
	}
	return intReply(count)
}

func execSPop(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	s, _, err := findSet(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if len(s) == 0 {
		return nilReply()
	}
	target := rand.Intn(len(s))
	i := 0
	for mem := range s {
		if i == target {
			delete(s, mem)
			return stringReply(mem)
		}
		i++
	}
	return nilReply()
}

func execSCard(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, _, err := findSet(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	return intReply(int64(len(s)))
}

func execSMembers(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, _, err := findSet(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	out := make([]*protocol.Reply, 0, len(s))
	for mem := range s {
		out = append(out, stringReply(mem))
	}
	return arrayReply(out)
}

func execSIsMember(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, _, err := findSet(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if _, ok := s[tokens[1]]; ok {
		return intReply(1)
	}
	return intReply(0)
}

// setsFor resolves each key token to its set value, treating an absent key
// as an empty set and surfacing ErrWrongType on a type mismatch.
func setsFor(db *Database, keys []string) ([]map[string]struct{}, error) {
	sets := make([]map[string]struct{}, len(keys))
	for i, k := range keys {
		s, _, err := findSet(db, k)
		if err != nil {
			return nil, err
		}
		sets[i] = s
	}
	return sets, nil
}

func intersect(sets []map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	if len(sets) == 0 {
		return out
	}
	for mem := range sets[0] {
		in := true
		for _, s := range sets[1:] {
			if _, ok := s[mem]; !ok {
				in = false
				break
			}
		}
		if in {
			out[mem] = struct{}{}
		}
	}
	return out
}

func union(sets []map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range sets {
		for mem := range s {
			out[mem] = struct{}{}
		}
	}
	return out
}

func difference(sets []map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	if len(sets) == 0 {
		return out
	}
	for mem := range sets[0] {
		out[mem] = struct{}{}
	}
	for _, s := range sets[1:] {
		for mem := range s {
			delete(out, mem)
		}
	}
	return out
}

func setReply(s map[string]struct{}) *protocol.Reply {
	out := make([]*protocol.Reply, 0, len(s))
	for mem := range s {
		out = append(out, stringReply(mem))
	}
	return arrayReply(out)
}

func execSInter(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) == 0 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	sets, err := setsFor(db, tokens)
	if err != nil {
		return errReply(err)
	}
	return setReply(intersect(sets))
}

func storeSet(m *Manager, dbIndex uint64, destKey string, s map[string]struct{}) *protocol.Reply {
	db := m.databaseAt(dbIndex)
	e := entry.NewSet(destKey)
	dst, _ := e.Set()
	for mem := range s {
		dst[mem] = struct{}{}
	}
	db.sl.Insert(e)
	return intReply(int64(len(s)))
}

func execSInterStore(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) < 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	sets, err := setsFor(db, tokens[1:])
	if err != nil {
		return errReply(err)
	}
	return storeSet(m, dbIndex, tokens[0], intersect(sets))
}

func execSUnion(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) == 0 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	sets, err := setsFor(db, tokens)
	if err != nil {
		return errReply(err)
	}
	return setReply(union(sets))
}

func execSUnionStore(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) < 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	sets, err := setsFor(db, tokens[1:])
	if err != nil {
		return errReply(err)
	}
	return storeSet(m, dbIndex, tokens[0], union(sets))
}

func execSDiff(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) == 0 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	sets, err := setsFor(db, tokens)
	if err != nil {
		return errReply(err)
	}
	return setReply(difference(sets))
}

func execSDiffStore(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) < 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	sets, err := setsFor(db, tokens[1:])
	if err != nil {
		return errReply(err)
	}
	return storeSet(m, dbIndex, tokens[0], difference(sets))
}

func execSRandMember(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, _, err := findSet(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if len(s) == 0 {
		return nilReply()
	}
	target := rand.Intn(len(s))
	i := 0
	for mem := range s {
		if i == target {
			return stringReply(mem)
		}
		i++
	}
	return nilReply()
}
