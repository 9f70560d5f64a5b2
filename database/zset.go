package database

import (
	"strconv"

	"github.com/ringdb/ringdb/entry"
	"github.com/ringdb/ringdb/protocol"
)

func init() {
	RegisterCommand("ZADD", execZAdd, true)
	RegisterCommand("ZSCORE", execZScore, false)
	RegisterCommand("ZRANK", execZRank, false)
	RegisterCommand("ZRANGE", execZRange, false)
	RegisterCommand("ZREM", execZRem, true)
	RegisterCommand("ZCARD", execZCard, false)
	RegisterCommand("ZINCRBY", execZIncrBy, true)
}

func findZSet(db *Database, key string) ([]entry.ZMember, bool, error) {
	e, ok := db.sl.Find(key)
	if !ok {
		return nil, false, nil
	}
	z, err := e.SortedSet()
	if err != nil {
		return nil, true, ErrWrongType
	}
	return z, true, nil
}

func execZAdd(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) < 3 || len(tokens)%2 != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.sl.Find(tokens[0])
	if !ok {
		e = entry.NewSortedSet(tokens[0])
		db.sl.Insert(e)
	}
	if _, err := e.SortedSet(); err != nil {
		return errReply(ErrWrongType)
	}
	added := int64(0)
	for i := 1; i < len(tokens); i += 2 {
		score, err := parseFloat(tokens[i])
		if err != nil {
			return errReply(err)
		}
		if e.ZAdd(tokens[i+1], score) {
			added++
		}
	}
	return intReply(added)
}

func execZScore(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	e, ok := db.sl.Find(tokens[0])
	if !ok {
		return nilReply()
	}
	if _, err := e.SortedSet(); err != nil {
		return errReply(ErrWrongType)
	}
	score, ok := e.ZScore(tokens[1])
	if !ok {
		return nilReply()
	}
	return stringReply(strconv.FormatFloat(score, 'g', -1, 64))
}

func execZRank(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	e, ok := db.sl.Find(tokens[0])
	if !ok {
		return nilReply()
	}
	if _, err := e.SortedSet(); err != nil {
		return errReply(ErrWrongType)
	}
	rank, ok := e.ZRank(tokens[1])
	if !ok {
		return nilReply()
	}
	return intReply(int64(rank))
}

func execZRange(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 3 {
		return errReply(ErrWrongInteger)
	}
	start, err := parseInt(tokens[1])
	if err != nil {
		return errReply(err)
	}
	stop, err := parseInt(tokens[2])
	if err != nil {
		return errReply(err)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	z, _, ferr := findZSet(db, tokens[0])
	if ferr != nil {
		return errReply(ferr)
	}
	n := len(z)
	s, stp := int(start), int(stop)
	if s < 0 {
		s += n
	}
	if stp < 0 {
		stp += n
	}
	if s < 0 {
		s = 0
	}
	if stp >= n {
		stp = n - 1
	}
	out := make([]*protocol.Reply, 0)
	for i := s; i <= stp && i < n && i >= 0; i++ {
		out = append(out, stringReply(z[i].Member))
	}
	return arrayReply(out)
}

func execZRem(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) < 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.sl.Find(tokens[0])
	if !ok {
		return intReply(0)
	}
	if _, err := e.SortedSet(); err != nil {
		return errReply(ErrWrongType)
	}
	count := int64(0)
	for _, mem := range tokens[1:] {
		if e.ZRem(mem) {
			count++
		}
	}
	return intReply(count)
}

func execZCard(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	z, _, err := findZSet(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	return intReply(int64(len(z)))
}

func execZIncrBy(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 3 {
		return errReply(ErrWrongInteger)
	}
	delta, err := parseFloat(tokens[1])
	if err != nil {
		return errReply(err)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.sl.Find(tokens[0])
	if !ok {
		e = entry.NewSortedSet(tokens[0])
		db.sl.Insert(e)
	}
	if _, serr := e.SortedSet(); serr != nil {
		return errReply(ErrWrongType)
	}
	newScore := e.ZIncrBy(tokens[2], delta)
	return stringReply(strconv.FormatFloat(newScore, 'g', -1, 64))
}
