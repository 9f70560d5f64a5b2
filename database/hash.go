package database

import (
	"strconv"

	"github.com/ringdb/ringdb/entry"
	"github.com/ringdb/ringdb/protocol"
)

func init() {
	RegisterCommand("HDEL", execHDel, true)
	RegisterCommand("HEXISTS", execHExists, false)
	RegisterCommand("HGET", execHGet, false)
	RegisterCommand("HGETALL", execHGetAll, false)
	RegisterCommand("HINCRBY", execHIncrBy, true)
	RegisterCommand("HKEYS", execHKeys, false)
	RegisterCommand("HLEN", execHLen, false)
	RegisterCommand("HSET", execHSet, true)
	RegisterCommand("HSETNX", execHSetNx, true)
	RegisterCommand("HVALS", execHVals, false)
}

func findHash(db *Database, key string) (map[string]string, bool, error) {
	e, ok := db.sl.Find(key)
	if !ok {
		return nil, false, nil
	}
	h, err := e.Hash()
	if err != nil {
		return nil, true, ErrWrongType
	}
	return h, true, nil
}

func execHDel(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) < 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	h, _, err := findHash(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if h == nil {
		return intReply(0)
	}
	count := int64(0)
	for _, f := range tokens[1:] {
		if _, ok := h[f]; ok {
			delete(h, f)
			count++
		}
	}
	return intReply(count)
}

func execHExists(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	h, _, err := findHash(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if _, ok := h[tokens[1]]; ok {
		return intReply(1)
	}
	return intReply(0)
}

func execHGet(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	h, _, err := findHash(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	v, ok := h[tokens[1]]
	if !ok {
		return nilReply()
	}
	return stringReply(v)
}

func execHGetAll(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	h, _, err := findHash(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	out := make([]*protocol.Reply, 0, len(h)*2)
	for k, v := range h {
		out = append(out, stringReply(k), stringReply(v))
	}
	return arrayReply(out)
}

func execHIncrBy(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 3 {
		return errReply(ErrWrongInteger)
	}
	delta, err := parseInt(tokens[2])
	if err != nil {
		return errReply(err)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.sl.Find(tokens[0])
	var h map[string]string
	if !ok {
		e = entry.NewHash(tokens[0])
		db.sl.Insert(e)
		h, _ = e.Hash()
	} else {
		hv, herr := e.Hash()
		if herr != nil {
			return errReply(ErrWrongType)
		}
		h = hv
	}
	cur := int64(0)
	if existing, ok := h[tokens[1]]; ok {
		parsed, perr := strconv.ParseInt(existing, 10, 64)
		if perr != nil {
			return errReply(ErrWrongInteger)
		}
		cur = parsed
	}
	cur += delta
	h[tokens[1]] = strconv.FormatInt(cur, 10)
	return intReply(cur)
}

func execHKeys(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	h, _, err := findHash(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	out := make([]*protocol.Reply, 0, len(h))
	for k := range h {
		out = append(out, stringReply(k))
	}
	return arrayReply(out)
}

func execHLen(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	h, _, err := findHash(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	return intReply(int64(len(h)))
}

func execHSet(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 3 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.sl.Find(tokens[0])
	if !ok {
		e = entry.NewHash(tokens[0])
		db.sl.Insert(e)
	}
	h, err := e.Hash()
	if err != nil {
		return errReply(ErrWrongType)
	}
	_, existed := h[tokens[1]]
	h[tokens[1]] = tokens[2]
	if existed {
		return intReply(0)
	}
	return intReply(1)
}

func execHSetNx(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 3 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.sl.Find(tokens[0])
	if !ok {
		e = entry.NewHash(tokens[0])
		db.sl.Insert(e)
	}
	h, err := e.Hash()
	if err != nil {
		return errReply(ErrWrongType)
	}
	if _, exists := h[tokens[1]]; exists {
		return intReply(0)
	}
	h[tokens[1]] = tokens[2]
	return intReply(1)
}

func execHVals(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	h, _, err := findHash(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	out := make([]*protocol.Reply, 0, len(h))
	for _, v := range h {
		out = append(out, stringReply(v))
	}
	return arrayReply(out)
}
