package database

import (
	"github.com/ringdb/ringdb/entry"
	"github.com/ringdb/ringdb/protocol"
)

func init() {
	RegisterCommand("LINDEX", execLIndex, false)
	RegisterCommand("LLEN", execLLen, false)
	RegisterCommand("LPOP", execLPop, true)
	RegisterCommand("LPUSH", execLPush, true)
	RegisterCommand("LPUSHX", execLPushX, true)
	RegisterCommand("LSET", execLSet, true)
	RegisterCommand("LRANGE", execLRange, false)
	RegisterCommand("LREM", execLRem, true)
	RegisterCommand("RPUSH", execRPush, true)
	RegisterCommand("RPUSHX", execRPushX, true)
	RegisterCommand("RPOP", execRPop, true)
	RegisterCommand("RPOPLPUSH", execRPopLPush, true)
}

func findList(db *Database, key string) (*entry.DList, bool, error) {
	e, ok := db.sl.Find(key)
	if !ok {
		return nil, false, nil
	}
	l, err := e.List()
	if err != nil {
		return nil, true, ErrWrongType
	}
	return l, true, nil
}

func execLIndex(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	idx, err := parseInt(tokens[1])
	if err != nil {
		return errReply(err)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	l, _, ferr := findList(db, tokens[0])
	if ferr != nil {
		return errReply(ferr)
	}
	if l == nil {
		return nilReply()
	}
	v, ok := l.Get(int(idx))
	if !ok {
		return nilReply()
	}
	return stringReply(v)
}

func execLLen(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	l, _, err := findList(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if l == nil {
		return intReply(0)
	}
	return intReply(int64(l.Len()))
}

func execLPop(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	l, _, err := findList(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if l == nil {
		return nilReply()
	}
	v, ok := l.PopFront()
	if !ok {
		return nilReply()
	}
	return stringReply(v)
}

func execLPush(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) < 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.sl.Find(tokens[0])
	if !ok {
		e = entry.NewList(tokens[0])
		db.sl.Insert(e)
	}
	l, err := e.List()
	if err != nil {
		return errReply(ErrWrongType)
	}
	for _, v := range tokens[1:] {
		l.PushFront(v)
	}
	return intReply(int64(l.Len()))
}

func execLPushX(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) < 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	l, ok, err := findList(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return intReply(0)
	}
	for _, v := range tokens[1:] {
		l.PushFront(v)
	}
	return intReply(int64(l.Len()))
}

func execLSet(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 3 {
		return errReply(ErrWrongInteger)
	}
	idx, err := parseInt(tokens[1])
	if err != nil {
		return errReply(err)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	l, ok, ferr := findList(db, tokens[0])
	if ferr != nil {
		return errReply(ferr)
	}
	if !ok || !l.Set(int(idx), tokens[2]) {
		return errReply(ErrNoSuchKey)
	}
	return statusReply("OK")
}

func execLRange(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
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
	l, _, ferr := findList(db, tokens[0])
	if ferr != nil {
		return errReply(ferr)
	}
	if l == nil {
		return arrayReply(nil)
	}
	vals := l.Range(int(start), int(stop))
	out := make([]*protocol.Reply, 0, len(vals))
	for _, v := range vals {
		out = append(out, stringReply(v))
	}
	return arrayReply(out)
}

func execLRem(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 3 {
		return errReply(ErrWrongInteger)
	}
	count, err := parseInt(tokens[1])
	if err != nil {
		return errReply(err)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	l, _, ferr := findList(db, tokens[0])
	if ferr != nil {
		return errReply(ferr)
	}
	if l == nil {
		return intReply(0)
	}
	removed := l.RemoveByVal(tokens[2], int(count))
	return intReply(int64(removed))
}

func execRPush(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) < 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.sl.Find(tokens[0])
	if !ok {
		e = entry.NewList(tokens[0])
		db.sl.Insert(e)
	}
	l, err := e.List()
	if err != nil {
		return errReply(ErrWrongType)
	}
	for _, v := range tokens[1:] {
		l.PushBack(v)
	}
	return intReply(int64(l.Len()))
}

func execRPushX(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) < 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	l, ok, err := findList(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return intReply(0)
	}
	for _, v := range tokens[1:] {
		l.PushBack(v)
	}
	return intReply(int64(l.Len()))
}

func execRPop(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	l, _, err := findList(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if l == nil {
		return nilReply()
	}
	v, ok := l.PopBack()
	if !ok {
		return nilReply()
	}
	return stringReply(v)
}

func execRPopLPush(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	src, _, err := findList(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if src == nil {
		return nilReply()
	}
	v, ok := src.PopBack()
	if !ok {
		return nilReply()
	}
	e, dok := db.sl.Find(tokens[1])
	if !dok {
		e = entry.NewList(tokens[1])
		db.sl.Insert(e)
	}
	dst, derr := e.List()
	if derr != nil {
		return errReply(ErrWrongType)
	}
	dst.PushFront(v)
	return stringReply(v)
}
