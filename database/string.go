package database

import (
	"strconv"
	"strings"

	"github.com/ringdb/ringdb/entry"
	"github.com/ringdb/ringdb/protocol"
)

func init() {
	RegisterCommand("SET", execSet, true)
	RegisterCommand("GET", execGet, false)
	RegisterCommand("GETSET", execGetSet, true)
	RegisterCommand("GETRANGE", execGetRange, false)
	RegisterCommand("GETBIT", execGetBit, false)
	RegisterCommand("SETBIT", execSetBit, true)
	RegisterCommand("MGET", execMGet, false)
	RegisterCommand("SETNX", execSetNx, true)
	RegisterCommand("SETRANGE", execSetRange, true)
	RegisterCommand("STRLEN", execStrLen, false)
	RegisterCommand("MSET", execMSet, true)
	RegisterCommand("MSETNX", execMSetNx, true)
	RegisterCommand("INCR", execIncr, true)
	RegisterCommand("INCRBY", execIncrBy, true)
	RegisterCommand("DECR", execDecr, true)
	RegisterCommand("DECRBY", execDecrBy, true)
	RegisterCommand("APPEND", execAppend, true)
}

// findString fetches key's string value. Returns ok=false if absent, and
// ErrWrongType if the key holds a different type.
func findString(db *Database, key string) (string, bool, error) {
	e, ok := db.sl.Find(key)
	if !ok {
		return "", false, nil
	}
	v, err := e.String()
	if err != nil {
		return "", true, ErrWrongType
	}
	return v, true, nil
}

func execSet(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	db.sl.Insert(entry.NewString(tokens[0], tokens[1]))
	return statusReply("OK")
}

func execGet(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok, err := findString(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return nilReply()
	}
	return stringReply(v)
}

func execGetSet(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	old, ok, err := findString(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	db.sl.Insert(entry.NewString(tokens[0], tokens[1]))
	if !ok {
		return nilReply()
	}
	return stringReply(old)
}

func stringRange(s string, start, end int) string {
	length := len(s)
	if length == 0 {
		return ""
	}
	if start < 0 {
		start += length
	}
	if end < 0 {
		end += length
	}
	if start < 0 {
		start = 0
	}
	if end >= length {
		end = length - 1
	}
	if start > end || start >= length {
		return ""
	}
	return s[start : end+1]
}

func execGetRange(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 3 {
		return errReply(ErrWrongInteger)
	}
	start, err := parseInt(tokens[1])
	if err != nil {
		return errReply(err)
	}
	end, err := parseInt(tokens[2])
	if err != nil {
		return errReply(err)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, _, ferr := findString(db, tokens[0])
	if ferr != nil {
		return errReply(ferr)
	}
	return stringReply(stringRange(v, int(start), int(end)))
}

func execGetBit(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	offset, err := parseInt(tokens[1])
	if err != nil || offset < 0 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, _, ferr := findString(db, tokens[0])
	if ferr != nil {
		return errReply(ferr)
	}
	idx := int(offset) / 8
	if idx >= len(v) {
		return intReply(0)
	}
	bit := (v[idx] >> (uint(offset) % 8)) & 1
	return intReply(int64(bit))
}

func execSetBit(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 3 {
		return errReply(ErrWrongInteger)
	}
	offset, err := parseInt(tokens[1])
	if err != nil || offset < 0 {
		return errReply(ErrWrongInteger)
	}
	bitVal, err := parseInt(tokens[2])
	if err != nil || (bitVal != 0 && bitVal != 1) {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	v, ok, ferr := findString(db, tokens[0])
	if ferr != nil {
		return errReply(ferr)
	}
	buf := []byte(v)
	idx := int(offset) / 8
	if idx >= len(buf) {
		grown := make([]byte, idx+1)
		copy(grown, buf)
		buf = grown
	}
	bitPos := uint(offset) % 8
	prior := (buf[idx] >> bitPos) & 1
	if bitVal == 1 {
		buf[idx] |= 1 << bitPos
	} else {
		buf[idx] &^= 1 << bitPos
	}
	if !ok {
		db.sl.Insert(entry.NewString(tokens[0], string(buf)))
	} else {
		e, _ := db.sl.Find(tokens[0])
		e.SetString(string(buf))
	}
	return intReply(int64(prior))
}

func execMGet(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*protocol.Reply, 0, len(tokens))
	for _, key := range tokens {
		v, ok, err := findString(db, key)
		if err != nil || !ok {
			out = append(out, nilReply())
			continue
		}
		out = append(out, stringReply(v))
	}
	return arrayReply(out)
}

func execSetNx(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.sl.Find(tokens[0]); ok {
		return intReply(0)
	}
	db.sl.Insert(entry.NewString(tokens[0], tokens[1]))
	return intReply(1)
}

func execSetRange(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 3 {
		return errReply(ErrWrongInteger)
	}
	offset, err := parseInt(tokens[1])
	if err != nil || offset < 0 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	v, ok, ferr := findString(db, tokens[0])
	if ferr != nil {
		return errReply(ferr)
	}
	buf := []byte(v)
	needed := int(offset) + len(tokens[2])
	if needed > len(buf) {
		grown := make([]byte, needed)
		copy(grown, buf)
		for i := len(buf); i < int(offset); i++ {
			grown[i] = 0
		}
		buf = grown
	}
	copy(buf[offset:], tokens[2])
	if !ok {
		db.sl.Insert(entry.NewString(tokens[0], string(buf)))
	} else {
		e, _ := db.sl.Find(tokens[0])
		e.SetString(string(buf))
	}
	return intReply(int64(len(buf)))
}

func execStrLen(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, _, err := findString(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	return intReply(int64(len(v)))
}

func execMSet(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) == 0 || len(tokens)%2 != 0 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := 0; i < len(tokens); i += 2 {
		db.sl.Insert(entry.NewString(tokens[i], tokens[i+1]))
	}
	return statusReply("OK")
}

func execMSetNx(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) == 0 || len(tokens)%2 != 0 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := 0; i < len(tokens); i += 2 {
		if _, ok := db.sl.Find(tokens[i]); ok {
			return intReply(0)
		}
	}
	for i := 0; i < len(tokens); i += 2 {
		db.sl.Insert(entry.NewString(tokens[i], tokens[i+1]))
	}
	return intReply(int64(len(tokens) / 2))
}

// crement implements INCR/INCRBY/DECR/DECRBY: parse the current string
// value as a signed decimal, add delta (negated for decrements), and
// upsert the result.
func crement(db *Database, key string, delta int64) *protocol.Reply {
	db.mu.Lock()
	defer db.mu.Unlock()
	v, ok, err := findString(db, key)
	if err != nil {
		return errReply(err)
	}
	cur := int64(0)
	if ok {
		parsed, perr := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if perr != nil {
			return errReply(ErrWrongInteger)
		}
		cur = parsed
	}
	cur += delta
	if !ok {
		db.sl.Insert(entry.NewString(key, strconv.FormatInt(cur, 10)))
	} else {
		e, _ := db.sl.Find(key)
		e.SetString(strconv.FormatInt(cur, 10))
	}
	return intReply(cur)
}

func execIncr(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	return crement(m.databaseAt(dbIndex), tokens[0], 1)
}

func execIncrBy(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	n, err := parseInt(tokens[1])
	if err != nil {
		return errReply(err)
	}
	return crement(m.databaseAt(dbIndex), tokens[0], n)
}

func execDecr(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	return crement(m.databaseAt(dbIndex), tokens[0], -1)
}

func execDecrBy(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	n, err := parseInt(tokens[1])
	if err != nil {
		return errReply(err)
	}
	return crement(m.databaseAt(dbIndex), tokens[0], -n)
}

func execAppend(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	v, ok, err := findString(db, tokens[0])
	if err != nil {
		return errReply(err)
	}
	newVal := v + tokens[1]
	if !ok {
		db.sl.Insert(entry.NewString(tokens[0], newVal))
	} else {
		e, _ := db.sl.Find(tokens[0])
		e.SetString(newVal)
	}
	return intReply(int64(len(newVal)))
}
