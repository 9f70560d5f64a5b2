package database

import "github.com/ringdb/ringdb/protocol"

func init() {
	RegisterCommand("DEL", execDel, true)
	RegisterCommand("EXISTS", execExists, false)
	RegisterCommand("MOVE", execMove, true)
	RegisterCommand("RENAME", execRename, true)
	RegisterCommand("RENAMENX", execRenameNx, true)
	RegisterCommand("TYPE", execType, false)
	RegisterCommand("FLUSHDB", execFlushDb, true)
}

func execDel(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	count := int64(0)
	for _, key := range tokens {
		if db.sl.Erase(key) {
			count++
		}
	}
	return intReply(count)
}

func execExists(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	count := int64(0)
	for _, key := range tokens {
		if _, ok := db.sl.Find(key); ok {
			count++
		}
	}
	return intReply(count)
}

func execMove(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	key := tokens[0]
	targetIdx, err := parseInt(tokens[1])
	if err != nil || targetIdx < 0 || uint64(targetIdx) >= NumDatabases {
		return errReply(ErrWrongInteger)
	}
	src := m.databaseAt(dbIndex)
	dst := m.databaseAt(uint64(targetIdx))
	if src == dst {
		return intReply(0)
	}
	// Deterministic lock ordering by ascending database index avoids
	// deadlock against a concurrent MOVE in the opposite direction.
	first, second := src, dst
	if second.index < first.index {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	e, ok := src.sl.Find(key)
	if !ok {
		return intReply(0)
	}
	if _, exists := dst.sl.Find(key); exists {
		return intReply(0)
	}
	src.sl.Erase(key)
	dst.sl.Insert(e)
	return intReply(1)
}

func execRename(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	oldKey, newKey := tokens[0], tokens[1]
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.sl.Find(oldKey)
	if !ok {
		return errReply(ErrNoSuchKey)
	}
	db.sl.Erase(oldKey)
	e.SetKey(newKey)
	db.sl.Insert(e)
	return statusReply("OK")
}

func execRenameNx(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 2 {
		return errReply(ErrWrongInteger)
	}
	oldKey, newKey := tokens[0], tokens[1]
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.sl.Find(oldKey)
	if !ok {
		return intReply(0)
	}
	if _, exists := db.sl.Find(newKey); exists {
		return intReply(0)
	}
	db.sl.Erase(oldKey)
	e.SetKey(newKey)
	db.sl.Insert(e)
	return intReply(1)
}

func execType(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	if len(tokens) != 1 {
		return errReply(ErrWrongInteger)
	}
	db := m.databaseAt(dbIndex)
	db.mu.RLock()
	defer db.mu.RUnlock()
	e, _ := db.sl.Find(tokens[0])
	return statusReply(typeName(e))
}

func execFlushDb(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply {
	db := m.databaseAt(dbIndex)
	db.mu.Lock()
	defer db.mu.Unlock()
	db.sl.Clear()
	return statusReply("OK")
}
