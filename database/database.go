// Package database implements the per-keyspace command operators (C3) and
// the 16-database dispatch/transaction/durability manager (C4).
package database

import (
	"strconv"
	"strings"
	"sync"

	"github.com/ringdb/ringdb/entry"
	"github.com/ringdb/ringdb/skiplist"
)

// Database is one indexed keyspace: a skip list guarded by a
// readers-writer lock. Read-only commands take the shared lock, mutating
// commands take the exclusive lock.
type Database struct {
	index uint64
	sl    *skiplist.SkipList
	mu    sync.RWMutex
}

func NewDatabase(index uint64) *Database {
	return &Database{index: index, sl: skiplist.New()}
}

func (d *Database) Index() uint64 { return d.index }

// SkipList exposes the underlying index. Callers outside a command body
// must hold d.mu themselves.
func (d *Database) SkipList() *skiplist.SkipList { return d.sl }

// tokenize splits a statement on single ASCII spaces with no escape
// processing, as spec'd for Database operators.
func tokenize(stmt string) []string {
	if stmt == "" {
		return nil
	}
	return strings.Split(stmt, " ")
}

// splitCommand separates the command word (up to the first space) from the
// remainder of a raw statement.
func splitCommand(statement string) (word, rest string) {
	if i := strings.IndexByte(statement, ' '); i >= 0 {
		return statement[:i], statement[i+1:]
	}
	return statement, ""
}

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrWrongInteger
	}
	return n, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrWrongInteger
	}
	return f, nil
}

// typeName reports the type tag string TYPE returns for a stored entry.
func typeName(e *entry.Entry) string {
	if e == nil {
		return "none"
	}
	return e.Type().String()
}
