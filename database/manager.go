package database

import (
	"strconv"
	"strings"
	"sync"

	"github.com/ringdb/ringdb/entry"
	"github.com/ringdb/ringdb/protocol"
)

// NumDatabases is the fixed database count (spec.md §6 CLI surface: the
// only persistent configuration is compiled-in).
const NumDatabases = 16

// Snapshot-rotation thresholds, spec.md §4.4. Any one matching pair fires
// the same rotation; which pair matched is not recorded or logged.
const (
	thresholdTinyElapsed  = 60
	thresholdTinyWrites   = 10000
	thresholdMidElapsed   = 300
	thresholdMidWrites    = 10
	thresholdLargeElapsed = 900
	thresholdLargeWrites  = 1
)

// Session is the per-connection state owned by the Client holding the
// socket (C8 Context in spec.md terms).
type Session struct {
	DBIndex       uint64
	InTransaction bool
	Queued        []protocol.Answer
}

// Manager is the DatabaseManager (C4): the 16-database container plus the
// AOF buffer / active write buffer / rotation counters that drive the
// hybrid snapshot+AOF durability engine.
type Manager struct {
	databases [NumDatabases]*Database

	mu          sync.Mutex
	aofBuffer   []byte
	writeBuffer []byte
	elapsed     int
	writeCount  int
}

func NewManager() *Manager {
	m := &Manager{}
	for i := range m.databases {
		m.databases[i] = NewDatabase(uint64(i))
	}
	return m
}

func (m *Manager) databaseAt(i uint64) *Database {
	return m.databases[i]
}

// Query is the top-level dispatch entry point: session-level commands
// (SELECT/MULTI/DISCARD/EXEC/PING) are handled immediately regardless of
// transaction state; everything else is queued while in a transaction and
// executed immediately otherwise.
func (m *Manager) Query(sess *Session, answer protocol.Answer) *protocol.Reply {
	word, stmt := splitCommand(answer.Statement)
	upper := strings.ToUpper(word)

	switch upper {
	case "SELECT":
		return m.execSelect(sess, stmt)
	case "MULTI":
		sess.InTransaction = true
		sess.Queued = nil
		return protocol.StatusReply(sess.DBIndex, true, "OK")
	case "DISCARD":
		sess.Queued = nil
		sess.InTransaction = false
		return protocol.StatusReply(sess.DBIndex, false, "OK")
	case "EXEC":
		return m.execExec(sess)
	case "PING":
		return protocol.StatusReply(sess.DBIndex, sess.InTransaction, "PONG")
	}

	if sess.InTransaction {
		sess.Queued = append(sess.Queued, answer)
		return protocol.StatusReply(sess.DBIndex, true, "QUEUED")
	}

	return m.execute(sess, upper, stmt, true)
}

func (m *Manager) execSelect(sess *Session, stmt string) *protocol.Reply {
	n, err := strconv.ParseUint(strings.TrimSpace(stmt), 10, 64)
	if err != nil || n >= NumDatabases {
		return protocol.ErrorReply(sess.DBIndex, sess.InTransaction, ErrWrongInteger)
	}
	sess.DBIndex = n
	m.recordAOF("SELECT " + stmt)
	return protocol.StatusReply(n, sess.InTransaction, "OK")
}

// execExec clears in_transaction before replaying so the queued statements
// run non-transactionally; individual statement errors do not abort the
// batch.
func (m *Manager) execExec(sess *Session) *protocol.Reply {
	sess.InTransaction = false
	queued := sess.Queued
	sess.Queued = nil
	results := make([]*protocol.Reply, 0, len(queued))
	for _, a := range queued {
		word, stmt := splitCommand(a.Statement)
		results = append(results, m.execute(sess, strings.ToUpper(word), stmt, true))
	}
	return protocol.ArrayReply(sess.DBIndex, false, results)
}

// execute looks up and runs a single non-session-level command, stamping
// the session's envelope onto the result and, when record is true and the
// command is in the AOF write set, appending it to the AOF buffer.
func (m *Manager) execute(sess *Session, word, stmt string, record bool) *protocol.Reply {
	cmd, ok := lookupCommand(word)
	if !ok {
		return protocol.ErrorReply(sess.DBIndex, sess.InTransaction, ErrUnknownCommand)
	}
	reply := cmd.exec(m, sess.DBIndex, tokenize(stmt))
	reply = reply.WithEnvelope(sess.DBIndex, sess.InTransaction)
	if record && cmd.isWrite {
		full := word
		if stmt != "" {
			full += " " + stmt
		}
		m.recordAOF(full)
	}
	return reply
}

func (m *Manager) recordAOF(statement string) {
	m.mu.Lock()
	m.aofBuffer = entry.WriteLenStr(m.aofBuffer, statement)
	m.writeCount++
	m.mu.Unlock()
}

// IsWritable matches spec.md §4.4: true iff no write is currently in
// flight and either the AOF buffer is non-empty or a rotation threshold
// has fired. On a threshold fire, resets the counters and stages a full
// snapshot instead of the AOF buffer.
func (m *Manager) IsWritable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.writeBuffer) > 0 {
		return false
	}
	m.elapsed++
	if m.rotationDue() {
		m.elapsed = 0
		m.aofBuffer = nil
		m.writeCount = 0
		m.writeBuffer = m.snapshotLocked()
		return true
	}
	if len(m.aofBuffer) > 0 {
		m.writeBuffer = m.aofBuffer
		m.aofBuffer = nil
		return true
	}
	return false
}

func (m *Manager) rotationDue() bool {
	if m.elapsed >= thresholdLargeElapsed && m.writeCount >= thresholdLargeWrites {
		return true
	}
	if m.elapsed >= thresholdMidElapsed && m.writeCount >= thresholdMidWrites {
		return true
	}
	if m.elapsed >= thresholdTinyElapsed && m.writeCount >= thresholdTinyWrites {
		return true
	}
	return false
}

// IsCanTruncate is true exactly when a snapshot payload (not an AOF
// append) is queued in writeBuffer.
func (m *Manager) IsCanTruncate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed == 0 && len(m.writeBuffer) > 0
}

// WriteBuffer returns the bytes the Scheduler should write (truncate-then-
// write for a snapshot, append for an AOF flush).
func (m *Manager) WriteBuffer() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeBuffer
}

// ClearWriteBuffer is called once the staged write has actually reached
// the file, satisfying the invariant that only one of writeBuffer/AOF
// buffer is ever being drained.
func (m *Manager) ClearWriteBuffer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeBuffer = nil
}

func (m *Manager) snapshotLocked() []byte {
	buf := make([]byte, 0, 1024)
	for _, db := range m.databases {
		db.mu.RLock()
		sb := db.sl.Serialize()
		db.mu.RUnlock()
		buf = entry.WriteU64(buf, uint64(len(sb)))
		buf = append(buf, sb...)
	}
	return buf
}

// Snapshot produces a full snapshot image on demand, independent of the
// elapsed/write_count thresholds and without staging it in writeBuffer.
func (m *Manager) Snapshot() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// ForceRotation simulates a threshold firing — used by tests exercising
// S6 without waiting on the real timer.
func (m *Manager) ForceRotation() {
	m.mu.Lock()
	m.elapsed = 0
	m.aofBuffer = nil
	m.writeCount = 0
	m.writeBuffer = m.snapshotLocked()
	m.mu.Unlock()
}

// LoadFromBytes replays a persistence file exactly as spec.md §4.4
// describes recovery: 16 length-prefixed skiplist frames, then zero or
// more length-prefixed Answer frames re-dispatched with AOF recording
// disabled.
func (m *Manager) LoadFromBytes(data []byte) error {
	for i := 0; i < NumDatabases; i++ {
		l, rest, err := entry.ReadU64(data)
		if err != nil {
			return err
		}
		if uint64(len(rest)) < l {
			return entry.ErrMalformed
		}
		if l > 0 {
			if err := m.databases[i].sl.DeserializeInto(rest[:l]); err != nil {
				return err
			}
		}
		data = rest[l:]
	}

	sess := &Session{}
	for len(data) > 0 {
		l, rest, err := entry.ReadU64(data)
		if err != nil {
			return err
		}
		if uint64(len(rest)) < l {
			return entry.ErrMalformed
		}
		answer := protocol.AnswerFromBytes(rest[:l])
		word, stmt := splitCommand(answer.Statement)
		upper := strings.ToUpper(word)
		if upper == "SELECT" {
			if n, perr := strconv.ParseUint(strings.TrimSpace(stmt), 10, 64); perr == nil && n < NumDatabases {
				sess.DBIndex = n
			}
		} else {
			m.execute(sess, upper, stmt, false)
		}
		data = rest[l:]
	}
	return nil
}
