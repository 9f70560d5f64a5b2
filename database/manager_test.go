package database

import (
	"testing"

	"github.com/ringdb/ringdb/protocol"
)

func query(m *Manager, sess *Session, statement string) *protocol.Reply {
	return m.Query(sess, protocol.NewAnswer(statement))
}

// S1 — string lifecycle.
func TestScenarioStringLifecycle(t *testing.T) {
	m := NewManager()
	sess := &Session{}
	if r := query(m, sess, "SELECT 0"); r.Type != protocol.TypeStatus || r.Text != "OK" {
		t.Fatalf("SELECT: %+v", r)
	}
	if r := query(m, sess, "SET foo bar"); r.Text != "OK" {
		t.Fatalf("SET: %+v", r)
	}
	if r := query(m, sess, "GET foo"); r.Text != "bar" {
		t.Fatalf("GET: %+v", r)
	}
	if r := query(m, sess, "STRLEN foo"); r.Int != 3 {
		t.Fatalf("STRLEN: %+v", r)
	}
	if r := query(m, sess, "APPEND foo baz"); r.Int != 6 {
		t.Fatalf("APPEND: %+v", r)
	}
	if r := query(m, sess, "GET foo"); r.Text != "barbaz" {
		t.Fatalf("GET2: %+v", r)
	}
	if r := query(m, sess, "DEL foo"); r.Int != 1 {
		t.Fatalf("DEL: %+v", r)
	}
	if r := query(m, sess, "GET foo"); r.Type != protocol.TypeNil {
		t.Fatalf("GET3: %+v", r)
	}
}

// S2 — integer ops with bad value.
func TestScenarioIntegerOps(t *testing.T) {
	m := NewManager()
	sess := &Session{}
	query(m, sess, "SET n hello")
	if r := query(m, sess, "INCR n"); r.Type != protocol.TypeError || r.Text != ErrWrongInteger.Error() {
		t.Fatalf("INCR: %+v", r)
	}
	query(m, sess, "SET n 10")
	if r := query(m, sess, "INCRBY n 5"); r.Int != 15 {
		t.Fatalf("INCRBY: %+v", r)
	}
	if r := query(m, sess, "DECR n"); r.Int != 14 {
		t.Fatalf("DECR: %+v", r)
	}
}

// S3 — type error.
func TestScenarioTypeError(t *testing.T) {
	m := NewManager()
	sess := &Session{}
	if r := query(m, sess, "HSET h f v"); r.Int != 1 {
		t.Fatalf("HSET: %+v", r)
	}
	if r := query(m, sess, "GET h"); r.Type != protocol.TypeError || r.Text != ErrWrongType.Error() {
		t.Fatalf("GET: %+v", r)
	}
}

// S4 — transaction.
func TestScenarioTransaction(t *testing.T) {
	m := NewManager()
	sess := &Session{}
	if r := query(m, sess, "MULTI"); r.Text != "OK" {
		t.Fatalf("MULTI: %+v", r)
	}
	if r := query(m, sess, "SET a 1"); r.Text != "QUEUED" {
		t.Fatalf("SET queue: %+v", r)
	}
	if r := query(m, sess, "INCR a"); r.Text != "QUEUED" {
		t.Fatalf("INCR queue: %+v", r)
	}
	if r := query(m, sess, "GET a"); r.Text != "QUEUED" {
		t.Fatalf("GET queue: %+v", r)
	}
	r := query(m, sess, "EXEC")
	if r.Type != protocol.TypeArray || len(r.Array) != 3 {
		t.Fatalf("EXEC: %+v", r)
	}
	if r.Array[0].Text != "OK" || r.Array[1].Int != 2 || r.Array[2].Text != "2" {
		t.Fatalf("EXEC results: %+v %+v %+v", r.Array[0], r.Array[1], r.Array[2])
	}
	if sess.InTransaction {
		t.Fatal("transaction flag should be cleared after EXEC")
	}
}

// S5 — cross-database MOVE, and Testable Property 5 (MOVE atomicity).
func TestScenarioCrossDatabaseMove(t *testing.T) {
	m := NewManager()
	sess := &Session{}
	query(m, sess, "SELECT 0")
	query(m, sess, "SET k v")
	if r := query(m, sess, "MOVE k 1"); r.Int != 1 {
		t.Fatalf("MOVE: %+v", r)
	}
	query(m, sess, "SELECT 1")
	if r := query(m, sess, "GET k"); r.Text != "v" {
		t.Fatalf("GET db1: %+v", r)
	}
	query(m, sess, "SELECT 0")
	if r := query(m, sess, "GET k"); r.Type != protocol.TypeNil {
		t.Fatalf("GET db0: %+v", r)
	}
}

// S6 — snapshot durability via a forced rotation.
func TestScenarioSnapshotDurability(t *testing.T) {
	m := NewManager()
	sess := &Session{}
	query(m, sess, "SELECT 0")
	query(m, sess, "SET foo bar")
	m.ForceRotation()
	snap := m.WriteBuffer()

	m2 := NewManager()
	if err := m2.LoadFromBytes(snap); err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	sess2 := &Session{}
	if r := query(m2, sess2, "GET foo"); r.Text != "bar" {
		t.Fatalf("GET after restore: %+v", r)
	}
}

// Property 6 — AOF determinism.
func TestAOFDeterminism(t *testing.T) {
	m := NewManager()
	sess := &Session{}
	commands := []string{
		"SELECT 2", "SET a 1", "SET b 2", "INCR a", "HSET h f v", "LPUSH l x y z",
	}
	for _, c := range commands {
		query(m, sess, c)
	}
	// A persistence file always opens with the 16 database frames; a fresh
	// server's are empty, so the AOF records follow an empty image.
	aof := append(NewManager().Snapshot(), m.aofBuffer...)

	m2 := NewManager()
	if err := m2.LoadFromBytes(aof); err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	sess2 := &Session{}
	query(m2, sess2, "SELECT 2")
	if r1, r2 := query(m, sess, "GET a"), query(m2, sess2, "GET a"); r1.Text != r2.Text {
		t.Fatalf("a mismatch: %q vs %q", r1.Text, r2.Text)
	}
	if r1, r2 := query(m, sess, "HGET h f"), query(m2, sess2, "HGET h f"); r1.Text != r2.Text {
		t.Fatalf("h.f mismatch: %q vs %q", r1.Text, r2.Text)
	}
	if r1, r2 := query(m, sess, "LRANGE l 0 -1"), query(m2, sess2, "LRANGE l 0 -1"); len(r1.Array) != len(r2.Array) {
		t.Fatalf("list length mismatch")
	}
}

// Property 8 — type safety.
func TestTypeSafety(t *testing.T) {
	m := NewManager()
	sess := &Session{}
	query(m, sess, "SET s v")
	for _, cmd := range []string{"HGET s f", "LLEN s", "SCARD s", "ZCARD s"} {
		r := query(m, sess, cmd)
		if r.Type != protocol.TypeError || r.Text != ErrWrongType.Error() {
			t.Fatalf("%s: expected WrongType, got %+v", cmd, r)
		}
	}
	if r := query(m, sess, "GET s"); r.Text != "v" {
		t.Fatalf("state mutated by failed command: %+v", r)
	}
}

func TestUnknownCommand(t *testing.T) {
	m := NewManager()
	sess := &Session{}
	r := query(m, sess, "FROBNICATE x")
	if r.Type != protocol.TypeError || r.Text != ErrUnknownCommand.Error() {
		t.Fatalf("got %+v", r)
	}
}

func TestSetFamilyLifecycle(t *testing.T) {
	m := NewManager()
	sess := &Session{}
	query(m, sess, "SADD s a b c")
	query(m, sess, "SADD t b c d")
	if r := query(m, sess, "SCARD s"); r.Int != 3 {
		t.Fatalf("SCARD: %+v", r)
	}
	if r := query(m, sess, "SISMEMBER s a"); r.Int != 1 {
		t.Fatalf("SISMEMBER: %+v", r)
	}
	if r := query(m, sess, "SINTER s t"); len(r.Array) != 2 {
		t.Fatalf("SINTER: %+v", r)
	}
	if r := query(m, sess, "SUNIONSTORE u s t"); r.Int != 4 {
		t.Fatalf("SUNIONSTORE: %+v", r)
	}
	if r := query(m, sess, "SDIFF s t"); len(r.Array) != 1 || r.Array[0].Text != "a" {
		t.Fatalf("SDIFF: %+v", r)
	}
}

func TestSortedSetRanking(t *testing.T) {
	m := NewManager()
	sess := &Session{}
	query(m, sess, "ZADD z 3 c 1 a 2 b")
	if r := query(m, sess, "ZRANGE z 0 -1"); len(r.Array) != 3 ||
		r.Array[0].Text != "a" || r.Array[1].Text != "b" || r.Array[2].Text != "c" {
		t.Fatalf("ZRANGE: %+v", r)
	}
	if r := query(m, sess, "ZRANK z b"); r.Int != 1 {
		t.Fatalf("ZRANK: %+v", r)
	}
	if r := query(m, sess, "ZINCRBY z 10 a"); r.Text != "11" {
		t.Fatalf("ZINCRBY: %+v", r)
	}
	if r := query(m, sess, "ZRANGE z 0 -1"); r.Array[2].Text != "a" {
		t.Fatalf("ZRANGE after incr: %+v", r)
	}
}

func TestMSetNxAtomicity(t *testing.T) {
	m := NewManager()
	sess := &Session{}
	query(m, sess, "SET b exists")
	if r := query(m, sess, "MSETNX a 1 b 2"); r.Int != 0 {
		t.Fatalf("MSETNX should fail entirely: %+v", r)
	}
	if r := query(m, sess, "GET a"); r.Type != protocol.TypeNil {
		t.Fatalf("a should not have been set: %+v", r)
	}
}
