package database

import (
	"strings"

	"github.com/ringdb/ringdb/protocol"
)

// ExecFunc is one command operator. It returns a Reply with a zero-value
// envelope (DBIndex 0, Tx false); the dispatcher stamps the session's
// actual envelope before sending it. Grounded on the teacher's
// RegisterCommand/ExecFunc table idiom (database/command.go), generalized
// from [][]byte args to the space-tokenized statement string this system
// uses instead of RESP framing.
type ExecFunc func(m *Manager, dbIndex uint64, tokens []string) *protocol.Reply

type command struct {
	name    string
	exec    ExecFunc
	isWrite bool
}

var cmdTable = make(map[string]*command)

// RegisterCommand installs a command operator, called from each command
// file's init(). isWrite marks it as belonging to the AOF write set
// (spec.md §4.4).
func RegisterCommand(name string, exec ExecFunc, isWrite bool) {
	upper := strings.ToUpper(name)
	cmdTable[upper] = &command{name: upper, exec: exec, isWrite: isWrite}
}

func lookupCommand(word string) (*command, bool) {
	c, ok := cmdTable[strings.ToUpper(word)]
	return c, ok
}

func nilReply() *protocol.Reply            { return protocol.NilReply(0, false) }
func intReply(v int64) *protocol.Reply     { return protocol.IntReply(0, false, v) }
func statusReply(s string) *protocol.Reply { return protocol.StatusReply(0, false, s) }
func stringReply(s string) *protocol.Reply { return protocol.StringReply(0, false, s) }
func errReply(err error) *protocol.Reply   { return protocol.ErrorReply(0, false, err) }
func arrayReply(elems []*protocol.Reply) *protocol.Reply {
	return protocol.ArrayReply(0, false, elems)
}
