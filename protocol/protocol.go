// Package protocol implements the Answer/Reply wire codec exchanged
// between client and server, modeled on the teacher's resp/reply family
// but carrying this system's own binary framing instead of RESP.
package protocol

import (
	"github.com/ringdb/ringdb/entry"
)

// Answer is the inbound request envelope. Its wire form is the identity of
// the raw statement bytes the client sent.
type Answer struct {
	Statement string
}

func NewAnswer(statement string) Answer { return Answer{Statement: statement} }

func (a Answer) Serialize() []byte { return []byte(a.Statement) }

func AnswerFromBytes(b []byte) Answer { return Answer{Statement: string(b)} }

// ReplyType is the discriminant of a Reply's body.
type ReplyType byte

const (
	TypeNil ReplyType = iota
	TypeInteger
	TypeError
	TypeStatus
	TypeString
	TypeArray
)

// Reply is the outbound response envelope.
type Reply struct {
	DBIndex uint64
	Tx      bool
	Type    ReplyType

	Int   int64
	Text  string
	Array []*Reply
}

func NilReply(dbIndex uint64, tx bool) *Reply {
	return &Reply{DBIndex: dbIndex, Tx: tx, Type: TypeNil}
}

func IntReply(dbIndex uint64, tx bool, v int64) *Reply {
	return &Reply{DBIndex: dbIndex, Tx: tx, Type: TypeInteger, Int: v}
}

func StatusReply(dbIndex uint64, tx bool, status string) *Reply {
	return &Reply{DBIndex: dbIndex, Tx: tx, Type: TypeStatus, Text: status}
}

func StringReply(dbIndex uint64, tx bool, s string) *Reply {
	return &Reply{DBIndex: dbIndex, Tx: tx, Type: TypeString, Text: s}
}

func ErrorReply(dbIndex uint64, tx bool, err error) *Reply {
	return &Reply{DBIndex: dbIndex, Tx: tx, Type: TypeError, Text: err.Error()}
}

func ArrayReply(dbIndex uint64, tx bool, elems []*Reply) *Reply {
	return &Reply{DBIndex: dbIndex, Tx: tx, Type: TypeArray, Array: elems}
}

// WithEnvelope stamps dbIndex/tx onto an already-built reply (used when a
// Reply is constructed bottom-up, e.g. an Entry accessor's error mapped to
// an error Reply before the caller knows the session state).
func (r *Reply) WithEnvelope(dbIndex uint64, tx bool) *Reply {
	r.DBIndex = dbIndex
	r.Tx = tx
	return r
}

// ToBytes serializes the reply per the wire layout: db_index:u64 tx:u8
// type:u8 body. Array bodies length-prefix each element's own ToBytes.
func (r *Reply) ToBytes() []byte {
	buf := make([]byte, 0, 32)
	buf = entry.WriteU64(buf, r.DBIndex)
	if r.Tx {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, byte(r.Type))
	switch r.Type {
	case TypeNil:
	case TypeInteger:
		buf = entry.WriteU64(buf, uint64(r.Int))
	case TypeError, TypeStatus, TypeString:
		buf = append(buf, r.Text...)
	case TypeArray:
		for _, elem := range r.Array {
			eb := elem.ToBytes()
			buf = entry.WriteU64(buf, uint64(len(eb)))
			buf = append(buf, eb...)
		}
	}
	return buf
}

// FromBytes parses one Reply from data. The top-level length is implied by
// the transport frame, so data must contain exactly one reply's bytes;
// array elements are read until data is exhausted.
func FromBytes(data []byte) (*Reply, error) {
	dbIndex, data, err := entry.ReadU64(data)
	if err != nil {
		return nil, err
	}
	if len(data) < 2 {
		return nil, entry.ErrMalformed
	}
	tx := data[0] != 0
	typ := ReplyType(data[1])
	data = data[2:]
	r := &Reply{DBIndex: dbIndex, Tx: tx, Type: typ}
	switch typ {
	case TypeNil:
	case TypeInteger:
		v, _, err := entry.ReadU64(data)
		if err != nil {
			return nil, err
		}
		r.Int = int64(v)
	case TypeError, TypeStatus, TypeString:
		r.Text = string(data)
	case TypeArray:
		for len(data) > 0 {
			l, rest, err := entry.ReadU64(data)
			if err != nil {
				return nil, err
			}
			if uint64(len(rest)) < l {
				return nil, entry.ErrMalformed
			}
			elem, err := FromBytes(rest[:l])
			if err != nil {
				return nil, err
			}
			r.Array = append(r.Array, elem)
			data = rest[l:]
		}
	default:
		return nil, entry.ErrMalformed
	}
	return r, nil
}
