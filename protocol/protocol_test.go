package protocol

import (
	"errors"
	"testing"
)

func TestReplyRoundTripScalar(t *testing.T) {
	cases := []*Reply{
		NilReply(0, false),
		IntReply(1, true, 42),
		StatusReply(0, false, "OK"),
		StringReply(2, false, "barbaz"),
		ErrorReply(0, false, errors.New("ERR boom")),
	}
	for _, want := range cases {
		got, err := FromBytes(want.ToBytes())
		if err != nil {
			t.Fatalf("FromBytes: %v", err)
		}
		if got.DBIndex != want.DBIndex || got.Tx != want.Tx || got.Type != want.Type ||
			got.Int != want.Int || got.Text != want.Text {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	}
}

func TestReplyRoundTripArray(t *testing.T) {
	want := ArrayReply(0, true, []*Reply{
		StatusReply(0, true, "OK"),
		IntReply(0, true, 2),
		StringReply(0, true, "2"),
	})
	got, err := FromBytes(want.ToBytes())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if len(got.Array) != 3 {
		t.Fatalf("got %d elements, want 3", len(got.Array))
	}
	if got.Array[1].Int != 2 {
		t.Fatalf("element 1: got %d, want 2", got.Array[1].Int)
	}
}

func TestAnswerIdentity(t *testing.T) {
	a := NewAnswer("SET foo bar")
	got := AnswerFromBytes(a.Serialize())
	if got.Statement != a.Statement {
		t.Fatalf("got %q, want %q", got.Statement, a.Statement)
	}
}
