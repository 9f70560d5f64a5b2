package entry

import (
	"reflect"
	"testing"
)

func TestStringRoundTrip(t *testing.T) {
	e := NewString("foo", "barbaz")
	got, err := FromBytes(e.Serialize())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	v, err := got.String()
	if err != nil || v != "barbaz" || got.Key() != "foo" {
		t.Fatalf("got %q (%v), want barbaz", v, err)
	}
}

func TestHashRoundTrip(t *testing.T) {
	e := NewHash("h")
	hv, _ := e.Hash()
	hv["a"] = "1"
	hv["b"] = "2"
	got, err := FromBytes(e.Serialize())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	gv, err := got.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !reflect.DeepEqual(gv, hv) {
		t.Fatalf("got %v, want %v", gv, hv)
	}
}

func TestListRoundTrip(t *testing.T) {
	e := NewList("l")
	lv, _ := e.List()
	lv.PushBack("x")
	lv.PushBack("y")
	lv.PushFront("w")
	got, err := FromBytes(e.Serialize())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	gv, _ := got.List()
	want := []string{"w", "x", "y"}
	var have []string
	gv.ForEach(func(_ int, v string) bool { have = append(have, v); return true })
	if !reflect.DeepEqual(have, want) {
		t.Fatalf("got %v, want %v", have, want)
	}
}

func TestSetRoundTrip(t *testing.T) {
	e := NewSet("s")
	sv, _ := e.Set()
	sv["m1"] = struct{}{}
	sv["m2"] = struct{}{}
	got, err := FromBytes(e.Serialize())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	gv, _ := got.Set()
	if !reflect.DeepEqual(gv, sv) {
		t.Fatalf("got %v, want %v", gv, sv)
	}
}

func TestSortedSetRoundTripAndOrder(t *testing.T) {
	e := NewSortedSet("z")
	e.ZAdd("b", 1)
	e.ZAdd("a", 1)
	e.ZAdd("c", 0.5)
	got, err := FromBytes(e.Serialize())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	gv, _ := got.SortedSet()
	var members []string
	for _, m := range gv {
		members = append(members, m.Member)
	}
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(members, want) {
		t.Fatalf("got order %v, want %v", members, want)
	}
}

func TestWrongType(t *testing.T) {
	e := NewString("k", "v")
	if _, err := e.Hash(); err != ErrWrongType {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
}

func TestFromBytesTruncated(t *testing.T) {
	if _, err := FromBytes([]byte{byte(TypeString)}); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
