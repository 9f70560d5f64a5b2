package skiplist

import (
	"testing"

	"github.com/ringdb/ringdb/entry"
)

func TestOrderingInvariant(t *testing.T) {
	s := New()
	keys := []string{"banana", "apple", "cherry", "date", "aardvark"}
	for _, k := range keys {
		s.Insert(entry.NewString(k, k))
	}
	var prev string
	first := true
	s.ForEach(func(e *entry.Entry) bool {
		if !first && e.Key() <= prev {
			t.Fatalf("out of order: %q after %q", e.Key(), prev)
		}
		prev = e.Key()
		first = false
		return true
	})
}

func TestInsertIdempotence(t *testing.T) {
	s := New()
	s.Insert(entry.NewString("k", "v1"))
	s.Insert(entry.NewString("other", "x"))
	s.Insert(entry.NewString("k", "v2"))
	e, ok := s.Find("k")
	if !ok {
		t.Fatal("k missing")
	}
	v, _ := e.String()
	if v != "v2" {
		t.Fatalf("got %q, want v2", v)
	}
	o, ok := s.Find("other")
	if !ok {
		t.Fatal("other missing")
	}
	ov, _ := o.String()
	if ov != "x" {
		t.Fatalf("other corrupted: %q", ov)
	}
}

func TestInsertReplacesAtEveryLevel(t *testing.T) {
	// Upsert one key many times (its height is fixed by the first insert),
	// then confirm Find from the top level reaches the newest value.
	s := New()
	for i := 0; i < 50; i++ {
		s.Insert(entry.NewString("tall", "v0"))
	}
	s.Insert(entry.NewString("tall", "v1"))
	e, ok := s.Find("tall")
	if !ok {
		t.Fatal("tall missing")
	}
	v, _ := e.String()
	if v != "v1" {
		t.Fatalf("got %q, want v1", v)
	}
}

func TestEraseRemovesFromAllLevels(t *testing.T) {
	s := New()
	s.Insert(entry.NewString("a", "1"))
	s.Insert(entry.NewString("b", "2"))
	if !s.Erase("a") {
		t.Fatal("expected erase to report found")
	}
	if _, ok := s.Find("a"); ok {
		t.Fatal("a should be gone")
	}
	if _, ok := s.Find("b"); !ok {
		t.Fatal("b should remain")
	}
	if s.Erase("a") {
		t.Fatal("second erase should report not found")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	s := New()
	s.Insert(entry.NewString("a", "1"))
	s.Insert(entry.NewString("b", "2"))
	s.Insert(entry.NewString("c", "3"))
	data := s.Serialize()

	s2 := New()
	if err := s2.DeserializeInto(data); err != nil {
		t.Fatalf("DeserializeInto: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		e1, ok1 := s.Find(k)
		e2, ok2 := s2.Find(k)
		if !ok1 || !ok2 {
			t.Fatalf("key %q missing after round trip", k)
		}
		v1, _ := e1.String()
		v2, _ := e2.String()
		if v1 != v2 {
			t.Fatalf("key %q: got %q, want %q", k, v2, v1)
		}
	}
	if s2.Len() != s.Len() {
		t.Fatalf("length mismatch: got %d, want %d", s2.Len(), s.Len())
	}
}
