package tag

import (
	"testing"

	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/utils"
)

func TestTagsMarshalUnmarshal(t *testing.T) {
	s := NewS(
		NewFromAny("e", "0000000000000000000000000000000000000000000000000000000000000001"),
		NewFromAny("p", "0000000000000000000000000000000000000000000000000000000000000002", "wss://r.example.com"),
		NewFromAny("t", "hashtag"),
		NewFromAny("d", ""),
	)
	b := s.Marshal(nil)
	s2 := NewS()
	rem, err := s2.Unmarshal(b)
	if chk.E(err) {
		t.Fatal(err)
	}
	if len(rem) > 0 {
		t.Fatalf("remainder: %s", rem)
	}
	b2 := s2.Marshal(nil)
	if !utils.FastEqual(b, b2) {
		t.Fatalf("re-marshal differs:\n%s\n%s", b, b2)
	}
}

func TestGetFirstAndAll(t *testing.T) {
	s := NewS(
		NewFromAny("p", "one"),
		NewFromAny("e", "two"),
		NewFromAny("p", "three"),
	)
	first := s.GetFirst([]byte("p"))
	if first == nil || string(first.Value()) != "one" {
		t.Fatal("GetFirst returned the wrong tag")
	}
	all := s.GetAll([]byte("p"))
	if len(all) != 2 {
		t.Fatalf("GetAll returned %d tags, want 2", len(all))
	}
	if s.GetFirst([]byte("x")) != nil {
		t.Fatal("GetFirst invented a tag")
	}
}
