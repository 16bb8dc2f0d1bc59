package event

import (
	"testing"

	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/crypto/p256k"
	"crosstown.dev/pkg/encoders/tag"
	"crosstown.dev/pkg/utils"
)

func TestMarshalUnmarshalJSON(t *testing.T) {
	sign := new(p256k.Signer)
	if err := sign.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	for range 1000 {
		ev, err := GenerateRandomTextNoteEvent(sign, 512)
		if err != nil {
			t.Fatal(err)
		}
		b := ev.Marshal(nil)
		ev2 := New()
		rem, err := ev2.Unmarshal(b)
		if chk.E(err) {
			t.Fatalf("unmarshal failed: %v\n%s", err, b)
		}
		if len(rem) > 0 {
			t.Fatalf("remainder after event: %s", rem)
		}
		b2 := ev2.Marshal(nil)
		if !utils.FastEqual(b, b2) {
			t.Fatalf("remarshal differs:\n%s\n%s", b, b2)
		}
	}
}

func TestSignVerify(t *testing.T) {
	sign := new(p256k.Signer)
	if err := sign.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	ev, err := GenerateRandomTextNoteEvent(sign, 256)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := ev.Verify()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("signature did not verify")
	}
	// tampering with content must invalidate the id binding
	ev.Content = append(ev.Content, 'x')
	if ok, _ = ev.Verify(); ok {
		t.Fatal("tampered event verified")
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	s1 := new(p256k.Signer)
	s2 := new(p256k.Signer)
	if err := s1.Generate(); err != nil {
		t.Fatal(err)
	}
	if err := s2.Generate(); err != nil {
		t.Fatal(err)
	}
	ev, err := GenerateRandomTextNoteEvent(s1, 64)
	if err != nil {
		t.Fatal(err)
	}
	// swap in another author without re-signing
	ev.Pubkey = s2.Pub()
	ev.ID = ev.GetIDBytes()
	ok, _ := ev.Verify()
	if ok {
		t.Fatal("event verified under the wrong pubkey")
	}
}

func TestCanonicalEscaping(t *testing.T) {
	sign := new(p256k.Signer)
	if err := sign.Generate(); err != nil {
		t.Fatal(err)
	}
	ev := New()
	ev.Kind = 1
	ev.CreatedAt = 1700000000
	ev.Content = []byte("line\nbreak \"quoted\" back\\slash\ttab")
	ev.Tags = tag.NewS(tag.NewFromAny("t", "a\"b"))
	if err := ev.Sign(sign); err != nil {
		t.Fatal(err)
	}
	ok, err := ev.Verify()
	if err != nil || !ok {
		t.Fatalf("escaped content failed to verify: %v", err)
	}
	b := ev.Marshal(nil)
	ev2 := New()
	if _, err = ev2.Unmarshal(b); err != nil {
		t.Fatal(err)
	}
	if !utils.FastEqual(ev.Content, ev2.Content) {
		t.Fatalf("content mangled: %q != %q", ev.Content, ev2.Content)
	}
	ok, err = ev2.Verify()
	if err != nil || !ok {
		t.Fatal("round tripped event failed to verify")
	}
}

func TestSortOrder(t *testing.T) {
	a := &E{ID: []byte{0x01}, CreatedAt: 100}
	b := &E{ID: []byte{0x02}, CreatedAt: 200}
	c := &E{ID: []byte{0x03}, CreatedAt: 200}
	s := S{a, c, b}
	if !s.Less(2, 0) {
		t.Fatal("newer event should sort first")
	}
	// tie on created_at: smaller id first
	if !s.Less(2, 1) {
		t.Fatal("smaller id should sort first on created_at tie")
	}
}
