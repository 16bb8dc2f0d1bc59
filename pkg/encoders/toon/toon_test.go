package toon

import (
	"errors"
	"testing"

	"lukechampine.com/frand"

	"crosstown.dev/pkg/crypto/p256k"
	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/tag"
	"crosstown.dev/pkg/utils"
)

func newSigner(t *testing.T) *p256k.Signer {
	t.Helper()
	sign := new(p256k.Signer)
	if err := sign.Generate(); err != nil {
		t.Fatal(err)
	}
	return sign
}

func TestRoundTrip(t *testing.T) {
	sign := newSigner(t)
	for range 1000 {
		ev, err := event.GenerateRandomTextNoteEvent(sign, 512)
		if err != nil {
			t.Fatal(err)
		}
		enc, err := Encode(ev)
		if err != nil {
			t.Fatal(err)
		}
		if len(enc) != EncodedLen(ev) {
			t.Fatalf("EncodedLen %d but encoding is %d bytes",
				EncodedLen(ev), len(enc))
		}
		dec, err := Decode(enc)
		if err != nil {
			t.Fatal(err)
		}
		assertEqual(t, ev, dec)
	}
}

func TestDeterminism(t *testing.T) {
	sign := newSigner(t)
	ev, err := event.GenerateRandomTextNoteEvent(sign, 256)
	if err != nil {
		t.Fatal(err)
	}
	enc1, err := Encode(ev)
	if err != nil {
		t.Fatal(err)
	}
	enc2, err := Encode(ev.Clone())
	if err != nil {
		t.Fatal(err)
	}
	if !utils.FastEqual(enc1, enc2) {
		t.Fatal("structurally equal events encoded differently")
	}
}

func TestMeasure(t *testing.T) {
	sign := newSigner(t)
	ev, err := event.GenerateRandomTextNoteEvent(sign, 1024)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := Encode(ev)
	if err != nil {
		t.Fatal(err)
	}
	n, err := Measure(enc)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(enc) {
		t.Fatalf("Measure returned %d, encoding is %d bytes", n, len(enc))
	}
}

func TestDecodeRejectsTruncation(t *testing.T) {
	sign := newSigner(t)
	ev, err := event.GenerateRandomTextNoteEvent(sign, 128)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := Encode(ev)
	if err != nil {
		t.Fatal(err)
	}
	for _, cut := range []int{1, MinLen / 2, len(enc) - 1} {
		if _, err = Decode(enc[:cut]); err == nil {
			t.Fatalf("truncation at %d accepted", cut)
		}
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("truncation at %d: wrong error type %T", cut, err)
		}
	}
}

func TestDecodeRejectsTrailing(t *testing.T) {
	sign := newSigner(t)
	ev, err := event.GenerateRandomTextNoteEvent(sign, 64)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := Encode(ev)
	if err != nil {
		t.Fatal(err)
	}
	enc = append(enc, 0x00)
	if _, err = Decode(enc); err == nil {
		t.Fatal("trailing byte accepted")
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("wrong error type %T", err)
	}
}

func TestDecodeRejectsEmptyTag(t *testing.T) {
	sign := newSigner(t)
	ev, err := event.GenerateRandomTextNoteEvent(sign, 64)
	if err != nil {
		t.Fatal(err)
	}
	// splice a zero element tag into an otherwise valid encoding by
	// rebuilding it around an empty tag
	ev.Tags = tag.NewS(tag.New())
	enc := Append(nil, ev)
	if _, err = Decode(enc); err == nil {
		t.Fatal("empty tag accepted")
	}
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("wrong error type %T", err)
	}
}

func TestEncodeRejectsBadFields(t *testing.T) {
	sign := newSigner(t)
	good, err := event.GenerateRandomTextNoteEvent(sign, 64)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		mut  func(*event.E)
	}{
		{"nil id", func(ev *event.E) { ev.ID = nil }},
		{"short id", func(ev *event.E) { ev.ID = ev.ID[:31] }},
		{"short pubkey", func(ev *event.E) { ev.Pubkey = ev.Pubkey[:8] }},
		{"short sig", func(ev *event.E) { ev.Sig = ev.Sig[:63] }},
		{"negative created_at", func(ev *event.E) { ev.CreatedAt = -1 }},
		{"empty tag", func(ev *event.E) { ev.Tags = tag.NewS(tag.New()) }},
	}
	for _, tc := range cases {
		ev := good.Clone()
		tc.mut(ev)
		if _, err = Encode(ev); err == nil {
			t.Fatalf("%s: accepted", tc.name)
		}
		var ee *EncodeError
		if !errors.As(err, &ee) {
			t.Fatalf("%s: wrong error type %T", tc.name, err)
		}
	}
	if _, err = Encode(nil); err == nil {
		t.Fatal("nil event accepted")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for range 100 {
		b := make([]byte, frand.Intn(MinLen*2))
		frand.Read(b)
		if ev, err := Decode(b); err == nil {
			// random bytes that happen to parse must round trip exactly
			enc, eerr := Encode(ev)
			if eerr != nil || !utils.FastEqual(enc, b) {
				t.Fatal("garbage accepted without round tripping")
			}
		}
	}
}

func assertEqual(t *testing.T, a, b *event.E) {
	t.Helper()
	if !utils.FastEqual(a.ID, b.ID) ||
		!utils.FastEqual(a.Pubkey, b.Pubkey) ||
		!utils.FastEqual(a.Sig, b.Sig) ||
		!utils.FastEqual(a.Content, b.Content) ||
		a.CreatedAt != b.CreatedAt || a.Kind != b.Kind {
		t.Fatal("decoded event differs from original")
	}
	if a.Tags.Len() != b.Tags.Len() {
		t.Fatalf("tag count %d != %d", a.Tags.Len(), b.Tags.Len())
	}
	for i := range *a.Tags {
		at, bt := (*a.Tags)[i], (*b.Tags)[i]
		if at.Len() != bt.Len() {
			t.Fatalf("tag %d element count differs", i)
		}
		for j := range at.T {
			if !utils.FastEqual(at.T[j], bt.T[j]) {
				t.Fatalf("tag %d element %d differs", i, j)
			}
		}
	}
}
