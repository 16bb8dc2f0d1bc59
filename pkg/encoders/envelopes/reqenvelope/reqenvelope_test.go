package reqenvelope

import (
	"testing"

	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/encoders/envelopes"
	"crosstown.dev/pkg/encoders/filter"
	"crosstown.dev/pkg/utils"
)

func TestMarshalUnmarshal(t *testing.T) {
	for range 100 {
		f1, err := filter.GenFilter()
		if chk.E(err) {
			t.Fatal(err)
		}
		f2, err := filter.GenFilter()
		if chk.E(err) {
			t.Fatal(err)
		}
		env := NewFrom("sub-1", filter.S{f1, f2})
		b := env.Marshal(nil)
		var label string
		var rem []byte
		if label, rem, err = envelopes.Identify(b); chk.E(err) {
			t.Fatal(err)
		}
		if label != L {
			t.Fatalf("wrong label %q", label)
		}
		env2 := New()
		if _, err = env2.Unmarshal(rem); chk.E(err) {
			t.Fatalf("unmarshal failed: %v\n%s", err, b)
		}
		if string(env2.Subscription) != "sub-1" {
			t.Fatalf("wrong subscription %q", env2.Subscription)
		}
		if len(env2.Filters) != 2 {
			t.Fatalf("want 2 filters, got %d", len(env2.Filters))
		}
		b2 := env2.Marshal(nil)
		if !utils.FastEqual(b, b2) {
			t.Fatalf("re-marshal differs:\n%s\n%s", b, b2)
		}
	}
}

func TestEmptyFilterSet(t *testing.T) {
	env := New()
	if _, err := env.Unmarshal([]byte(`"bare"]`)); err != nil {
		t.Fatal(err)
	}
	if string(env.Subscription) != "bare" || len(env.Filters) != 0 {
		t.Fatal("bare REQ parsed wrong")
	}
}
