package closeenvelope

import (
	"testing"

	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/encoders/envelopes"
	"crosstown.dev/pkg/utils"
)

func TestMarshalUnmarshal(t *testing.T) {
	env := NewFrom("sub \"quoted\"")
	b := env.Marshal(nil)
	label, rem, err := envelopes.Identify(b)
	if chk.E(err) {
		t.Fatal(err)
	}
	if label != L {
		t.Fatalf("wrong label %q", label)
	}
	env2 := New()
	if _, err = env2.Unmarshal(rem); chk.E(err) {
		t.Fatal(err)
	}
	if !utils.FastEqual(env.ID, env2.ID) {
		t.Fatalf("id mangled: %q != %q", env.ID, env2.ID)
	}
}
