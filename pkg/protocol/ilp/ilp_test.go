package ilp

import (
	"encoding/base64"
	"testing"

	"lukechampine.com/frand"

	"crosstown.dev/pkg/crypto/sha256"
	"crosstown.dev/pkg/encoders/hex"
)

func TestFulfillmentBindsToIdHex(t *testing.T) {
	id := make([]byte, 32)
	frand.Read(id)
	f := Fulfillment(id)
	// the hash is over the lowercase hex ASCII of the id, not the raw bytes
	want := sha256.Sum256([]byte(hex.Enc(id)))
	if f != want {
		t.Fatal("fulfillment is not SHA256 of the hex id")
	}
	raw := sha256.Sum256(id)
	if f == raw {
		t.Fatal("fulfillment hashed the raw id")
	}
}

func TestConditionMatchesSenderDerivation(t *testing.T) {
	id := make([]byte, 32)
	frand.Read(id)
	f := Fulfillment(id)
	cond := Condition(f)
	// the sender derives the condition as SHA256(fulfillment); settling
	// means the relay's fulfillment hashes to it
	check := sha256.Sum256(f[:])
	if cond != check {
		t.Fatal("condition does not match SHA256(fulfillment)")
	}
}

func TestFulfillmentB64(t *testing.T) {
	id := make([]byte, 32)
	frand.Read(id)
	f := Fulfillment(id)
	dec, err := base64.StdEncoding.DecodeString(FulfillmentB64(id))
	if err != nil {
		t.Fatal(err)
	}
	if string(dec) != string(f[:]) {
		t.Fatal("base64 form does not decode to the fulfillment")
	}
}
