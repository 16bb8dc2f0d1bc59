package event

import (
	"lol.mleku.dev/chk"
	"lukechampine.com/frand"

	"crosstown.dev/pkg/crypto/p256k"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/encoders/tag"
)

// GenerateRandomTextNoteEvent creates a signed kind 1 event whose content is
// the hex encoding of fewer than maxSize random bytes, for tests and
// benchmarks.
func GenerateRandomTextNoteEvent(sign *p256k.Signer, maxSize int) (
	ev *E, err error,
) {
	return generate(sign, 1, maxSize)
}

// GenerateRandomEventOfKind creates a signed event of an arbitrary kind
// with random content and a couple of indexable tags.
func GenerateRandomEventOfKind(sign *p256k.Signer, k uint16, maxSize int) (
	ev *E, err error,
) {
	return generate(sign, k, maxSize)
}

func generate(sign *p256k.Signer, k uint16, maxSize int) (
	ev *E, err error,
) {
	if maxSize < 1 {
		maxSize = 1
	}
	content := make([]byte, frand.Intn(maxSize))
	frand.Read(content)
	ev = New()
	ev.Kind = k
	ev.CreatedAt = int64(1500000000 + frand.Intn(500000000))
	ev.Content = hex.EncBytes(content)
	ref := make([]byte, 32)
	frand.Read(ref)
	ev.Tags.Append(
		tag.NewFromAny("e", hex.Enc(ref)),
		tag.NewFromAny("t", "test"),
	)
	if err = ev.Sign(sign); chk.E(err) {
		return
	}
	return
}
