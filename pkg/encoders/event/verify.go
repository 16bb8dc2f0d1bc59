package event

import (
	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/crypto/p256k"
)

// Sign computes the canonical id of the event and signs it with the provided
// signer, filling in Pubkey, ID and Sig.
func (ev *E) Sign(sign *p256k.Signer) (err error) {
	ev.Pubkey = sign.Pub()
	ev.ID = ev.GetIDBytes()
	if ev.Sig, err = sign.Sign(ev.ID); chk.E(err) {
		return
	}
	return
}

// Verify recomputes the canonical id and checks the schnorr signature over
// it. An id that does not match its content is invalid regardless of the
// signature.
func (ev *E) Verify() (valid bool, err error) {
	calculated := ev.GetIDBytes()
	if len(ev.ID) != len(calculated) {
		return
	}
	for i := range calculated {
		if ev.ID[i] != calculated[i] {
			return
		}
	}
	return p256k.Verify(ev.ID, ev.Sig, ev.Pubkey)
}
