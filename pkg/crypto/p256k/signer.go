// Package p256k provides BIP-340 schnorr signing and verification over
// secp256k1 x-only public keys, the signature scheme of the nostr protocol.
package p256k

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"lol.mleku.dev/errorf"
)

const (
	// PubKeyLen is the length of an x-only serialized public key.
	PubKeyLen = schnorr.PubKeyBytesLen
	// SigLen is the length of a BIP-340 schnorr signature.
	SigLen = schnorr.SignatureSize
	// SecKeyLen is the length of a secret key.
	SecKeyLen = 32
)

// Signer holds a secp256k1 keypair and signs 32 byte message hashes.
type Signer struct {
	sec *btcec.PrivateKey
	pub []byte
}

// InitSec loads a 32 byte secret key into the signer and derives the x-only
// public key from it.
func (s *Signer) InitSec(skb []byte) (err error) {
	if len(skb) != SecKeyLen {
		return errorf.E("p256k: secret key must be %d bytes, got %d",
			SecKeyLen, len(skb))
	}
	s.sec, _ = btcec.PrivKeyFromBytes(skb)
	s.pub = schnorr.SerializePubKey(s.sec.PubKey())
	return
}

// Generate creates a new random keypair.
func (s *Signer) Generate() (err error) {
	if s.sec, err = btcec.NewPrivateKey(); err != nil {
		return
	}
	s.pub = schnorr.SerializePubKey(s.sec.PubKey())
	return
}

// Sec returns the secret key bytes.
func (s *Signer) Sec() []byte { return s.sec.Serialize() }

// Pub returns the x-only serialized public key.
func (s *Signer) Pub() []byte { return s.pub }

// Sign produces a BIP-340 signature over a 32 byte message hash.
func (s *Signer) Sign(msg []byte) (sig []byte, err error) {
	if s.sec == nil {
		err = errorf.E("p256k: signer has no secret key")
		return
	}
	var ss *schnorr.Signature
	if ss, err = schnorr.Sign(s.sec, msg); err != nil {
		return
	}
	sig = ss.Serialize()
	return
}

// Verify checks a BIP-340 signature over a 32 byte message hash against an
// x-only public key.
func Verify(msg, sig, pub []byte) (valid bool, err error) {
	if len(pub) != PubKeyLen {
		err = errorf.E("p256k: pubkey must be %d bytes, got %d",
			PubKeyLen, len(pub))
		return
	}
	if len(sig) != SigLen {
		err = errorf.E("p256k: signature must be %d bytes, got %d",
			SigLen, len(sig))
		return
	}
	var pk *btcec.PublicKey
	if pk, err = schnorr.ParsePubKey(pub); err != nil {
		return
	}
	var ss *schnorr.Signature
	if ss, err = schnorr.ParseSignature(sig); err != nil {
		return
	}
	valid = ss.Verify(msg, pk)
	return
}
