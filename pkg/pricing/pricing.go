// Package pricing maps an event's encoded size and kind to the payment
// amount a write must carry. The configuration is a closed record built
// once at startup; amounts are arbitrary precision so micro-unit scales
// with large per-byte rates cannot overflow.
package pricing

import (
	"encoding/json"
	"math/big"
	"strconv"

	"lol.mleku.dev/errorf"

	"crosstown.dev/pkg/encoders/hex"
)

// DefaultBasePricePerByte applies when no base price is configured.
const DefaultBasePricePerByte = 10

// C is the immutable pricing configuration.
type C struct {
	// BasePricePerByte applies to any kind without an override.
	BasePricePerByte *big.Int
	// KindOverrides substitutes the per byte price for specific kinds; a
	// zero entry makes the kind free.
	KindOverrides map[uint16]*big.Int
	// SPSPMinPrice, when set, clamps the computed price of SPSP request
	// events down so handshakes can ride zero-amount packets.
	SPSPMinPrice *big.Int
	// OwnerPubkey, when set, is the 32 byte pubkey whose events bypass
	// payment entirely.
	OwnerPubkey []byte
}

// New validates and assembles a pricing config from parsed values. Negative
// prices are rejected; nil base falls back to the default.
func New(
	base *big.Int, overrides map[uint16]*big.Int, spspMin *big.Int,
	owner []byte,
) (c *C, err error) {
	if base == nil {
		base = big.NewInt(DefaultBasePricePerByte)
	}
	if base.Sign() < 0 {
		err = errorf.E("pricing: negative base price per byte %v", base)
		return
	}
	for k, v := range overrides {
		if v == nil || v.Sign() < 0 {
			err = errorf.E("pricing: negative override for kind %d", k)
			return
		}
	}
	if spspMin != nil && spspMin.Sign() < 0 {
		err = errorf.E("pricing: negative spsp min price %v", spspMin)
		return
	}
	if len(owner) != 0 && len(owner) != 32 {
		err = errorf.E("pricing: owner pubkey is %d bytes, need 32",
			len(owner))
		return
	}
	c = &C{
		BasePricePerByte: base,
		KindOverrides:    overrides,
		SPSPMinPrice:     spspMin,
		OwnerPubkey:      owner,
	}
	return
}

// FromConfig parses the environment string forms: base price, a JSON object
// of kind number strings to price strings, the SPSP minimum, and the owner
// pubkey in hex.
func FromConfig(base, overridesJSON, spspMin, ownerHex string) (
	c *C, err error,
) {
	var baseI *big.Int
	if baseI, err = parsePrice("base price per byte", base); err != nil {
		return
	}
	var overrides map[uint16]*big.Int
	if overridesJSON != "" {
		var raw map[string]string
		if err = json.Unmarshal([]byte(overridesJSON), &raw); err != nil {
			err = errorf.E("pricing: kind overrides is not a JSON object: %v",
				err)
			return
		}
		overrides = make(map[uint16]*big.Int, len(raw))
		for ks, vs := range raw {
			var kn uint64
			if kn, err = strconv.ParseUint(ks, 10, 16); err != nil {
				err = errorf.E("pricing: override kind %q is not a kind", ks)
				return
			}
			var v *big.Int
			if v, err = parsePrice("override for kind "+ks, vs); err != nil {
				return
			}
			overrides[uint16(kn)] = v
		}
	}
	var spspI *big.Int
	if spspMin != "" {
		if spspI, err = parsePrice("spsp min price", spspMin); err != nil {
			return
		}
	}
	var owner []byte
	if ownerHex != "" {
		if owner, err = hex.Dec(ownerHex); err != nil {
			err = errorf.E("pricing: owner pubkey is not hex: %v", err)
			return
		}
	}
	return New(baseI, overrides, spspI, owner)
}

// PerByte returns the per byte price in force for a kind.
func (c *C) PerByte(k uint16) *big.Int {
	if v, ok := c.KindOverrides[k]; ok {
		return v
	}
	return c.BasePricePerByte
}

// PriceFor computes the required amount for an encoding of n bytes of the
// given kind.
func (c *C) PriceFor(n int, k uint16) *big.Int {
	return new(big.Int).Mul(big.NewInt(int64(n)), c.PerByte(k))
}

// IsOwner reports whether a pubkey is the configured payment-bypass owner.
func (c *C) IsOwner(pubkey []byte) bool {
	if len(c.OwnerPubkey) == 0 || len(pubkey) != len(c.OwnerPubkey) {
		return false
	}
	for i := range pubkey {
		if pubkey[i] != c.OwnerPubkey[i] {
			return false
		}
	}
	return true
}

func parsePrice(what, s string) (v *big.Int, err error) {
	if s == "" {
		return
	}
	var ok bool
	if v, ok = new(big.Int).SetString(s, 10); !ok {
		err = errorf.E("pricing: %s is not an integer: %q", what, s)
		return
	}
	if v.Sign() < 0 {
		err = errorf.E("pricing: %s is negative: %q", what, s)
		v = nil
	}
	return
}
