package filter

import (
	"lol.mleku.dev/chk"
	"lukechampine.com/frand"

	"crosstown.dev/pkg/crypto/p256k"
	"crosstown.dev/pkg/crypto/sha256"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/encoders/kind"
	"crosstown.dev/pkg/encoders/tag"
	"crosstown.dev/pkg/encoders/timestamp"
	"crosstown.dev/pkg/utils/values"
)

// GenFilter is a testing tool to create random arbitrary filters.
func GenFilter() (f *F, err error) {
	f = New()
	n := frand.Intn(8)
	for range n {
		id := make([]byte, sha256.Size)
		frand.Read(id)
		f.Ids.T = append(f.Ids.T, hex.EncBytes(id))
	}
	n = frand.Intn(8)
	for range n {
		f.Kinds.K = append(f.Kinds.K, kind.New(frand.Intn(65535)))
	}
	n = frand.Intn(8)
	for range n {
		var sign p256k.Signer
		if err = sign.Generate(); chk.E(err) {
			return
		}
		f.Authors.T = append(f.Authors.T, hex.EncBytes(sign.Pub()))
	}
	for b := byte('a'); b <= 'e'; b++ {
		l := frand.Intn(4)
		if l == 0 {
			continue
		}
		elems := [][]byte{{b}}
		for range l {
			v := make([]byte, frand.Intn(15)+1)
			frand.Read(v)
			elems = append(elems, hex.EncBytes(v))
		}
		f.Tags.Append(tag.NewFromBytesSlice(elems...))
	}
	if frand.Intn(2) == 0 {
		f.Since = timestamp.FromUnix(int64(frand.Intn(1 << 31)))
	}
	if frand.Intn(2) == 0 {
		f.Limit = values.ToUintPointer(uint(frand.Intn(500)))
	}
	return
}
