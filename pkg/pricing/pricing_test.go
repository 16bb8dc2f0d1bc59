package pricing

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceScalesWithSize(t *testing.T) {
	c, err := FromConfig("10", "", "", "")
	require.NoError(t, err)
	small := c.PriceFor(100, 1)
	large := c.PriceFor(200, 1)
	assert.Equal(t, "1000", small.String())
	assert.Equal(t, "2000", large.String())
	// monotonicity in size for the same kind
	assert.True(t, large.Cmp(small) >= 0)
}

func TestKindOverrides(t *testing.T) {
	c, err := FromConfig("10", `{"1":"5","10032":"0"}`, "", "")
	require.NoError(t, err)
	assert.Equal(t, "500", c.PriceFor(100, 1).String())
	assert.Equal(t, "0", c.PriceFor(100, 10032).String())
	// kinds without an override use the base price
	assert.Equal(t, "1000", c.PriceFor(100, 7).String())
}

func TestDefaultBasePrice(t *testing.T) {
	c, err := New(nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultBasePricePerByte),
		c.BasePricePerByte.Int64())
}

func TestLargeAmounts(t *testing.T) {
	// a per byte rate beyond int64 must not overflow
	rate := "123456789012345678901234567890"
	c, err := FromConfig(rate, "", "", "")
	require.NoError(t, err)
	want, _ := new(big.Int).SetString(rate, 10)
	want.Mul(want, big.NewInt(1000))
	assert.Equal(t, want.String(), c.PriceFor(1000, 1).String())
}

func TestConfigValidation(t *testing.T) {
	for _, tc := range []struct {
		name                          string
		base, overrides, spsp, owner string
	}{
		{"negative base", "-1", "", "", ""},
		{"garbage base", "ten", "", "", ""},
		{"negative override", "10", `{"1":"-5"}`, "", ""},
		{"garbage override kind", "10", `{"a":"5"}`, "", ""},
		{"overrides not object", "10", `[1,2]`, "", ""},
		{"negative spsp", "10", "", "-1", ""},
		{"owner not hex", "10", "", "", "zz"},
		{"owner wrong length", "10", "", "", "abcd"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromConfig(tc.base, tc.overrides, tc.spsp, tc.owner)
			assert.Error(t, err)
		})
	}
}

func TestIsOwner(t *testing.T) {
	owner := "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	c, err := FromConfig("10", "", "", owner)
	require.NoError(t, err)
	assert.True(t, c.IsOwner(c.OwnerPubkey))
	other := make([]byte, 32)
	assert.False(t, c.IsOwner(other))
	assert.False(t, c.IsOwner(nil))
	// no owner configured: nobody matches
	c2, err := FromConfig("10", "", "", "")
	require.NoError(t, err)
	assert.False(t, c2.IsOwner(c.OwnerPubkey))
}
