package config

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/iptoken-go/u128"
)

func valid() Config {
	c := Default()
	c.Treasury = common.HexToAddress("0x7e")
	c.PairingAsset = common.HexToAddress("0x9a")
	c.Admin = common.HexToAddress("0xad")
	c.BidWallCap = big.NewInt(1_000_000)
	return c
}

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, uint64(1_000_000), c.Precision)
	assert.Equal(t, 90*24*time.Hour, c.VestingDuration)
	assert.Equal(t, int32(60), c.TickSpacing)
	assert.ErrorIs(t, c.Validate(), ErrZeroAddress)
	require.NoError(t, valid().Validate())
}

func TestShareBound(t *testing.T) {
	c := valid()
	c.IPOwnerShare = 600_000
	c.BuybackShare = 400_000
	require.NoError(t, c.Validate())

	c.BuybackShare = 400_001
	assert.ErrorIs(t, c.Validate(), ErrInvalidShares)

	c = valid()
	c.BurnShare = c.Precision + 1
	assert.ErrorIs(t, c.Validate(), ErrInvalidShares)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Config)
		err    error
	}{
		"spacing":  {func(c *Config) { c.TickSpacing = 0 }, ErrInvalidTickSpacing},
		"duration": {func(c *Config) { c.VestingDuration = 0 }, ErrInvalidDuration},
		"fee":      {func(c *Config) { c.PoolFee = 1_000_000 }, ErrInvalidFee},
		"cap":      {func(c *Config) { c.BidWallCap = big.NewInt(-1) }, ErrInvalidAmount},
		"treasury": {func(c *Config) { c.Treasury = common.Address{} }, ErrZeroAddress},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			assert.ErrorIs(t, c.Validate(), tc.err)
		})
	}
}

func TestShareAndPercent(t *testing.T) {
	c := valid()
	assert.Equal(t, int64(300), c.Share(big.NewInt(1000), 300_000).Int64())
	assert.Equal(t, int64(0), c.Share(big.NewInt(3), 300_000).Int64())
	assert.Equal(t, "30", c.Percent(300_000).String())
	assert.Equal(t, "0.5", c.Percent(5_000).String())
}

func TestParseJSON(t *testing.T) {
	c, err := ParseJSON([]byte(`{
		"ipOwnerShare": 300000,
		"buybackShare": 200000,
		"burnShare": 1000000,
		"bidWallCap": "5000000000000000000000",
		"vestingDuration": 3600,
		"antiSnipeWindow": 600,
		"antiSnipeCap": "1000",
		"treasury": "0x000000000000000000000000000000000000007e",
		"pairingAsset": "0x000000000000000000000000000000000000009a",
		"admin": "0x00000000000000000000000000000000000000ad"
	}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(300_000), c.IPOwnerShare)
	assert.Equal(t, uint64(1_000_000), c.BurnShare)
	assert.Equal(t, "5000000000000000000000", c.BidWallCap.String())
	assert.Equal(t, time.Hour, c.VestingDuration)
	assert.Equal(t, 10*time.Minute, c.AntiSnipeWindow)
	assert.Equal(t, int64(1000), c.AntiSnipeCap.Int64())
	assert.Equal(t, common.HexToAddress("0x9a"), c.PairingAsset)
	assert.Equal(t, int32(60), c.TickSpacing)
}

func TestParseJSONRejects(t *testing.T) {
	_, err := ParseJSON([]byte(`{"treasury":`))
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = ParseJSON([]byte(`{"treasury": "nope"}`))
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = ParseJSON([]byte(`{"bidWallCap": "1.5"}`))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseJSON([]byte(`{"bidWallCap": "340282366920938463463374607431768211456"}`))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.ErrorIs(t, err, u128.ErrOverflow)

	_, err = ParseJSON([]byte(`{"antiSnipeCap": "-1"}`))
	assert.ErrorIs(t, err, u128.ErrNegative)

	// 2^32 + 60 would narrow to a valid spacing and fee
	_, err = ParseJSON([]byte(`{"tickSpacing": 4294967356}`))
	assert.ErrorIs(t, err, ErrInvalidTickSpacing)

	_, err = ParseJSON([]byte(`{"poolFee": 4294970296}`))
	assert.ErrorIs(t, err, ErrInvalidFee)

	_, err = ParseJSON([]byte(`{"vestingDuration": 9223372036854775807}`))
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = ParseJSON([]byte(`{
		"ipOwnerShare": 900000,
		"buybackShare": 200000,
		"treasury": "0x000000000000000000000000000000000000007e",
		"pairingAsset": "0x000000000000000000000000000000000000009a",
		"admin": "0x00000000000000000000000000000000000000ad"
	}`))
	assert.ErrorIs(t, err, ErrInvalidShares)
}

func TestSnapshot(t *testing.T) {
	c := valid()
	c.AntiSnipeWindow = 15 * time.Minute
	c.AntiSnipeCap = new(big.Int).Lsh(big.NewInt(1), 100)

	data, err := EncodeSnapshot(c)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, data[0])

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, c.IPOwnerShare, got.IPOwnerShare)
	assert.Equal(t, c.Admin, got.Admin)
	assert.Equal(t, c.VestingDuration, got.VestingDuration)
	assert.Equal(t, 0, c.AntiSnipeCap.Cmp(got.AntiSnipeCap))
	assert.Equal(t, 0, c.BidWallCap.Cmp(got.BidWallCap))

	data[0] = 2
	_, err = DecodeSnapshot(data)
	assert.ErrorIs(t, err, ErrSnapshotVersion)
}
