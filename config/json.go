package config

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tidwall/gjson"

	"github.com/krazyTry/iptoken-go/u128"
)

var ErrInvalidJSON = errors.New("config: invalid json")

// ParseJSON reads a Config from JSON. Missing keys keep their Default value.
// Amounts are decimal strings and durations are seconds.
//
//	{
//	  "ipOwnerShare": 300000,
//	  "buybackShare": 200000,
//	  "bidWallCap": "1000000000000000000",
//	  "vestingDuration": 7776000,
//	  "treasury": "0x...",
//	  "pairingAsset": "0x...",
//	  "admin": "0x..."
//	}
func ParseJSON(data []byte) (Config, error) {
	if !gjson.ValidBytes(data) {
		return Config{}, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	c := Default()

	for key, dst := range map[string]*uint64{
		"precision":    &c.Precision,
		"burnShare":    &c.BurnShare,
		"ipOwnerShare": &c.IPOwnerShare,
		"buybackShare": &c.BuybackShare,
	} {
		if v := root.Get(key); v.Exists() {
			*dst = v.Uint()
		}
	}
	if v := root.Get("tickSpacing"); v.Exists() {
		n := v.Int()
		if n < math.MinInt32 || n > math.MaxInt32 {
			return Config{}, fmt.Errorf("%w: tickSpacing %s", ErrInvalidTickSpacing, v.Raw)
		}
		c.TickSpacing = int32(n)
	}
	if v := root.Get("poolFee"); v.Exists() {
		n := v.Int()
		if n < 0 || n > math.MaxUint32 {
			return Config{}, fmt.Errorf("%w: poolFee %s", ErrInvalidFee, v.Raw)
		}
		c.PoolFee = uint32(n)
	}
	for key, dst := range map[string]*time.Duration{
		"vestingDuration": &c.VestingDuration,
		"antiSnipeWindow": &c.AntiSnipeWindow,
	} {
		v := root.Get(key)
		if !v.Exists() {
			continue
		}
		n := v.Int()
		if n < 0 || n > int64(math.MaxInt64/time.Second) {
			return Config{}, fmt.Errorf("%w: %s %s", ErrInvalidDuration, key, v.Raw)
		}
		*dst = time.Duration(n) * time.Second
	}

	var err error
	if c.BidWallCap, err = amount(root, "bidWallCap", c.BidWallCap); err != nil {
		return Config{}, err
	}
	if c.AntiSnipeCap, err = amount(root, "antiSnipeCap", c.AntiSnipeCap); err != nil {
		return Config{}, err
	}

	for key, dst := range map[string]*common.Address{
		"treasury":     &c.Treasury,
		"pairingAsset": &c.PairingAsset,
		"admin":        &c.Admin,
	} {
		v := root.Get(key)
		if !v.Exists() {
			continue
		}
		if !common.IsHexAddress(v.String()) {
			return Config{}, fmt.Errorf("%w: %s is not an address: %q", ErrInvalidJSON, key, v.String())
		}
		*dst = common.HexToAddress(v.String())
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func amount(root gjson.Result, key string, def *big.Int) (*big.Int, error) {
	v := root.Get(key)
	if !v.Exists() {
		return def, nil
	}
	n, err := u128.Parse(v.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAmount, key, err)
	}
	return u128.ToBig(n), nil
}
