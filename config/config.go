// Package config holds the constants an engine deployment is created with.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/krazyTry/iptoken-go/tickmath"
)

// DefaultPrecision is the denominator every share is expressed against.
const DefaultPrecision = 1_000_000

var (
	ErrInvalidShares      = errors.New("config: invalid share parameters")
	ErrZeroAddress        = errors.New("config: zero address")
	ErrInvalidTickSpacing = errors.New("config: invalid tick spacing")
	ErrInvalidDuration    = errors.New("config: invalid duration")
	ErrInvalidFee         = errors.New("config: invalid pool fee")
	ErrInvalidAmount      = errors.New("config: invalid amount")
)

type Config struct {
	Precision    uint64
	BurnShare    uint64
	IPOwnerShare uint64
	BuybackShare uint64

	// BidWallCap is the most pairing asset one bid wall position holds.
	// Zero disables the bid wall for new tokens.
	BidWallCap *big.Int

	VestingDuration time.Duration
	TickSpacing     int32
	PoolFee         uint32

	// AntiSnipeWindow and AntiSnipeCap limit what one recipient may take out
	// of a new token's pool right after launch. Zero disables it.
	AntiSnipeWindow time.Duration
	AntiSnipeCap    *big.Int

	Treasury     common.Address
	PairingAsset common.Address
	Admin        common.Address
}

// Default returns the deployment defaults. The addresses are left zero and
// must be filled in before Validate passes.
func Default() Config {
	return Config{
		Precision:       DefaultPrecision,
		BurnShare:       500_000,
		IPOwnerShare:    400_000,
		BuybackShare:    300_000,
		BidWallCap:      big.NewInt(0),
		VestingDuration: 90 * 24 * time.Hour,
		TickSpacing:     60,
		PoolFee:         3000,
		AntiSnipeWindow: 0,
		AntiSnipeCap:    big.NewInt(0),
	}
}

func (c Config) Validate() error {
	if c.Precision == 0 {
		return fmt.Errorf("%w: zero precision", ErrInvalidShares)
	}
	if c.IPOwnerShare+c.BuybackShare > c.Precision || c.IPOwnerShare > c.Precision || c.BuybackShare > c.Precision {
		return fmt.Errorf("%w: owner %d + buyback %d exceeds %d", ErrInvalidShares, c.IPOwnerShare, c.BuybackShare, c.Precision)
	}
	if c.BurnShare > c.Precision {
		return fmt.Errorf("%w: burn %d exceeds %d", ErrInvalidShares, c.BurnShare, c.Precision)
	}
	if err := tickmath.ValidateSpacing(c.TickSpacing); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTickSpacing, err)
	}
	if c.VestingDuration < time.Second {
		return fmt.Errorf("%w: vesting %s", ErrInvalidDuration, c.VestingDuration)
	}
	if c.AntiSnipeWindow < 0 {
		return fmt.Errorf("%w: anti-snipe window %s", ErrInvalidDuration, c.AntiSnipeWindow)
	}
	if c.PoolFee == 0 || c.PoolFee >= 1_000_000 {
		return fmt.Errorf("%w: %d", ErrInvalidFee, c.PoolFee)
	}
	if c.BidWallCap == nil || c.BidWallCap.Sign() < 0 {
		return fmt.Errorf("%w: bid wall cap %v", ErrInvalidAmount, c.BidWallCap)
	}
	if c.AntiSnipeCap == nil || c.AntiSnipeCap.Sign() < 0 {
		return fmt.Errorf("%w: anti-snipe cap %v", ErrInvalidAmount, c.AntiSnipeCap)
	}

	for name, addr := range map[string]common.Address{
		"treasury":     c.Treasury,
		"pairingAsset": c.PairingAsset,
		"admin":        c.Admin,
	} {
		if addr == (common.Address{}) {
			return fmt.Errorf("%w: %s", ErrZeroAddress, name)
		}
	}
	return nil
}

// Share returns amount * share / Precision, rounded down.
func (c Config) Share(amount *big.Int, share uint64) *big.Int {
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(share))
	return out.Quo(out, new(big.Int).SetUint64(c.Precision))
}

// Percent renders a share as a percentage, e.g. 300000 -> 30.
func (c Config) Percent(share uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(share), 2).
		DivRound(decimal.NewFromBigInt(new(big.Int).SetUint64(c.Precision), 0), 4)
}
