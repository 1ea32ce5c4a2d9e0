// Package liquidity opens and withdraws one-sided positions for a token
// against its pairing asset, hiding which of the two is the pool's token0.
//
// All ticks taken and returned by Side are in token terms: a higher tick is a
// higher price of the token in pairing units. When the token sorts as token1
// the pool's ticks are mirrored, so a token range [a, b) is the pool range
// [-b, -a).
package liquidity

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/krazyTry/iptoken-go/amm"
	"github.com/krazyTry/iptoken-go/tickmath"
)

var ErrTokenNotInPool = errors.New("liquidity: token is not one of the pool assets")

// Pool is what the engine needs from a concentrated-liquidity pool.
type Pool interface {
	Address() common.Address
	Token0() common.Address
	Token1() common.Address
	TickSpacing() int32
	Slot0() (*big.Int, int32)
	Position(owner common.Address, lower, upper int32) amm.Position
	Mint(owner common.Address, lower, upper int32, liquidity *big.Int, cb amm.MintCallback, data []byte) (*big.Int, *big.Int, error)
	Burn(owner common.Address, lower, upper int32, liquidity *big.Int) (*big.Int, *big.Int, error)
	Collect(owner common.Address, lower, upper int32, recipient common.Address, max0, max1 *big.Int) (*big.Int, *big.Int, error)
}

// Ledger moves the payments a mint callback owes.
type Ledger interface {
	Transfer(asset, from, to common.Address, amount *big.Int) error
	BalanceOf(asset, holder common.Address) *big.Int
}

// Side binds a token to its pool.
type Side struct {
	pool     Pool
	ledger   Ledger
	token    common.Address
	pairing  common.Address
	isToken0 bool
}

func NewSide(pool Pool, ledger Ledger, token common.Address) (*Side, error) {
	s := &Side{pool: pool, ledger: ledger, token: token}
	switch token {
	case pool.Token0():
		s.isToken0 = true
		s.pairing = pool.Token1()
	case pool.Token1():
		s.pairing = pool.Token0()
	default:
		return nil, fmt.Errorf("%w: %s not in %s", ErrTokenNotInPool, token, pool.Address())
	}
	return s, nil
}

func (s *Side) Pool() Pool                  { return s.pool }
func (s *Side) Token() common.Address       { return s.token }
func (s *Side) Pairing() common.Address     { return s.pairing }
func (s *Side) TokenIsToken0() bool         { return s.isToken0 }
func (s *Side) Spacing() int32              { return s.pool.TickSpacing() }
func (s *Side) PoolAddress() common.Address { return s.pool.Address() }

// TokenTick is the pool's current tick in token terms.
func (s *Side) TokenTick() int32 {
	_, tick := s.pool.Slot0()
	return s.mirror(tick)
}

func (s *Side) mirror(tick int32) int32 {
	if s.isToken0 {
		return tick
	}
	return -tick
}

// PoolRange maps a token range to the pool's tick range.
func (s *Side) PoolRange(lower, upper int32) (int32, int32) {
	if s.isToken0 {
		return lower, upper
	}
	return -upper, -lower
}

// split orders pool amounts as (token, pairing).
func (s *Side) split(amount0, amount1 *big.Int) (*big.Int, *big.Int) {
	if s.isToken0 {
		return amount0, amount1
	}
	return amount1, amount0
}

// join orders (token, pairing) amounts as pool amounts.
func (s *Side) join(token, pairing *big.Int) (*big.Int, *big.Int) {
	return s.split(token, pairing)
}

// Opened reports a position opened by OpenToken or OpenPairing. Lower and
// Upper are pool ticks. A zero Liquidity means the amount was too small to
// open anything and nothing moved.
type Opened struct {
	Pool          common.Address
	Lower         int32
	Upper         int32
	Liquidity     *big.Int
	TokenAmount   *big.Int
	PairingAmount *big.Int
}

// Withdrawn reports everything taken out of one position.
type Withdrawn struct {
	Pool          common.Address
	Lower         int32
	Upper         int32
	Liquidity     *big.Int
	TokenAmount   *big.Int
	PairingAmount *big.Int
}

// OpenToken opens a token-only position for owner over the token range
// [lower, upper), paid by payer with at most amount of the token.
func (s *Side) OpenToken(owner, payer common.Address, lower, upper int32, amount *big.Int) (Opened, error) {
	return s.open(owner, payer, lower, upper, amount, big.NewInt(0))
}

// OpenPairing opens a pairing-only position for owner over the token range
// [lower, upper), paid by payer with at most amount of the pairing asset.
func (s *Side) OpenPairing(owner, payer common.Address, lower, upper int32, amount *big.Int) (Opened, error) {
	return s.open(owner, payer, lower, upper, big.NewInt(0), amount)
}

func (s *Side) open(owner, payer common.Address, lower, upper int32, tokenAmount, pairingAmount *big.Int) (Opened, error) {
	poolLower, poolUpper := s.PoolRange(lower, upper)
	out := Opened{
		Pool:          s.pool.Address(),
		Lower:         poolLower,
		Upper:         poolUpper,
		Liquidity:     big.NewInt(0),
		TokenAmount:   big.NewInt(0),
		PairingAmount: big.NewInt(0),
	}
	if err := tickmath.CheckRange(poolLower, poolUpper, s.Spacing()); err != nil {
		return out, err
	}
	if tokenAmount.Sign() <= 0 && pairingAmount.Sign() <= 0 {
		return out, nil
	}

	sqrtPrice, _ := s.pool.Slot0()
	amount0, amount1 := s.join(tokenAmount, pairingAmount)
	sqrtA, err := tickmath.SqrtRatioAtTick(poolLower)
	if err != nil {
		return out, err
	}
	sqrtB, err := tickmath.SqrtRatioAtTick(poolUpper)
	if err != nil {
		return out, err
	}
	liquidity := tickmath.LiquidityForAmounts(sqrtPrice, sqrtA, sqrtB, amount0, amount1)
	if liquidity.Sign() == 0 {
		return out, nil
	}

	cb := newPayer(s.ledger, s.pool, payer)
	paid0, paid1, err := s.pool.Mint(owner, poolLower, poolUpper, liquidity, cb, nil)
	if err != nil {
		return out, err
	}
	out.Liquidity = liquidity
	out.TokenAmount, out.PairingAmount = s.split(paid0, paid1)
	return out, nil
}

// Owed is what owner's position over the token range [lower, upper) can
// collect without burning: credited fees plus principal left by a burn.
func (s *Side) Owed(owner common.Address, lower, upper int32) (token, pairing *big.Int) {
	poolLower, poolUpper := s.PoolRange(lower, upper)
	pos := s.pool.Position(owner, poolLower, poolUpper)
	return s.split(pos.TokensOwed0, pos.TokensOwed1)
}

// WithdrawAll burns all of owner's liquidity in the token range [lower, upper)
// and collects principal plus fees to recipient.
func (s *Side) WithdrawAll(owner common.Address, lower, upper int32, recipient common.Address) (Withdrawn, error) {
	poolLower, poolUpper := s.PoolRange(lower, upper)
	out := Withdrawn{
		Pool:          s.pool.Address(),
		Lower:         poolLower,
		Upper:         poolUpper,
		Liquidity:     big.NewInt(0),
		TokenAmount:   big.NewInt(0),
		PairingAmount: big.NewInt(0),
	}

	liquidity := s.pool.Position(owner, poolLower, poolUpper).LiquidityBig()
	if liquidity.Sign() > 0 {
		if _, _, err := s.pool.Burn(owner, poolLower, poolUpper, liquidity); err != nil {
			return out, err
		}
		out.Liquidity = liquidity
	}
	amount0, amount1, err := s.pool.Collect(owner, poolLower, poolUpper, recipient, nil, nil)
	if err != nil {
		return out, err
	}
	out.TokenAmount, out.PairingAmount = s.split(amount0, amount1)
	return out, nil
}
