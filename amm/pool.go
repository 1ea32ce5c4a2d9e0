package amm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	binary "github.com/gagliardetto/binary"
	"go.uber.org/zap"

	"github.com/krazyTry/iptoken-go/state"
	"github.com/krazyTry/iptoken-go/tickmath"
	"github.com/krazyTry/iptoken-go/u128"
)

var (
	ErrLocked                = errors.New("amm: pool is locked")
	ErrZeroLiquidity         = errors.New("amm: liquidity must be greater than zero")
	ErrInsufficientLiquidity = errors.New("amm: burn exceeds position liquidity")
	ErrMintUnpaid            = errors.New("amm: mint callback did not pay the owed amounts")
	ErrNilCallback           = errors.New("amm: nil mint callback")
)

// MintCallback pays for a Mint. The pool passes its own address so the
// payer can check who is asking.
type MintCallback interface {
	MintCallback(pool common.Address, owed0, owed1 *big.Int, data []byte) error
}

type slot0 struct {
	SqrtPriceX96 *big.Int
	Tick         int32
}

type PositionKey struct {
	Owner common.Address
	Lower int32
	Upper int32
}

type Position struct {
	Liquidity   binary.Uint128
	TokensOwed0 *big.Int
	TokensOwed1 *big.Int
}

func (p Position) LiquidityBig() *big.Int {
	return u128.ToBig(p.Liquidity)
}

func (p Position) owed0() *big.Int {
	if p.TokensOwed0 == nil {
		return big.NewInt(0)
	}
	return p.TokensOwed0
}

func (p Position) owed1() *big.Int {
	if p.TokensOwed1 == nil {
		return big.NewInt(0)
	}
	return p.TokensOwed1
}

// Pool is a concentrated-liquidity pool over token0/token1.
type Pool struct {
	address common.Address
	token0  common.Address
	token1  common.Address
	fee     uint32
	spacing int32

	j      *state.Journal
	ledger Ledger
	logger *zap.Logger

	slot      *state.Table[common.Address, slot0]
	positions *state.Table[PositionKey, Position]

	locked bool
}

func (p *Pool) Address() common.Address { return p.address }
func (p *Pool) Token0() common.Address  { return p.token0 }
func (p *Pool) Token1() common.Address  { return p.token1 }
func (p *Pool) Fee() uint32             { return p.fee }
func (p *Pool) TickSpacing() int32      { return p.spacing }

// Slot0 returns the current sqrt price and tick.
func (p *Pool) Slot0() (*big.Int, int32) {
	s := p.slot.Value(p.address)
	return new(big.Int).Set(s.SqrtPriceX96), s.Tick
}

func (p *Pool) Position(owner common.Address, lower, upper int32) Position {
	pos := p.positions.Value(PositionKey{owner, lower, upper})
	return Position{
		Liquidity:   pos.Liquidity,
		TokensOwed0: new(big.Int).Set(pos.owed0()),
		TokensOwed1: new(big.Int).Set(pos.owed1()),
	}
}

func (p *Pool) lock() error {
	if p.locked {
		return ErrLocked
	}
	p.locked = true
	return nil
}

func (p *Pool) unlock() {
	p.locked = false
}

func ratios(lower, upper int32) (*big.Int, *big.Int) {
	return tickmath.MustSqrtRatioAtTick(lower), tickmath.MustSqrtRatioAtTick(upper)
}

// Mint adds liquidity to owner's position and collects the owed amounts
// through cb before returning.
func (p *Pool) Mint(owner common.Address, lower, upper int32, liquidity *big.Int, cb MintCallback, data []byte) (amount0, amount1 *big.Int, err error) {
	if cb == nil {
		return nil, nil, ErrNilCallback
	}
	if err = p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	err = p.j.Atomic(func() error {
		amount0, amount1, err = p.mint(owner, lower, upper, liquidity, cb, data)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

func (p *Pool) mint(owner common.Address, lower, upper int32, liquidity *big.Int, cb MintCallback, data []byte) (amount0, amount1 *big.Int, err error) {
	if err = tickmath.CheckRange(lower, upper, p.spacing); err != nil {
		return nil, nil, err
	}
	if liquidity == nil || liquidity.Sign() <= 0 {
		return nil, nil, ErrZeroLiquidity
	}

	sqrtPrice, _ := p.Slot0()
	sqrtA, sqrtB := ratios(lower, upper)
	amount0, amount1 = tickmath.AmountsForLiquidity(sqrtPrice, sqrtA, sqrtB, liquidity, tickmath.RoundingUp)

	key := PositionKey{owner, lower, upper}
	pos := p.positions.Value(key)
	next, err := u128.Add(pos.Liquidity, liquidity)
	if err != nil {
		return nil, nil, err
	}
	p.positions.Put(key, Position{Liquidity: next, TokensOwed0: pos.owed0(), TokensOwed1: pos.owed1()})

	before0 := p.ledger.BalanceOf(p.token0, p.address)
	before1 := p.ledger.BalanceOf(p.token1, p.address)
	if err = cb.MintCallback(p.address, amount0, amount1, data); err != nil {
		return nil, nil, fmt.Errorf("mint callback: %w", err)
	}
	if amount0.Sign() > 0 && p.ledger.BalanceOf(p.token0, p.address).Cmp(new(big.Int).Add(before0, amount0)) < 0 {
		return nil, nil, fmt.Errorf("%w: token0 owed %s", ErrMintUnpaid, amount0)
	}
	if amount1.Sign() > 0 && p.ledger.BalanceOf(p.token1, p.address).Cmp(new(big.Int).Add(before1, amount1)) < 0 {
		return nil, nil, fmt.Errorf("%w: token1 owed %s", ErrMintUnpaid, amount1)
	}

	p.logger.Debug("mint",
		zap.Stringer("owner", owner),
		zap.Int32("lower", lower),
		zap.Int32("upper", upper),
		zap.Stringer("liquidity", liquidity),
		zap.Stringer("amount0", amount0),
		zap.Stringer("amount1", amount1),
	)
	return amount0, amount1, nil
}

// Burn removes liquidity from owner's position. The freed amounts are added to
// the position's owed balances and paid out by Collect.
func (p *Pool) Burn(owner common.Address, lower, upper int32, liquidity *big.Int) (amount0, amount1 *big.Int, err error) {
	if err = p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	if err = tickmath.CheckRange(lower, upper, p.spacing); err != nil {
		return nil, nil, err
	}
	key := PositionKey{owner, lower, upper}
	pos := p.positions.Value(key)
	if liquidity == nil || liquidity.Sign() < 0 || liquidity.Cmp(pos.LiquidityBig()) > 0 {
		return nil, nil, fmt.Errorf("%w: have %s, burn %v", ErrInsufficientLiquidity, pos.LiquidityBig(), liquidity)
	}

	sqrtPrice, _ := p.Slot0()
	sqrtA, sqrtB := ratios(lower, upper)
	amount0, amount1 = tickmath.AmountsForLiquidity(sqrtPrice, sqrtA, sqrtB, liquidity, tickmath.RoundingDown)

	next, err := u128.Add(pos.Liquidity, new(big.Int).Neg(liquidity))
	if err != nil {
		return nil, nil, err
	}
	p.positions.Put(key, Position{
		Liquidity:   next,
		TokensOwed0: new(big.Int).Add(pos.owed0(), amount0),
		TokensOwed1: new(big.Int).Add(pos.owed1(), amount1),
	})
	return amount0, amount1, nil
}

// Collect pays up to max0/max1 of owner's owed balances to recipient.
func (p *Pool) Collect(owner common.Address, lower, upper int32, recipient common.Address, max0, max1 *big.Int) (amount0, amount1 *big.Int, err error) {
	if err = p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	key := PositionKey{owner, lower, upper}
	pos, ok := p.positions.Get(key)
	if !ok {
		return big.NewInt(0), big.NewInt(0), nil
	}
	amount0 = minBig(pos.owed0(), max0)
	amount1 = minBig(pos.owed1(), max1)
	if amount0.Sign() == 0 && amount1.Sign() == 0 {
		return amount0, amount1, nil
	}

	err = p.j.Atomic(func() error {
		p.positions.Put(key, Position{
			Liquidity:   pos.Liquidity,
			TokensOwed0: new(big.Int).Sub(pos.owed0(), amount0),
			TokensOwed1: new(big.Int).Sub(pos.owed1(), amount1),
		})
		if err := p.ledger.Transfer(p.token0, p.address, recipient, amount0); err != nil {
			return err
		}
		return p.ledger.Transfer(p.token1, p.address, recipient, amount1)
	})
	if err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

func minBig(a, b *big.Int) *big.Int {
	if b == nil || a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
