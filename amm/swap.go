package amm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/krazyTry/iptoken-go/tickmath"
	"github.com/krazyTry/iptoken-go/u128"
)

// holdings sums what every position is worth at sqrtPrice, rounded down.
func (p *Pool) holdings(sqrtPrice *big.Int) (*big.Int, *big.Int) {
	total0, total1 := big.NewInt(0), big.NewInt(0)
	p.positions.Range(func(k PositionKey, pos Position) bool {
		liquidity := pos.LiquidityBig()
		if liquidity.Sign() == 0 {
			return true
		}
		sqrtA, sqrtB := ratios(k.Lower, k.Upper)
		a0, a1 := tickmath.AmountsForLiquidity(sqrtPrice, sqrtA, sqrtB, liquidity, tickmath.RoundingDown)
		total0.Add(total0, a0)
		total1.Add(total1, a1)
		return true
	})
	return total0, total1
}

// SwapToTick trades the pool price to target. The trader pays the increase in
// pool holdings plus the fee and receives the decrease. Returned amounts are
// the trader's payments; negative values were received.
func (p *Pool) SwapToTick(trader common.Address, target int32) (amount0, amount1 *big.Int, err error) {
	if err = p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	targetSqrt, err := tickmath.SqrtRatioAtTick(target)
	if err != nil {
		return nil, nil, err
	}
	sqrtPrice, tick := p.Slot0()
	if sqrtPrice.Cmp(targetSqrt) == 0 {
		return big.NewInt(0), big.NewInt(0), nil
	}

	before0, before1 := p.holdings(sqrtPrice)
	after0, after1 := p.holdings(targetSqrt)
	amount0 = new(big.Int).Sub(after0, before0)
	amount1 = new(big.Int).Sub(after1, before1)

	var feeAsset common.Address
	fee := big.NewInt(0)
	switch {
	case amount0.Sign() > 0:
		feeAsset = p.token0
		fee = tickmath.MulDiv(amount0, big.NewInt(int64(p.fee)), big.NewInt(FeeDenominator), tickmath.RoundingUp)
	case amount1.Sign() > 0:
		feeAsset = p.token1
		fee = tickmath.MulDiv(amount1, big.NewInt(int64(p.fee)), big.NewInt(FeeDenominator), tickmath.RoundingUp)
	}

	err = p.j.Atomic(func() error {
		p.slot.Put(p.address, slot0{SqrtPriceX96: targetSqrt, Tick: target})
		if fee.Sign() > 0 {
			p.creditFees(tick, target, feeAsset == p.token0, fee)
		}
		if err := p.settle(p.token0, trader, amount0, feeFor(feeAsset == p.token0, fee)); err != nil {
			return err
		}
		return p.settle(p.token1, trader, amount1, feeFor(feeAsset == p.token1, fee))
	})
	if err != nil {
		return nil, nil, err
	}

	if feeAsset == p.token0 {
		amount0.Add(amount0, fee)
	} else if feeAsset == p.token1 {
		amount1.Add(amount1, fee)
	}
	p.logger.Debug("swap",
		zap.Stringer("trader", trader),
		zap.Int32("from", tick),
		zap.Int32("to", target),
		zap.Stringer("amount0", amount0),
		zap.Stringer("amount1", amount1),
	)
	return amount0, amount1, nil
}

func feeFor(applies bool, fee *big.Int) *big.Int {
	if applies {
		return fee
	}
	return big.NewInt(0)
}

func (p *Pool) settle(asset, trader common.Address, delta, fee *big.Int) error {
	switch delta.Sign() {
	case 1:
		return p.ledger.Transfer(asset, trader, p.address, new(big.Int).Add(delta, fee))
	case -1:
		return p.ledger.Transfer(asset, p.address, trader, new(big.Int).Neg(delta))
	}
	return nil
}

// creditFees splits fee over the positions whose range the swap crossed,
// pro rata to liquidity. Rounding dust stays in the pool.
func (p *Pool) creditFees(from, to int32, isToken0 bool, fee *big.Int) {
	lo, hi := from, to
	if lo > hi {
		lo, hi = hi, lo
	}
	crossed := func(k PositionKey) bool {
		if lo == hi {
			return k.Lower <= lo && lo < k.Upper
		}
		return k.Lower < hi && lo < k.Upper
	}

	active := make(map[PositionKey]Position)
	total := big.NewInt(0)
	p.positions.Range(func(k PositionKey, pos Position) bool {
		if !u128.IsZero(pos.Liquidity) && crossed(k) {
			active[k] = pos
			total.Add(total, pos.LiquidityBig())
		}
		return true
	})
	if total.Sign() == 0 {
		return
	}

	for k, pos := range active {
		share := tickmath.MulDiv(fee, pos.LiquidityBig(), total, tickmath.RoundingDown)
		next := Position{Liquidity: pos.Liquidity, TokensOwed0: pos.owed0(), TokensOwed1: pos.owed1()}
		if isToken0 {
			next.TokensOwed0 = new(big.Int).Add(pos.owed0(), share)
		} else {
			next.TokensOwed1 = new(big.Int).Add(pos.owed1(), share)
		}
		p.positions.Put(k, next)
	}
}
