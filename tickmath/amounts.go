package tickmath

import (
	"math/big"
)

type Rounding uint8

const (
	RoundingUp   Rounding = 0
	RoundingDown Rounding = 1
)

func MulDiv(x, y, denominator *big.Int, rounding Rounding) *big.Int {
	if denominator.Sign() == 0 {
		return big.NewInt(0)
	}
	mul := new(big.Int).Mul(x, y)
	div, mod := new(big.Int).QuoRem(mul, denominator, new(big.Int))
	if rounding == RoundingUp && mod.Sign() != 0 {
		return div.Add(div, big.NewInt(1))
	}
	return div
}

func divRoundingUp(x, y *big.Int) *big.Int {
	div, mod := new(big.Int).QuoRem(x, y, new(big.Int))
	if mod.Sign() != 0 {
		div.Add(div, big.NewInt(1))
	}
	return div
}

func ordered(a, b *big.Int) (*big.Int, *big.Int) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

// Amount0Delta is the token0 amount between two sqrt prices for liquidity.
func Amount0Delta(sqrtA, sqrtB, liquidity *big.Int, rounding Rounding) *big.Int {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	if sqrtA.Sign() <= 0 {
		panic("sqrt price must be greater than zero")
	}
	numerator1 := new(big.Int).Lsh(liquidity, 96)
	numerator2 := new(big.Int).Sub(sqrtB, sqrtA)
	if rounding == RoundingUp {
		return divRoundingUp(MulDiv(numerator1, numerator2, sqrtB, RoundingUp), sqrtA)
	}
	out := MulDiv(numerator1, numerator2, sqrtB, RoundingDown)
	return out.Div(out, sqrtA)
}

// Amount1Delta is the token1 amount between two sqrt prices for liquidity.
func Amount1Delta(sqrtA, sqrtB, liquidity *big.Int, rounding Rounding) *big.Int {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	return MulDiv(liquidity, new(big.Int).Sub(sqrtB, sqrtA), Q96, rounding)
}

// LiquidityForAmount0 is the liquidity a token0-only position over [sqrtA, sqrtB] gets from amount0.
func LiquidityForAmount0(sqrtA, sqrtB, amount0 *big.Int) *big.Int {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	intermediate := MulDiv(sqrtA, sqrtB, Q96, RoundingDown)
	return MulDiv(amount0, intermediate, new(big.Int).Sub(sqrtB, sqrtA), RoundingDown)
}

// LiquidityForAmount1 is the liquidity a token1-only position over [sqrtA, sqrtB] gets from amount1.
func LiquidityForAmount1(sqrtA, sqrtB, amount1 *big.Int) *big.Int {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	return MulDiv(amount1, Q96, new(big.Int).Sub(sqrtB, sqrtA), RoundingDown)
}

// AmountsForLiquidity splits liquidity over [sqrtA, sqrtB] into token amounts at the current price.
func AmountsForLiquidity(sqrtPrice, sqrtA, sqrtB, liquidity *big.Int, rounding Rounding) (amount0, amount1 *big.Int) {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	switch {
	case sqrtPrice.Cmp(sqrtA) <= 0:
		return Amount0Delta(sqrtA, sqrtB, liquidity, rounding), big.NewInt(0)
	case sqrtPrice.Cmp(sqrtB) < 0:
		return Amount0Delta(sqrtPrice, sqrtB, liquidity, rounding), Amount1Delta(sqrtA, sqrtPrice, liquidity, rounding)
	default:
		return big.NewInt(0), Amount1Delta(sqrtA, sqrtB, liquidity, rounding)
	}
}

// LiquidityForAmounts is the largest liquidity over [sqrtA, sqrtB] that
// amount0 and amount1 can fund at the current price.
func LiquidityForAmounts(sqrtPrice, sqrtA, sqrtB, amount0, amount1 *big.Int) *big.Int {
	sqrtA, sqrtB = ordered(sqrtA, sqrtB)
	switch {
	case sqrtPrice.Cmp(sqrtA) <= 0:
		return LiquidityForAmount0(sqrtA, sqrtB, amount0)
	case sqrtPrice.Cmp(sqrtB) < 0:
		l0 := LiquidityForAmount0(sqrtPrice, sqrtB, amount0)
		l1 := LiquidityForAmount1(sqrtA, sqrtPrice, amount1)
		if l0.Cmp(l1) < 0 {
			return l0
		}
		return l1
	default:
		return LiquidityForAmount1(sqrtA, sqrtB, amount1)
	}
}
