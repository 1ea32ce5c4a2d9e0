package tickmath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiquidityForAmountRoundTrip(t *testing.T) {
	sqrtA := MustSqrtRatioAtTick(-144000)
	sqrtB := MustSqrtRatioAtTick(-120000)
	amount, _ := new(big.Int).SetString("720000000000000000000000000", 10)

	l0 := LiquidityForAmount0(sqrtA, sqrtB, amount)
	assert.Equal(t, 1, l0.Sign())
	owed0 := Amount0Delta(sqrtA, sqrtB, l0, RoundingUp)
	assert.LessOrEqual(t, owed0.Cmp(amount), 0)

	l1 := LiquidityForAmount1(sqrtA, sqrtB, amount)
	owed1 := Amount1Delta(sqrtA, sqrtB, l1, RoundingUp)
	assert.LessOrEqual(t, owed1.Cmp(amount), 0)
}

func TestAmountsForLiquidity(t *testing.T) {
	sqrtA := MustSqrtRatioAtTick(-60)
	sqrtB := MustSqrtRatioAtTick(60)
	liquidity := big.NewInt(1_000_000_000)

	a0, a1 := AmountsForLiquidity(MustSqrtRatioAtTick(-120), sqrtA, sqrtB, liquidity, RoundingDown)
	assert.Equal(t, 1, a0.Sign())
	assert.Equal(t, 0, a1.Sign())

	a0, a1 = AmountsForLiquidity(MustSqrtRatioAtTick(120), sqrtA, sqrtB, liquidity, RoundingDown)
	assert.Equal(t, 0, a0.Sign())
	assert.Equal(t, 1, a1.Sign())

	a0, a1 = AmountsForLiquidity(Q96, sqrtA, sqrtB, liquidity, RoundingDown)
	assert.Equal(t, 1, a0.Sign())
	assert.Equal(t, 1, a1.Sign())

	// the lower bound itself holds no token1
	a0, a1 = AmountsForLiquidity(sqrtA, sqrtA, sqrtB, liquidity, RoundingUp)
	assert.Equal(t, 1, a0.Sign())
	assert.Equal(t, 0, a1.Sign())
}

func TestMulDiv(t *testing.T) {
	assert.Equal(t, "3", MulDiv(big.NewInt(5), big.NewInt(2), big.NewInt(3), RoundingDown).String())
	assert.Equal(t, "4", MulDiv(big.NewInt(5), big.NewInt(2), big.NewInt(3), RoundingUp).String())
	assert.Equal(t, "0", MulDiv(big.NewInt(5), big.NewInt(2), big.NewInt(0), RoundingUp).String())
}

func TestLiquidityForAmountsOneSided(t *testing.T) {
	sqrtA := MustSqrtRatioAtTick(0)
	sqrtB := MustSqrtRatioAtTick(600)
	amount := big.NewInt(1_000_000_000)

	below := LiquidityForAmounts(MustSqrtRatioAtTick(-60), sqrtA, sqrtB, amount, big.NewInt(0))
	assert.Equal(t, 0, below.Cmp(LiquidityForAmount0(sqrtA, sqrtB, amount)))

	above := LiquidityForAmounts(MustSqrtRatioAtTick(660), sqrtA, sqrtB, big.NewInt(0), amount)
	assert.Equal(t, 0, above.Cmp(LiquidityForAmount1(sqrtA, sqrtB, amount)))

	inside := LiquidityForAmounts(MustSqrtRatioAtTick(300), sqrtA, sqrtB, amount, big.NewInt(0))
	assert.Equal(t, 0, inside.Sign(), "one side alone cannot fund a range that straddles the price")
}
