package tickmath

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var q192 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 192), 0)

// PriceFromSqrtRatio converts a Q64.96 sqrt price into token1 per token0.
func PriceFromSqrtRatio(sqrtPriceX96 *big.Int, decimalPlaces int32) decimal.Decimal {
	if sqrtPriceX96 == nil {
		return decimal.Zero
	}
	sq := decimal.NewFromBigInt(new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96), 0)
	return sq.DivRound(q192, decimalPlaces)
}

// PriceAtTick is 1.0001^tick, rounded to decimalPlaces.
func PriceAtTick(tick int32, decimalPlaces int32) (decimal.Decimal, error) {
	sqrt, err := SqrtRatioAtTick(tick)
	if err != nil {
		return decimal.Zero, err
	}
	return PriceFromSqrtRatio(sqrt, decimalPlaces), nil
}
