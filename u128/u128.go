package u128

import (
	"errors"
	"fmt"
	"math/big"

	binary "github.com/gagliardetto/binary"
)

var (
	ErrOverflow = errors.New("value overflows uint128")
	ErrNegative = errors.New("value cannot be negative")
)

// Parse reads a base-10 amount that must fit in 128 bits.
func Parse(num string) (binary.Uint128, error) {
	v, ok := new(big.Int).SetString(num, 10)
	if !ok {
		return binary.Uint128{}, fmt.Errorf("parse %q: not a base-10 integer", num)
	}
	return FromBig(v)
}

// FromBig converts v, failing when it does not fit in 128 bits.
func FromBig(v *big.Int) (binary.Uint128, error) {
	if v == nil {
		return binary.Uint128{}, nil
	}
	if v.Sign() < 0 {
		return binary.Uint128{}, ErrNegative
	}
	if v.BitLen() > 128 {
		return binary.Uint128{}, ErrOverflow
	}
	lo := new(big.Int).And(v, new(big.Int).SetUint64(^uint64(0))).Uint64()
	hi := new(big.Int).Rsh(v, 64).Uint64()
	return binary.Uint128{Lo: lo, Hi: hi}, nil
}

func ToBig(u binary.Uint128) *big.Int {
	out := new(big.Int).SetUint64(u.Hi)
	out.Lsh(out, 64)
	return out.Or(out, new(big.Int).SetUint64(u.Lo))
}

func IsZero(u binary.Uint128) bool {
	return u.Lo == 0 && u.Hi == 0
}

// Add returns a + delta, where delta may be negative.
func Add(a binary.Uint128, delta *big.Int) (binary.Uint128, error) {
	sum := new(big.Int).Add(ToBig(a), delta)
	if sum.Sign() < 0 {
		return binary.Uint128{}, fmt.Errorf("liquidity underflow: %w", ErrNegative)
	}
	return FromBig(sum)
}
