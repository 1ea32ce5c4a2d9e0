package tickmath

import (
	"errors"
	"fmt"
	"math/big"
)

const (
	MinTick int32 = -887272
	MaxTick int32 = 887272

	// MaxTickSpacing bounds configured spacings the same way the AMM does.
	MaxTickSpacing int32 = 16384
)

var (
	ErrTickOutOfRange      = errors.New("tick outside the valid range")
	ErrSqrtRatioOutOfRange = errors.New("sqrt price outside the valid range")
	ErrInvalidTickSpacing  = errors.New("invalid tick spacing")
	ErrTickNotAligned      = errors.New("tick is not a multiple of the tick spacing")
	ErrInvalidTickRange    = errors.New("lower tick must be below upper tick")
)

var (
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

	// MinSqrtRatio is SqrtRatioAtTick(MinTick).
	MinSqrtRatio = big.NewInt(4295128739)
	// MaxSqrtRatio is SqrtRatioAtTick(MaxTick).
	MaxSqrtRatio = bigIntFromString("1461446703485210103287273052203988822378723970342", 10)

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	q32Mask    = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 32), big.NewInt(1))

	// sqrt(1.0001^-(2^i)) in Q128.128, one per bit of |tick|.
	ratioMagics = []*big.Int{
		bigIntFromString("fffcb933bd6fad37aa2d162d1a594001", 16),
		bigIntFromString("fff97272373d413259a46990580e213a", 16),
		bigIntFromString("fff2e50f5f656932ef12357cf3c7fdcc", 16),
		bigIntFromString("ffe5caca7e10e4e61c3624eaa0941cd0", 16),
		bigIntFromString("ffcb9843d60f6159c9db58835c926644", 16),
		bigIntFromString("ff973b41fa98c081472e6896dfb254c0", 16),
		bigIntFromString("ff2ea16466c96a3843ec78b326b52861", 16),
		bigIntFromString("fe5dee046a99a2a811c461f1969c3053", 16),
		bigIntFromString("fcbe86c7900a88aedcffc83b479aa3a4", 16),
		bigIntFromString("f987a7253ac413176f2b074cf7815e54", 16),
		bigIntFromString("f3392b0822b70005940c7a398e4b70f3", 16),
		bigIntFromString("e7159475a2c29b7443b29c7fa6e889d9", 16),
		bigIntFromString("d097f3bdfd2022b8845ad8f792aa5825", 16),
		bigIntFromString("a9f746462d870fdf8a65dc1f90e061e5", 16),
		bigIntFromString("70d869a156d2a1b890bb3df62baf32f7", 16),
		bigIntFromString("31be135f97d08fd981231505542fcfa6", 16),
		bigIntFromString("9aa508b5b7a84e1c677de54f3e99bc9", 16),
		bigIntFromString("5d6af8dedb81196699c329225ee604", 16),
		bigIntFromString("2216e584f5fa1ea926041bedfe98", 16),
		bigIntFromString("48a170391f7dc42444e8fa2", 16),
	}
)

func bigIntFromString(v string, base int) *big.Int {
	out, ok := new(big.Int).SetString(v, base)
	if !ok {
		panic("invalid big integer literal")
	}
	return out
}

// SqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96, rounded up.
func SqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
	}
	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	ratio := new(big.Int).Lsh(big.NewInt(1), 128)
	for bit, magic := range ratioMagics {
		if absTick&(1<<uint(bit)) != 0 {
			ratio.Mul(ratio, magic)
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio = new(big.Int).Div(maxUint256, ratio)
	}

	out := new(big.Int).Rsh(ratio, 32)
	if new(big.Int).And(ratio, q32Mask).Sign() != 0 {
		out.Add(out, big.NewInt(1))
	}
	return out, nil
}

func MustSqrtRatioAtTick(tick int32) *big.Int {
	out, err := SqrtRatioAtTick(tick)
	if err != nil {
		panic(err)
	}
	return out
}

// TickAtSqrtRatio returns the greatest tick whose sqrt ratio is <= sqrtPriceX96.
func TickAtSqrtRatio(sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrSqrtRatioOutOfRange
	}

	low, high := MinTick, MaxTick
	for low < high {
		mid := low + (high-low+1)/2
		if MustSqrtRatioAtTick(mid).Cmp(sqrtPriceX96) <= 0 {
			low = mid
		} else {
			high = mid - 1
		}
	}
	return low, nil
}

func ValidateSpacing(spacing int32) error {
	if spacing <= 0 || spacing > MaxTickSpacing {
		return fmt.Errorf("%w: %d", ErrInvalidTickSpacing, spacing)
	}
	return nil
}

// MinUsableTick is the lowest spacing-aligned tick inside the valid range.
func MinUsableTick(spacing int32) int32 {
	return (MinTick / spacing) * spacing
}

// MaxUsableTick is the highest spacing-aligned tick inside the valid range.
func MaxUsableTick(spacing int32) int32 {
	return (MaxTick / spacing) * spacing
}

func IsAligned(tick, spacing int32) bool {
	return tick%spacing == 0
}

// CheckRange validates a position range the way the pool does.
func CheckRange(lower, upper, spacing int32) error {
	if lower >= upper {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidTickRange, lower, upper)
	}
	if lower < MinTick || upper > MaxTick {
		return fmt.Errorf("%w: [%d, %d)", ErrTickOutOfRange, lower, upper)
	}
	if !IsAligned(lower, spacing) || !IsAligned(upper, spacing) {
		return fmt.Errorf("%w: [%d, %d) spacing %d", ErrTickNotAligned, lower, upper, spacing)
	}
	return nil
}

// Normalize clamps tick into the valid range and rounds it to the nearest
// spacing-aligned tick that is still usable. Halfway values round up.
func Normalize(tick, spacing int32) int32 {
	minUsable, maxUsable := MinUsableTick(spacing), MaxUsableTick(spacing)

	if tick < MinTick {
		tick = MinTick
	} else if tick > MaxTick {
		tick = MaxTick
	}

	// Go division truncates toward zero, so pull negative remainders up
	// to make q the floor quotient.
	q, r := tick/spacing, tick%spacing
	if r < 0 {
		q--
		r += spacing
	}
	aligned := q * spacing
	if 2*r >= spacing {
		aligned += spacing
		if aligned > maxUsable {
			aligned -= spacing
		}
	}

	if aligned < minUsable {
		aligned = minUsable
	} else if aligned > maxUsable {
		aligned = maxUsable
	}
	return aligned
}
