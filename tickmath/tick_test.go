package tickmath

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqrtRatioAtTickBounds(t *testing.T) {
	zero, err := SqrtRatioAtTick(0)
	require.NoError(t, err)
	assert.Equal(t, 0, zero.Cmp(Q96))

	assert.Equal(t, 0, MustSqrtRatioAtTick(MinTick).Cmp(MinSqrtRatio))
	assert.Equal(t, 0, MustSqrtRatioAtTick(MaxTick).Cmp(MaxSqrtRatio))

	_, err = SqrtRatioAtTick(MaxTick + 1)
	assert.ErrorIs(t, err, ErrTickOutOfRange)
	_, err = SqrtRatioAtTick(MinTick - 1)
	assert.ErrorIs(t, err, ErrTickOutOfRange)
}

func TestSqrtRatioMonotonic(t *testing.T) {
	prev := MustSqrtRatioAtTick(-200)
	for tick := int32(-199); tick <= 200; tick++ {
		cur := MustSqrtRatioAtTick(tick)
		require.Equal(t, 1, cur.Cmp(prev), "tick %d", tick)
		prev = cur
	}
}

func TestTickAtSqrtRatioRoundTrip(t *testing.T) {
	for _, tick := range []int32{MinTick, -144000, -120000, -61, -1, 0, 1, 59, 60, 887220, MaxTick - 1} {
		got, err := TickAtSqrtRatio(MustSqrtRatioAtTick(tick))
		require.NoError(t, err)
		assert.Equal(t, tick, got)
	}

	between := new(big.Int).Add(MustSqrtRatioAtTick(100), big.NewInt(1))
	got, err := TickAtSqrtRatio(between)
	require.NoError(t, err)
	assert.Equal(t, int32(100), got)

	_, err = TickAtSqrtRatio(MaxSqrtRatio)
	assert.ErrorIs(t, err, ErrSqrtRatioOutOfRange)
}

func TestUsableTicks(t *testing.T) {
	assert.Equal(t, int32(887220), MaxUsableTick(60))
	assert.Equal(t, int32(-887220), MinUsableTick(60))
	assert.Equal(t, int32(887200), MaxUsableTick(200))
	assert.NoError(t, ValidateSpacing(60))
	assert.ErrorIs(t, ValidateSpacing(0), ErrInvalidTickSpacing)
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		tick, want int32
	}{
		{0, 0},
		{29, 0},
		{30, 60},
		{89, 60},
		{90, 120},
		{-29, 0},
		{-30, 0},
		{-31, -60},
		{-90, -60},
		{-91, -120},
		{MaxTick, 887220},
		{MaxTick + 500, 887220},
		{MinTick, -887220},
		{MinTick - 500, -887220},
		{887250, 887220},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.tick, 60), "tick %d", c.tick)
	}
}

func TestCheckRange(t *testing.T) {
	assert.NoError(t, CheckRange(-120, 60, 60))
	assert.ErrorIs(t, CheckRange(60, 60, 60), ErrInvalidTickRange)
	assert.ErrorIs(t, CheckRange(-119, 60, 60), ErrTickNotAligned)
	assert.ErrorIs(t, CheckRange(-887280, 60, 60), ErrTickOutOfRange)
}

func TestPriceAtTick(t *testing.T) {
	one, err := PriceAtTick(0, 18)
	require.NoError(t, err)
	assert.True(t, one.Equal(decimal.NewFromInt(1)))

	two, err := PriceAtTick(6932, 18)
	require.NoError(t, err)
	assert.True(t, two.GreaterThan(decimal.RequireFromString("1.999")))
	assert.True(t, two.LessThan(decimal.RequireFromString("2.001")))

	half, err := PriceAtTick(-6932, 18)
	require.NoError(t, err)
	assert.True(t, half.LessThan(decimal.RequireFromString("0.5001")))
}
