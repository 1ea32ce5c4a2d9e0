// Package ladder spreads a new token's supply over up to four one-sided
// positions at ascending prices and runs the harvest state machine over them.
package ladder

import (
	"errors"
	"fmt"

	"github.com/krazyTry/iptoken-go/metadata"
	"github.com/krazyTry/iptoken-go/tickmath"
)

// MaxTiers is bounded by the ticks one metadata word can hold.
const MaxTiers = metadata.MaxTicks

var (
	ErrEmptyTicks         = errors.New("ladder: no start ticks")
	ErrTooManyTicks       = errors.New("ladder: too many start ticks")
	ErrUnsortedTicks      = errors.New("ladder: start ticks must be strictly ascending")
	ErrMisalignedTick     = errors.New("ladder: start tick not a multiple of the tick spacing")
	ErrAllocationMismatch = errors.New("ladder: one allocation per start tick required")
	ErrAllocationTooLarge = errors.New("ladder: allocations exceed precision")
	ErrNoTiers            = errors.New("ladder: token has no tiers")
	ErrTiersExist         = errors.New("ladder: token already has tiers")
)

// Tier is one rung of the ladder in token ticks. Allocation is the share of
// total supply it was seeded with, out of the engine precision.
type Tier struct {
	Lower      int32
	Upper      int32
	Allocation uint64
}

// Build validates start ticks and allocations and returns the tiers. Tier i
// spans [ticks[i], ticks[i+1]) and the last one ends at the highest usable tick.
func Build(ticks []int32, allocations []uint64, spacing int32, precision uint64) ([]Tier, error) {
	switch {
	case len(ticks) == 0:
		return nil, ErrEmptyTicks
	case len(ticks) > MaxTiers:
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyTicks, len(ticks), MaxTiers)
	case len(allocations) != len(ticks):
		return nil, fmt.Errorf("%w: %d ticks, %d allocations", ErrAllocationMismatch, len(ticks), len(allocations))
	}
	if err := tickmath.ValidateSpacing(spacing); err != nil {
		return nil, err
	}

	minTick, maxTick := tickmath.MinUsableTick(spacing), tickmath.MaxUsableTick(spacing)
	var sum uint64
	for i, tick := range ticks {
		if !tickmath.IsAligned(tick, spacing) {
			return nil, fmt.Errorf("%w: %d", ErrMisalignedTick, tick)
		}
		if tick < minTick || tick >= maxTick {
			return nil, fmt.Errorf("%w: %d", tickmath.ErrTickOutOfRange, tick)
		}
		if i > 0 && tick <= ticks[i-1] {
			return nil, fmt.Errorf("%w: %d after %d", ErrUnsortedTicks, tick, ticks[i-1])
		}
		sum += allocations[i]
		if allocations[i] > precision || sum > precision {
			return nil, fmt.Errorf("%w: %d > %d", ErrAllocationTooLarge, sum, precision)
		}
	}

	tiers := make([]Tier, len(ticks))
	for i, tick := range ticks {
		upper := maxTick
		if i+1 < len(ticks) {
			upper = ticks[i+1]
		}
		tiers[i] = Tier{Lower: tick, Upper: upper, Allocation: allocations[i]}
	}
	return tiers, nil
}

// StartTicks is the inverse of Build's tick argument.
func StartTicks(tiers []Tier) []int32 {
	out := make([]int32, len(tiers))
	for i, t := range tiers {
		out[i] = t.Lower
	}
	return out
}

// ActiveTier returns the index of the first tier whose closed range holds
// tick, so a tick on a shared boundary picks the lower tier. Ticks below the
// ladder map to the first tier and ticks above it to the last.
func ActiveTier(tiers []Tier, tick int32) int {
	for i, t := range tiers {
		if t.Lower <= tick && tick <= t.Upper {
			return i
		}
	}
	if len(tiers) > 0 && tick < tiers[0].Lower {
		return 0
	}
	return len(tiers) - 1
}
