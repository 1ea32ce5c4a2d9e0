// Package metadata packs a token's IP-asset identifier and its ladder start
// ticks into one 256-bit word.
//
// Layout, least significant bit first:
//
//	[0, 160)   IP-asset identifier
//	[160, 184) tick 1
//	[184, 208) tick 2
//	[208, 232) tick 3
//	[232, 256) tick 4
//
// Ticks are stored as 24-bit two's complement. A zero field ends the list, so
// an explicit tick of zero is stored as ZeroTickSentinel.
package metadata

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	MaxTicks = 4

	IdentifierBits = 160
	TickBits       = 24

	// ZeroTickSentinel stands for a literal tick of zero.
	ZeroTickSentinel = 0x777777

	minInt24 = -(1 << 23)
	maxInt24 = 1<<23 - 1
)

var (
	ErrTooManyTicks   = errors.New("metadata: more than 4 ticks")
	ErrTickOutOfRange = errors.New("metadata: tick does not fit in 24 bits")
)

var (
	tickMask       = uint256.NewInt(1<<TickBits - 1)
	identifierMask = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), IdentifierBits), uint256.NewInt(1))
	ticksMask      = new(uint256.Int).Not(identifierMask)
)

// Record is the decoded form of a packed word.
type Record struct {
	IPAsset common.Address
	Ticks   []int32
}

func tickOffset(slot int) uint {
	return uint(IdentifierBits + slot*TickBits)
}

// Encode packs id and ticks into one word.
func Encode(id common.Address, ticks []int32) (*uint256.Int, error) {
	if len(ticks) > MaxTicks {
		return nil, fmt.Errorf("%w: %d", ErrTooManyTicks, len(ticks))
	}

	word := new(uint256.Int).SetBytes20(id.Bytes())
	for i, tick := range ticks {
		if tick < minInt24 || tick > maxInt24 || tick == ZeroTickSentinel {
			return nil, fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
		}
		field := uint64(uint32(tick)) & (1<<TickBits - 1)
		if tick == 0 {
			field = ZeroTickSentinel
		}
		word.Or(word, new(uint256.Int).Lsh(uint256.NewInt(field), tickOffset(i)))
	}
	return word, nil
}

func (r Record) Encode() (*uint256.Int, error) {
	return Encode(r.IPAsset, r.Ticks)
}

// Decode unpacks a word. It never fails: fields are read until the first zero.
func Decode(word *uint256.Int) Record {
	if word == nil {
		return Record{}
	}
	id := new(uint256.Int).And(word, identifierMask).Bytes20()

	var ticks []int32
	for i := 0; i < MaxTicks; i++ {
		field := new(uint256.Int).Rsh(word, tickOffset(i))
		field.And(field, tickMask)
		v := field.Uint64()
		if v == 0 {
			break
		}
		ticks = append(ticks, fieldToTick(v))
	}
	return Record{IPAsset: common.Address(id), Ticks: ticks}
}

func fieldToTick(v uint64) int32 {
	if v == ZeroTickSentinel {
		return 0
	}
	// sign-extend from 24 bits
	if v&(1<<(TickBits-1)) != 0 {
		return int32(int64(v) - 1<<TickBits)
	}
	return int32(v)
}

// UpdateIdentifier replaces the identifier bits and keeps every tick field.
func UpdateIdentifier(word *uint256.Int, id common.Address) *uint256.Int {
	out := new(uint256.Int)
	if word != nil {
		out.And(word, ticksMask)
	}
	return out.Or(out, new(uint256.Int).SetBytes20(id.Bytes()))
}

// ReplaceTicks keeps the identifier of word and packs a new tick list above it.
func ReplaceTicks(word *uint256.Int, ticks []int32) (*uint256.Int, error) {
	return Encode(Decode(word).IPAsset, ticks)
}
