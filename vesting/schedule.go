// Package vesting holds each token's unvested allocation and the pairing
// asset owed to its IP asset's recipient, and releases the allocation
// linearly over a fixed duration with no cliff.
package vesting

import "math/big"

// Schedule is the linear unlock of one token's vault allocation. Once set
// its start, end and total never change.
type Schedule struct {
	Set       bool
	Start     uint64
	End       uint64
	Remaining *big.Int
	Released  *big.Int
}

func (s Schedule) remaining() *big.Int {
	if s.Remaining == nil {
		return big.NewInt(0)
	}
	return s.Remaining
}

func (s Schedule) released() *big.Int {
	if s.Released == nil {
		return big.NewInt(0)
	}
	return s.Released
}

// Total is the allocation the schedule was created with.
func (s Schedule) Total() *big.Int {
	return new(big.Int).Add(s.remaining(), s.released())
}

// Vested is the part of the total unlocked at t.
func Vested(s Schedule, t uint64) *big.Int {
	if !s.Set || t < s.Start {
		return big.NewInt(0)
	}
	total := s.Total()
	if t >= s.End || s.End == s.Start {
		return total
	}
	out := new(big.Int).Mul(total, new(big.Int).SetUint64(t-s.Start))
	return out.Quo(out, new(big.Int).SetUint64(s.End-s.Start))
}

// Releasable is what a claim at t would move from remaining to released.
func Releasable(s Schedule, t uint64) *big.Int {
	out := new(big.Int).Sub(Vested(s, t), s.released())
	if out.Sign() < 0 {
		return big.NewInt(0)
	}
	return out
}
