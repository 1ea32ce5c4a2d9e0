package engine

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/krazyTry/iptoken-go/events"
	"github.com/krazyTry/iptoken-go/vesting"
)

// Summary reports one harvest.
type Summary struct {
	events.Harvested

	// BidWall is set when the buyback moved the bid wall.
	BidWall *events.BidWallRepositioned
	// Schedule is set when this harvest started the vesting schedule.
	Schedule *vesting.Schedule
}

// HarvestResult is one item of a batch. Err is nil on success.
type HarvestResult struct {
	Token   common.Address
	Summary Summary
	Err     error
}

// Harvest withdraws the active tier of token and distributes the proceeds.
// Anyone may call it. A token with nothing to collect is a no-op.
func (e *Engine) Harvest(addr common.Address) (Summary, error) {
	var out Summary
	err := e.call(func(buf *events.Buffer) error {
		var err error
		out, err = e.harvest(addr, buf)
		return err
	})
	if err != nil {
		return Summary{}, err
	}
	return out, nil
}

// HarvestBatch harvests each token in its own call, so a failure rolls back
// only that token. The returned error combines every failure.
func (e *Engine) HarvestBatch(tokens []common.Address) ([]HarvestResult, error) {
	results := make([]HarvestResult, 0, len(tokens))
	var errs error
	for _, addr := range tokens {
		s, err := e.Harvest(addr)
		results = append(results, HarvestResult{Token: addr, Summary: s, Err: err})
		if err != nil {
			e.logger.Warn("batch harvest item failed", zap.Stringer("token", addr), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("harvest %s: %w", addr, err))
		}
	}
	return results, errs
}

func (e *Engine) harvest(addr common.Address, buf *events.Buffer) (Summary, error) {
	t, err := e.token(addr)
	if err != nil {
		return Summary{}, err
	}
	h, err := e.ladder.Harvest(t.side)
	if err != nil {
		return Summary{}, err
	}

	w := h.Withdrawn
	pairing := w.PairingAmount
	out := Summary{Harvested: events.Harvested{
		Token:            addr,
		Tier:             h.Tier,
		PairingCollected: pairing,
		TokenCollected:   w.TokenAmount,
		TokenBurned:      h.Burned,
		TokenPromoted:    big.NewInt(0),
		Buyback:          big.NewInt(0),
		OwnerAmount:      e.cfg.Share(pairing, e.cfg.IPOwnerShare),
	}}
	if t.bidWall {
		out.Buyback = e.cfg.Share(pairing, e.cfg.BuybackShare)
	}
	out.TreasuryAmount = new(big.Int).Sub(pairing, out.OwnerAmount)
	out.TreasuryAmount.Sub(out.TreasuryAmount, out.Buyback)

	if w.TokenAmount.Sign() > 0 || pairing.Sign() > 0 {
		amount0, amount1 := w.TokenAmount, pairing
		if !t.side.TokenIsToken0() {
			amount0, amount1 = amount1, amount0
		}
		buf.Add(events.PositionCollected{Pool: w.Pool, Lower: w.Lower, Upper: w.Upper, Amount0: amount0, Amount1: amount1})
	}
	if h.Promoted != nil && h.Promoted.Liquidity.Sign() > 0 {
		out.TokenPromoted = h.Promoted.TokenAmount
		buf.Add(events.PositionOpened{
			Token:       addr,
			Pool:        h.Promoted.Pool,
			Lower:       h.Promoted.Lower,
			Upper:       h.Promoted.Upper,
			Liquidity:   h.Promoted.Liquidity,
			TokenAmount: h.Promoted.TokenAmount,
		})
	}

	if err := e.vault.DepositPending(e.address, addr, out.OwnerAmount); err != nil {
		return Summary{}, fmt.Errorf("owner share: %w", err)
	}
	if out.Buyback.Sign() > 0 {
		if err := e.wall.Deposit(e.address, addr, out.Buyback); err != nil {
			return Summary{}, fmt.Errorf("buyback: %w", err)
		}
		rep, err := e.wall.Reposition(addr)
		if err != nil {
			return Summary{}, err
		}
		out.BidWall = &rep
		buf.Add(rep)
	}
	if err := e.ledger.Transfer(e.cfg.PairingAsset, e.address, e.cfg.Treasury, out.TreasuryAmount); err != nil {
		return Summary{}, fmt.Errorf("treasury share: %w", err)
	}

	if s, ok, err := e.startVesting(addr); err != nil {
		return Summary{}, err
	} else if ok {
		out.Schedule = &s
		buf.Add(events.ScheduleCreated{Token: addr, Total: s.Total(), Start: s.Start, End: s.End})
	}

	buf.Add(out.Harvested)
	e.logger.Info("harvested",
		zap.Stringer("token", addr),
		zap.Int("tier", h.Tier),
		zap.Int32("tick", t.side.TokenTick()),
		zap.Stringer("pairing", pairing),
		zap.Stringer("collected", w.TokenAmount),
		zap.Stringer("burned", h.Burned),
		zap.Stringer("buyback", out.Buyback),
		zap.Stringer("owner", out.OwnerAmount),
	)
	return out, nil
}

// startVesting creates token's schedule once its IP asset has a recipient and
// the vault holds some of it. It is a no-op otherwise.
func (e *Engine) startVesting(addr common.Address) (vesting.Schedule, bool, error) {
	if e.vault.HasSchedule(addr) {
		return vesting.Schedule{}, false, nil
	}
	if _, ok := e.RecipientOf(addr); !ok {
		return vesting.Schedule{}, false, nil
	}
	if e.ledger.BalanceOf(addr, e.vault.Address()).Sign() == 0 {
		return vesting.Schedule{}, false, nil
	}
	s, err := e.vault.CreateSchedule(e.address, addr)
	if err != nil {
		return vesting.Schedule{}, false, err
	}
	return s, true, nil
}
