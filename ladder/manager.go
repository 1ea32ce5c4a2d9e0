package ladder

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/krazyTry/iptoken-go/liquidity"
	"github.com/krazyTry/iptoken-go/state"
)

type Ledger interface {
	Transfer(asset, from, to common.Address, amount *big.Int) error
	Burn(asset, from common.Address, amount *big.Int) error
}

// Manager owns every tier position at its own address, which also holds the
// token being laddered.
type Manager struct {
	address   common.Address
	vault     common.Address
	precision uint64
	burnShare uint64

	ledger Ledger
	logger *zap.Logger

	tiers *state.Table[common.Address, []Tier]
}

type Option func(*Manager)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func New(j *state.Journal, address, vault common.Address, precision, burnShare uint64, ledger Ledger, opts ...Option) *Manager {
	m := &Manager{
		address:   address,
		vault:     vault,
		precision: precision,
		burnShare: burnShare,
		ledger:    ledger,
		logger:    zap.NewNop(),
		tiers:     state.NewTable[common.Address, []Tier](j),
	}
	for _, fn := range opts {
		fn(m)
	}
	return m
}

func (m *Manager) Tiers(token common.Address) []Tier {
	return append([]Tier(nil), m.tiers.Value(token)...)
}

// Created reports a new ladder.
type Created struct {
	Tiers     []Tier
	Positions []liquidity.Opened
	Remainder *big.Int
}

// Create opens one token-only position per tier, sized by its allocation of
// supply, and sends whatever was not deployed to the vault.
func (m *Manager) Create(side *liquidity.Side, supply *big.Int, ticks []int32, allocations []uint64) (Created, error) {
	token := side.Token()
	if m.tiers.Has(token) {
		return Created{}, fmt.Errorf("%w: %s", ErrTiersExist, token)
	}
	tiers, err := Build(ticks, allocations, side.Spacing(), m.precision)
	if err != nil {
		return Created{}, err
	}

	out := Created{Tiers: tiers, Positions: make([]liquidity.Opened, 0, len(tiers))}
	spent := big.NewInt(0)
	for _, t := range tiers {
		amount := new(big.Int).Mul(supply, new(big.Int).SetUint64(t.Allocation))
		amount.Quo(amount, new(big.Int).SetUint64(m.precision))

		opened, err := side.OpenToken(m.address, m.address, t.Lower, t.Upper, amount)
		if err != nil {
			return Created{}, fmt.Errorf("open tier [%d, %d): %w", t.Lower, t.Upper, err)
		}
		spent.Add(spent, opened.TokenAmount)
		out.Positions = append(out.Positions, opened)

		m.logger.Info("tier opened",
			zap.Stringer("token", token),
			zap.Int32("lower", t.Lower),
			zap.Int32("upper", t.Upper),
			zap.Stringer("liquidity", opened.Liquidity),
			zap.Stringer("amount", opened.TokenAmount),
		)
	}

	out.Remainder = new(big.Int).Sub(supply, spent)
	if err := m.ledger.Transfer(token, m.address, m.vault, out.Remainder); err != nil {
		return Created{}, fmt.Errorf("remainder to vault: %w", err)
	}
	m.tiers.Put(token, tiers)
	return out, nil
}

// Harvest reports one pass of the harvest state machine.
type Harvest struct {
	Tier      int
	Withdrawn liquidity.Withdrawn
	Promoted  *liquidity.Opened
	Burned    *big.Int
	Retained  *big.Int
}

// Harvest fully withdraws the active tier once it has accrued fees. Token
// proceeds of the first tier roll forward into [tier0.upper, tier1.upper)
// when there is a second tier. Otherwise, or when the roll forward would open
// nothing, the burn share of them is destroyed and the rest is retained.
// Pairing proceeds stay at the manager's address for the caller to split.
func (m *Manager) Harvest(side *liquidity.Side) (Harvest, error) {
	token := side.Token()
	tiers := m.tiers.Value(token)
	if len(tiers) == 0 {
		return Harvest{}, fmt.Errorf("%w: %s", ErrNoTiers, token)
	}

	idx := ActiveTier(tiers, side.TokenTick())
	active := tiers[idx]
	out := Harvest{Tier: idx, Burned: big.NewInt(0), Retained: big.NewInt(0)}

	owedToken, owedPairing := side.Owed(m.address, active.Lower, active.Upper)
	if owedToken.Sign() == 0 && owedPairing.Sign() == 0 {
		lower, upper := side.PoolRange(active.Lower, active.Upper)
		out.Withdrawn = liquidity.Withdrawn{
			Pool:          side.PoolAddress(),
			Lower:         lower,
			Upper:         upper,
			Liquidity:     big.NewInt(0),
			TokenAmount:   big.NewInt(0),
			PairingAmount: big.NewInt(0),
		}
		return out, nil
	}

	w, err := side.WithdrawAll(m.address, active.Lower, active.Upper, m.address)
	if err != nil {
		return Harvest{}, fmt.Errorf("withdraw tier %d: %w", idx, err)
	}
	out.Withdrawn = w
	if w.TokenAmount.Sign() == 0 {
		return out, nil
	}

	if idx == 0 && len(tiers) > 1 {
		opened, err := side.OpenToken(m.address, m.address, tiers[0].Upper, tiers[1].Upper, w.TokenAmount)
		if err != nil {
			return Harvest{}, fmt.Errorf("promote tier 0: %w", err)
		}
		if opened.Liquidity.Sign() > 0 {
			out.Promoted = &opened
			out.Retained.Sub(w.TokenAmount, opened.TokenAmount)
			return out, nil
		}
		m.logger.Warn("promotion opened nothing, burning instead",
			zap.Stringer("token", token),
			zap.Int32("tick", side.TokenTick()),
		)
	}

	out.Burned.Mul(w.TokenAmount, new(big.Int).SetUint64(m.burnShare))
	out.Burned.Quo(out.Burned, new(big.Int).SetUint64(m.precision))
	if err := m.ledger.Burn(token, m.address, out.Burned); err != nil {
		return Harvest{}, fmt.Errorf("burn proceeds: %w", err)
	}
	out.Retained.Sub(w.TokenAmount, out.Burned)
	return out, nil
}
