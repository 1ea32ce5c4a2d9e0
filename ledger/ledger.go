// Package ledger keeps fungible balances for every asset the engine touches.
// Transfers are atomic and totals are conserved. Writes go through the shared
// state journal so a failed call leaves no partial movement behind.
package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/krazyTry/iptoken-go/state"
)

var (
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrNegativeAmount      = errors.New("ledger: negative amount")
	ErrUnknownAsset        = errors.New("ledger: unknown asset")
	ErrAssetExists         = errors.New("ledger: asset already registered")
)

type holding struct {
	asset  common.Address
	holder common.Address
}

// Asset describes a registered fungible asset.
type Asset struct {
	Address common.Address
	Name    string
	Symbol  string
}

type Ledger struct {
	clock  state.Clock
	logger *zap.Logger

	assets   *state.Table[common.Address, Asset]
	balances *state.Table[holding, *big.Int]
	supply   *state.Table[common.Address, *big.Int]

	caps     *state.Table[common.Address, TransferCap]
	received *state.Table[holding, *big.Int]
}

type Option func(*Ledger)

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

func New(j *state.Journal, clock state.Clock, opts ...Option) *Ledger {
	l := &Ledger{
		clock:    clock,
		logger:   zap.NewNop(),
		assets:   state.NewTable[common.Address, Asset](j),
		balances: state.NewTable[holding, *big.Int](j),
		supply:   state.NewTable[common.Address, *big.Int](j),
		caps:     state.NewTable[common.Address, TransferCap](j),
		received: state.NewTable[holding, *big.Int](j),
	}
	for _, fn := range opts {
		fn(l)
	}
	return l
}

func (l *Ledger) RegisterAsset(asset Asset) error {
	if l.assets.Has(asset.Address) {
		return fmt.Errorf("%w: %s", ErrAssetExists, asset.Address)
	}
	l.assets.Put(asset.Address, asset)
	l.supply.Put(asset.Address, big.NewInt(0))
	return nil
}

func (l *Ledger) Asset(addr common.Address) (Asset, bool) {
	return l.assets.Get(addr)
}

func (l *Ledger) BalanceOf(asset, holder common.Address) *big.Int {
	if v, ok := l.balances.Get(holding{asset, holder}); ok {
		return new(big.Int).Set(v)
	}
	return big.NewInt(0)
}

func (l *Ledger) TotalSupply(asset common.Address) *big.Int {
	if v, ok := l.supply.Get(asset); ok {
		return new(big.Int).Set(v)
	}
	return big.NewInt(0)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (l *Ledger) credit(asset, holder common.Address, amount *big.Int) {
	key := holding{asset, holder}
	l.balances.Put(key, new(big.Int).Add(l.BalanceOf(asset, holder), amount))
}

func (l *Ledger) debit(asset, holder common.Address, amount *big.Int) error {
	bal := l.BalanceOf(asset, holder)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, holder, bal, asset, amount)
	}
	l.balances.Put(holding{asset, holder}, bal.Sub(bal, amount))
	return nil
}

// Mint creates amount of asset for to.
func (l *Ledger) Mint(asset, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if !l.assets.Has(asset) {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	if amount.Sign() == 0 {
		return nil
	}
	l.credit(asset, to, amount)
	l.supply.Put(asset, new(big.Int).Add(l.TotalSupply(asset), amount))
	return nil
}

// Burn destroys amount of asset held by from.
func (l *Ledger) Burn(asset, from common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	if err := l.debit(asset, from, amount); err != nil {
		return err
	}
	l.supply.Put(asset, new(big.Int).Sub(l.TotalSupply(asset), amount))
	l.logger.Debug("burn", zap.Stringer("asset", asset), zap.Stringer("from", from), zap.Stringer("amount", amount))
	return nil
}

// Transfer moves amount of asset from one holder to another.
func (l *Ledger) Transfer(asset, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if !l.assets.Has(asset) {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	if err := l.checkCap(asset, from, to, amount); err != nil {
		return err
	}
	if err := l.debit(asset, from, amount); err != nil {
		return err
	}
	l.credit(asset, to, amount)
	return nil
}
