package engine

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/krazyTry/iptoken-go/amm"
	"github.com/krazyTry/iptoken-go/events"
	"github.com/krazyTry/iptoken-go/ladder"
	"github.com/krazyTry/iptoken-go/ledger"
	"github.com/krazyTry/iptoken-go/liquidity"
	"github.com/krazyTry/iptoken-go/metadata"
	"github.com/krazyTry/iptoken-go/tickmath"
)

// TokenParams describes a token launch. StartTicks and Allocations define
// the ladder in token ticks; the pool opens at StartTicks[0]. IPAsset may be
// left zero and linked later.
type TokenParams struct {
	Name        string
	Symbol      string
	Creator     common.Address
	Supply      *big.Int
	StartTicks  []int32
	Allocations []uint64
	IPAsset     common.Address
}

// CreateToken deploys a token, mints its supply to the engine, opens its pool
// and ladder, and sends the unallocated supply to the vault.
func (e *Engine) CreateToken(caller common.Address, p TokenParams) (common.Address, error) {
	var addr common.Address
	err := e.call(func(buf *events.Buffer) error {
		var err error
		addr, err = e.createToken(caller, p, buf)
		return err
	})
	if err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

func (e *Engine) createToken(caller common.Address, p TokenParams, buf *events.Buffer) (common.Address, error) {
	if err := e.registry.RequireOperator(caller); err != nil {
		return common.Address{}, err
	}
	if p.Supply == nil || p.Supply.Sign() <= 0 {
		return common.Address{}, ErrInvalidSupply
	}
	if p.Creator == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: creator", ErrZeroAddress)
	}
	if _, err := ladder.Build(p.StartTicks, p.Allocations, e.cfg.TickSpacing, e.cfg.Precision); err != nil {
		return common.Address{}, err
	}

	nonce := e.nonces.Value(e.address)
	addr := e.NextTokenAddress()
	e.nonces.Put(e.address, nonce+1)

	if err := e.ledger.RegisterAsset(ledger.Asset{Address: addr, Name: p.Name, Symbol: p.Symbol}); err != nil {
		return common.Address{}, err
	}
	if err := e.ledger.Mint(addr, e.address, p.Supply); err != nil {
		return common.Address{}, err
	}

	start := p.StartTicks[0]
	if token0, _ := amm.SortTokens(addr, e.cfg.PairingAsset); token0 != addr {
		start = -start
	}
	sqrtPrice, err := tickmath.SqrtRatioAtTick(start)
	if err != nil {
		return common.Address{}, err
	}
	pool, err := e.factory.CreatePool(addr, e.cfg.PairingAsset, e.cfg.PoolFee, e.cfg.TickSpacing, sqrtPrice)
	if err != nil {
		return common.Address{}, err
	}
	side, err := liquidity.NewSide(pool, e.ledger, addr)
	if err != nil {
		return common.Address{}, err
	}

	created, err := e.ladder.Create(side, p.Supply, p.StartTicks, p.Allocations)
	if err != nil {
		return common.Address{}, err
	}

	// An IP asset linked before creation keeps its identifier.
	word, ok := e.records.Get(addr)
	if !ok {
		word = new(uint256.Int)
	}
	if word, err = metadata.ReplaceTicks(word, p.StartTicks); err != nil {
		return common.Address{}, err
	}
	if p.IPAsset != (common.Address{}) {
		word = metadata.UpdateIdentifier(word, p.IPAsset)
	}
	e.records.Put(addr, word)

	bidWall := e.cfg.BidWallCap.Sign() > 0
	if bidWall {
		if err := e.wall.Register(side); err != nil {
			return common.Address{}, err
		}
	}

	if e.cfg.AntiSnipeWindow > 0 && e.cfg.AntiSnipeCap.Sign() > 0 {
		err := e.ledger.SetTransferCap(addr, ledger.TransferCap{
			Pool:   pool.Address(),
			Start:  e.clock.Now(),
			Window: uint64(e.cfg.AntiSnipeWindow.Seconds()),
			Cap:    e.cfg.AntiSnipeCap,
			Exempt: []common.Address{p.Creator, e.address, e.vault.Address(), e.wall.Address()},
		})
		if err != nil {
			return common.Address{}, err
		}
	}

	e.tokens.Put(addr, token{side: side, bidWall: bidWall})

	buf.Add(events.TokenCreated{Token: addr, Pool: pool.Address(), Creator: p.Creator, Supply: new(big.Int).Set(p.Supply)})
	for _, opened := range created.Positions {
		if opened.Liquidity.Sign() == 0 {
			continue
		}
		buf.Add(events.PositionOpened{
			Token:       addr,
			Pool:        opened.Pool,
			Lower:       opened.Lower,
			Upper:       opened.Upper,
			Liquidity:   opened.Liquidity,
			TokenAmount: opened.TokenAmount,
		})
	}
	if r := metadata.Decode(word); r.IPAsset != (common.Address{}) {
		buf.Add(events.IPAssetLinked{Token: addr, IPAsset: r.IPAsset})
	}

	launch, _ := tickmath.PriceAtTick(p.StartTicks[0], 18)
	e.logger.Info("token created",
		zap.Stringer("token", addr),
		zap.String("symbol", p.Symbol),
		zap.Stringer("pool", pool.Address()),
		zap.Stringer("supply", p.Supply),
		zap.Stringer("launchPrice", launch),
		zap.Int("tiers", len(created.Tiers)),
		zap.Stringer("toVault", created.Remainder),
		zap.Bool("bidWall", bidWall),
	)
	return addr, nil
}

// LinkIPAsset points token at ipAsset without touching its ticks. A token
// address may be linked before it is created, see NextTokenAddress.
func (e *Engine) LinkIPAsset(caller, addr, ipAsset common.Address) error {
	return e.call(func(buf *events.Buffer) error {
		if err := e.registry.RequireOperator(caller); err != nil {
			return err
		}
		if addr == (common.Address{}) || ipAsset == (common.Address{}) {
			return ErrZeroAddress
		}
		word, ok := e.records.Get(addr)
		if !ok {
			word = new(uint256.Int)
		}
		e.records.Put(addr, metadata.UpdateIdentifier(word, ipAsset))
		buf.Add(events.IPAssetLinked{Token: addr, IPAsset: ipAsset})
		e.logger.Info("ip asset linked", zap.Stringer("token", addr), zap.Stringer("ipAsset", ipAsset))
		return nil
	})
}
