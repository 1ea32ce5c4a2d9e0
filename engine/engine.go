// Package engine deploys IP-linked tokens, seeds their liquidity ladders and
// harvests their pools. Every exported mutating method is one atomic call: it
// either completes or leaves no trace, and calls are serialized.
package engine

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/krazyTry/iptoken-go/amm"
	"github.com/krazyTry/iptoken-go/bidwall"
	"github.com/krazyTry/iptoken-go/config"
	"github.com/krazyTry/iptoken-go/events"
	"github.com/krazyTry/iptoken-go/ladder"
	"github.com/krazyTry/iptoken-go/ledger"
	"github.com/krazyTry/iptoken-go/liquidity"
	"github.com/krazyTry/iptoken-go/metadata"
	"github.com/krazyTry/iptoken-go/registry"
	"github.com/krazyTry/iptoken-go/state"
	"github.com/krazyTry/iptoken-go/vesting"
)

var (
	ErrUnknownToken  = errors.New("engine: unknown token")
	ErrInvalidSupply = errors.New("engine: supply must be positive")
	ErrZeroAddress   = errors.New("engine: zero address")
)

// Nonces 0, 1 and 2 of the engine address deploy its vault, bid wall and
// pool factory. Tokens take the nonces after that.
const firstTokenNonce = 3

type token struct {
	side    *liquidity.Side
	bidWall bool
}

type Engine struct {
	cfg     config.Config
	address common.Address

	j      *state.Journal
	clock  state.Clock
	logger *zap.Logger
	sink   events.Sink

	ledger   *ledger.Ledger
	registry *registry.Registry
	factory  *amm.Factory
	ladder   *ladder.Manager
	wall     *bidwall.Wall
	vault    *vesting.Vault

	nonces  *state.Table[common.Address, uint64]
	records *state.Table[common.Address, *uint256.Int]
	tokens  *state.Table[common.Address, token]
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithClock(clock state.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithSink(sink events.Sink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// New deploys an engine at address. The pairing asset is registered on the
// engine's ledger.
func New(cfg config.Config, address common.Address, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if address == (common.Address{}) {
		return nil, ErrZeroAddress
	}

	j := state.NewJournal()
	e := &Engine{
		cfg:     cfg,
		address: address,
		j:       j,
		clock:   state.SystemClock{},
		logger:  zap.NewNop(),
		sink:    events.Discard,
		nonces:  state.NewTable[common.Address, uint64](j),
		records: state.NewTable[common.Address, *uint256.Int](j),
		tokens:  state.NewTable[common.Address, token](j),
	}
	for _, fn := range opts {
		fn(e)
	}

	vaultAddr := crypto.CreateAddress(address, 0)
	wallAddr := crypto.CreateAddress(address, 1)
	factoryAddr := crypto.CreateAddress(address, 2)

	e.ledger = ledger.New(j, e.clock, ledger.WithLogger(e.logger.Named("ledger")))
	if err := e.ledger.RegisterAsset(ledger.Asset{Address: cfg.PairingAsset, Name: "pairing"}); err != nil {
		return nil, err
	}
	e.registry = registry.New(j, cfg.Admin, registry.WithLogger(e.logger.Named("registry")))
	e.factory = amm.NewFactory(factoryAddr, j, e.ledger, amm.WithLogger(e.logger.Named("amm")))
	e.ladder = ladder.New(j, address, vaultAddr, cfg.Precision, cfg.BurnShare, e.ledger, ladder.WithLogger(e.logger.Named("ladder")))
	e.wall = bidwall.New(j, wallAddr, cfg.BidWallCap, e.ledger, bidwall.WithLogger(e.logger.Named("bidwall")))
	e.vault = vesting.New(j, vaultAddr, address, cfg.PairingAsset, cfg.VestingDuration, e.ledger, e.clock, e.RecipientOf,
		vesting.WithLogger(e.logger.Named("vesting")),
		vesting.WithSink(e.sink),
	)
	e.nonces.Put(address, firstTokenNonce)
	j.Commit()

	e.logger.Info("engine deployed",
		zap.Stringer("address", address),
		zap.Stringer("vault", vaultAddr),
		zap.Stringer("bidWall", wallAddr),
		zap.Stringer("ipOwnerShare", cfg.Percent(cfg.IPOwnerShare)),
		zap.Stringer("buybackShare", cfg.Percent(cfg.BuybackShare)),
		zap.Stringer("burnShare", cfg.Percent(cfg.BurnShare)),
	)
	return e, nil
}

// call runs fn as one serialized atomic call and emits its events if it commits.
func (e *Engine) call(fn func(buf *events.Buffer) error) error {
	var buf events.Buffer
	if err := e.j.Call(func() error { return fn(&buf) }); err != nil {
		buf.Drop()
		return err
	}
	buf.Flush(e.sink)
	return nil
}

func (e *Engine) Address() common.Address      { return e.address }
func (e *Engine) Config() config.Config        { return e.cfg }
func (e *Engine) Ledger() *ledger.Ledger       { return e.ledger }
func (e *Engine) Registry() *registry.Registry { return e.registry }
func (e *Engine) Vault() *vesting.Vault        { return e.vault }
func (e *Engine) BidWall() *bidwall.Wall       { return e.wall }
func (e *Engine) Factory() *amm.Factory        { return e.factory }

// NextTokenAddress is where the next CreateToken will deploy.
func (e *Engine) NextTokenAddress() common.Address {
	return crypto.CreateAddress(e.address, e.nonces.Value(e.address))
}

func (e *Engine) token(addr common.Address) (token, error) {
	t, ok := e.tokens.Get(addr)
	if !ok {
		return token{}, fmt.Errorf("%w: %s", ErrUnknownToken, addr)
	}
	return t, nil
}

// Record decodes token's metadata word.
func (e *Engine) Record(addr common.Address) (metadata.Record, bool) {
	w, ok := e.records.Get(addr)
	if !ok {
		return metadata.Record{}, false
	}
	return metadata.Decode(w), true
}

func (e *Engine) Tiers(addr common.Address) []ladder.Tier {
	return e.ladder.Tiers(addr)
}

func (e *Engine) Pool(addr common.Address) (liquidity.Pool, bool) {
	t, ok := e.tokens.Get(addr)
	if !ok {
		return nil, false
	}
	return t.side.Pool(), true
}

// RecipientOf resolves token's IP asset to its bound recipient.
func (e *Engine) RecipientOf(addr common.Address) (common.Address, bool) {
	r, ok := e.Record(addr)
	if !ok || r.IPAsset == (common.Address{}) {
		return common.Address{}, false
	}
	return e.registry.RecipientOf(r.IPAsset)
}

// Claim pays token's recipient from the vault.
func (e *Engine) Claim(addr common.Address) (events.Claimed, error) {
	var out events.Claimed
	err := e.call(func(*events.Buffer) error {
		var err error
		out, err = e.vault.Claim(addr)
		return err
	})
	return out, err
}
