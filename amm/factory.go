package amm

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/krazyTry/iptoken-go/state"
	"github.com/krazyTry/iptoken-go/tickmath"
)

var (
	ErrIdenticalTokens = errors.New("amm: identical tokens")
	ErrZeroAddress     = errors.New("amm: zero token address")
	ErrPoolExists      = errors.New("amm: pool already exists")
	ErrInvalidFee      = errors.New("amm: invalid fee")
)

// FeeDenominator is the unit of Pool fees (pips).
const FeeDenominator = 1_000_000

// Ledger is the subset of the balance ledger a pool needs.
type Ledger interface {
	Transfer(asset, from, to common.Address, amount *big.Int) error
	BalanceOf(asset, holder common.Address) *big.Int
}

type pairKey struct {
	token0, token1 common.Address
	fee            uint32
}

// Factory deploys pools at addresses derived from its own address and nonce.
type Factory struct {
	mu      sync.Mutex
	address common.Address
	nonce   uint64

	j      *state.Journal
	ledger Ledger
	logger *zap.Logger

	pools  *state.Table[common.Address, *Pool]
	byPair *state.Table[pairKey, common.Address]
}

type Option func(*Factory)

func WithLogger(logger *zap.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

func NewFactory(address common.Address, j *state.Journal, ledger Ledger, opts ...Option) *Factory {
	f := &Factory{
		address: address,
		j:       j,
		ledger:  ledger,
		logger:  zap.NewNop(),
		pools:   state.NewTable[common.Address, *Pool](j),
		byPair:  state.NewTable[pairKey, common.Address](j),
	}
	for _, fn := range opts {
		fn(f)
	}
	return f
}

func (f *Factory) Address() common.Address {
	return f.address
}

// SortTokens orders two assets the way pools do: numerically smaller is token0.
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address) {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}

// CreatePool deploys and initializes a pool at sqrtPriceX96.
func (f *Factory) CreatePool(tokenA, tokenB common.Address, fee uint32, spacing int32, sqrtPriceX96 *big.Int) (*Pool, error) {
	if tokenA == tokenB {
		return nil, ErrIdenticalTokens
	}
	if tokenA == (common.Address{}) || tokenB == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if fee >= FeeDenominator {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFee, fee)
	}
	if err := tickmath.ValidateSpacing(spacing); err != nil {
		return nil, err
	}
	tick, err := tickmath.TickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return nil, err
	}

	token0, token1 := SortTokens(tokenA, tokenB)
	key := pairKey{token0, token1, fee}
	if existing, ok := f.byPair.Get(key); ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolExists, existing)
	}

	f.mu.Lock()
	addr := crypto.CreateAddress(f.address, f.nonce)
	f.nonce++
	f.mu.Unlock()

	p := &Pool{
		address:   addr,
		token0:    token0,
		token1:    token1,
		fee:       fee,
		spacing:   spacing,
		j:         f.j,
		ledger:    f.ledger,
		logger:    f.logger.With(zap.Stringer("pool", addr)),
		slot:      state.NewTable[common.Address, slot0](f.j),
		positions: state.NewTable[PositionKey, Position](f.j),
	}
	p.slot.Put(addr, slot0{SqrtPriceX96: new(big.Int).Set(sqrtPriceX96), Tick: tick})

	f.pools.Put(addr, p)
	f.byPair.Put(key, addr)
	f.logger.Info("pool created",
		zap.Stringer("pool", addr),
		zap.Stringer("token0", token0),
		zap.Stringer("token1", token1),
		zap.Uint32("fee", fee),
		zap.Int32("tick", tick),
	)
	return p, nil
}

func (f *Factory) Pool(addr common.Address) (*Pool, bool) {
	return f.pools.Get(addr)
}

func (f *Factory) PoolFor(tokenA, tokenB common.Address, fee uint32) (*Pool, bool) {
	token0, token1 := SortTokens(tokenA, tokenB)
	addr, ok := f.byPair.Get(pairKey{token0, token1, fee})
	if !ok {
		return nil, false
	}
	return f.Pool(addr)
}
