// Package bidwall keeps one pairing-only position per token, one tick spacing
// wide and one tick spacing below the market, and moves it with the price.
package bidwall

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/krazyTry/iptoken-go/events"
	"github.com/krazyTry/iptoken-go/liquidity"
	"github.com/krazyTry/iptoken-go/state"
	"github.com/krazyTry/iptoken-go/tickmath"
)

var (
	ErrUnknownToken  = errors.New("bidwall: token has no bid wall")
	ErrRegistered    = errors.New("bidwall: token already has a bid wall")
	ErrNegativeFunds = errors.New("bidwall: negative amount")
)

type Ledger interface {
	Transfer(asset, from, to common.Address, amount *big.Int) error
	Burn(asset, from common.Address, amount *big.Int) error
}

// Position is a token's bid wall in token ticks. Upper is always
// Lower plus one tick spacing. Active is false until the first funded
// reposition and after a skipped one.
type Position struct {
	Lower     int32
	Active    bool
	Liquidity *big.Int
}

type wall struct {
	side     *liquidity.Side
	position Position
	reserve  *big.Int
}

// Wall holds every token's reserve of the pairing asset at its own address
// and owns the bid wall positions.
type Wall struct {
	address common.Address
	cap     *big.Int
	ledger  Ledger
	logger  *zap.Logger

	walls *state.Table[common.Address, wall]
}

type Option func(*Wall)

func WithLogger(logger *zap.Logger) Option {
	return func(w *Wall) {
		w.logger = logger
	}
}

func New(j *state.Journal, address common.Address, cap *big.Int, ledger Ledger, opts ...Option) *Wall {
	w := &Wall{
		address: address,
		cap:     new(big.Int).Set(cap),
		ledger:  ledger,
		logger:  zap.NewNop(),
		walls:   state.NewTable[common.Address, wall](j),
	}
	for _, fn := range opts {
		fn(w)
	}
	return w
}

func (w *Wall) Address() common.Address {
	return w.address
}

func (w *Wall) Cap() *big.Int {
	return new(big.Int).Set(w.cap)
}

// Register creates an empty bid wall for side's token.
func (w *Wall) Register(side *liquidity.Side) error {
	token := side.Token()
	if w.walls.Has(token) {
		return fmt.Errorf("%w: %s", ErrRegistered, token)
	}
	w.walls.Put(token, wall{side: side, position: Position{Liquidity: big.NewInt(0)}, reserve: big.NewInt(0)})
	return nil
}

func (w *Wall) Has(token common.Address) bool {
	return w.walls.Has(token)
}

func (w *Wall) get(token common.Address) (wall, error) {
	s, ok := w.walls.Get(token)
	if !ok {
		return wall{}, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	return s, nil
}

// Deposit moves amount of the pairing asset from from into token's reserve.
func (w *Wall) Deposit(from, token common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeFunds
	}
	s, err := w.get(token)
	if err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	if err := w.ledger.Transfer(s.side.Pairing(), from, w.address, amount); err != nil {
		return err
	}
	s.reserve = new(big.Int).Add(s.reserve, amount)
	w.walls.Put(token, s)
	return nil
}

// Reserve is the idle pairing asset held for token.
func (w *Wall) Reserve(token common.Address) *big.Int {
	s, ok := w.walls.Get(token)
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(s.reserve)
}

func (w *Wall) Position(token common.Address) (Position, bool) {
	s, ok := w.walls.Get(token)
	if !ok {
		return Position{}, false
	}
	p := s.position
	p.Liquidity = new(big.Int).Set(p.Liquidity)
	return p, true
}

// Target returns the token range one spacing wide directly below the market
// tick, or false when it falls outside the usable ticks. The upper bound is
// the normalized tick rounded down, so the range never holds the tick.
func Target(tokenTick, spacing int32) (int32, int32, bool) {
	upper := tickmath.Normalize(tokenTick, spacing)
	if upper > tokenTick {
		upper -= spacing
	}
	lower := upper - spacing
	if lower < tickmath.MinUsableTick(spacing) || upper > tickmath.MaxUsableTick(spacing) {
		return 0, 0, false
	}
	return lower, upper, true
}

// Reposition withdraws token's bid wall, burns any token it took in, and
// reopens it below the current price funded with up to the cap. When the new
// range would leave the usable ticks the funds stay idle and Lower is kept.
func (w *Wall) Reposition(token common.Address) (events.BidWallRepositioned, error) {
	s, err := w.get(token)
	if err != nil {
		return events.BidWallRepositioned{}, err
	}
	side := s.side
	spacing := side.Spacing()
	out := events.BidWallRepositioned{
		Token:            token,
		CollectedToken:   big.NewInt(0),
		CollectedPairing: big.NewInt(0),
		Burned:           big.NewInt(0),
		Funded:           big.NewInt(0),
		Liquidity:        big.NewInt(0),
	}

	reserve := new(big.Int).Set(s.reserve)
	if s.position.Active {
		wd, err := side.WithdrawAll(w.address, s.position.Lower, s.position.Lower+spacing, w.address)
		if err != nil {
			return out, fmt.Errorf("withdraw bid wall: %w", err)
		}
		out.CollectedToken, out.CollectedPairing = wd.TokenAmount, wd.PairingAmount
		reserve.Add(reserve, wd.PairingAmount)
		if err := w.ledger.Burn(token, w.address, wd.TokenAmount); err != nil {
			return out, fmt.Errorf("burn bid wall proceeds: %w", err)
		}
		out.Burned = wd.TokenAmount
	}

	lower, upper, ok := Target(side.TokenTick(), spacing)
	if !ok {
		out.Lower, out.Upper = side.PoolRange(s.position.Lower, s.position.Lower+spacing)
		out.Skipped = true
		w.walls.Put(token, wall{
			side:     side,
			position: Position{Lower: s.position.Lower, Liquidity: big.NewInt(0)},
			reserve:  reserve,
		})
		w.logger.Info("bid wall reposition skipped",
			zap.Stringer("token", token),
			zap.Int32("tick", side.TokenTick()),
			zap.Stringer("reserve", reserve),
		)
		return out, nil
	}

	funding := reserve
	if funding.Cmp(w.cap) > 0 {
		funding = new(big.Int).Set(w.cap)
	}
	opened, err := side.OpenPairing(w.address, w.address, lower, upper, funding)
	if err != nil {
		return out, fmt.Errorf("open bid wall: %w", err)
	}
	reserve = new(big.Int).Sub(reserve, opened.PairingAmount)

	out.Lower, out.Upper = opened.Lower, opened.Upper
	out.Funded = opened.PairingAmount
	out.Liquidity = opened.Liquidity
	w.walls.Put(token, wall{
		side:     side,
		position: Position{Lower: lower, Active: opened.Liquidity.Sign() > 0, Liquidity: opened.Liquidity},
		reserve:  reserve,
	})
	w.logger.Info("bid wall repositioned",
		zap.Stringer("token", token),
		zap.Int32("lower", lower),
		zap.Int32("upper", upper),
		zap.Stringer("funded", out.Funded),
		zap.Stringer("burned", out.Burned),
	)
	return out, nil
}
