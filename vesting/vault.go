package vesting

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/krazyTry/iptoken-go/events"
	"github.com/krazyTry/iptoken-go/state"
)

var (
	ErrNotOrchestrator  = errors.New("vesting: caller is not the orchestrator")
	ErrRecipientUnbound = errors.New("vesting: token has no bound recipient")
	ErrZeroAllocation   = errors.New("vesting: nothing to vest")
	ErrScheduleExists   = errors.New("vesting: schedule already exists")
	ErrNegativeAmount   = errors.New("vesting: negative amount")
)

type Ledger interface {
	Transfer(asset, from, to common.Address, amount *big.Int) error
	BalanceOf(asset, holder common.Address) *big.Int
}

// Resolver returns the account entitled to a token's allocation.
type Resolver func(token common.Address) (common.Address, bool)

// Vault holds unvested token allocations at its own address, together with
// the pairing asset accumulated for each token.
//
// Methods run atomically on the shared journal but do not serialize against
// other callers; the engine does that.
type Vault struct {
	j            *state.Journal
	address      common.Address
	orchestrator common.Address
	pairing      common.Address
	duration     time.Duration

	ledger  Ledger
	clock   state.Clock
	resolve Resolver
	logger  *zap.Logger
	sink    events.Sink

	schedules *state.Table[common.Address, Schedule]
	pending   *state.Table[common.Address, *big.Int]
}

type Option func(*Vault)

func WithLogger(logger *zap.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
	}
}

func WithSink(sink events.Sink) Option {
	return func(v *Vault) {
		v.sink = sink
	}
}

func New(
	j *state.Journal,
	address common.Address,
	orchestrator common.Address,
	pairing common.Address,
	duration time.Duration,
	ledger Ledger,
	clock state.Clock,
	resolve Resolver,
	opts ...Option,
) *Vault {
	v := &Vault{
		j:            j,
		address:      address,
		orchestrator: orchestrator,
		pairing:      pairing,
		duration:     duration,
		ledger:       ledger,
		clock:        clock,
		resolve:      resolve,
		logger:       zap.NewNop(),
		sink:         events.Discard,
		schedules:    state.NewTable[common.Address, Schedule](j),
		pending:      state.NewTable[common.Address, *big.Int](j),
	}
	for _, fn := range opts {
		fn(v)
	}
	return v
}

func (v *Vault) Address() common.Address {
	return v.address
}

func (v *Vault) HasSchedule(token common.Address) bool {
	return v.schedules.Value(token).Set
}

// CreateSchedule starts vesting the vault's whole balance of token from now.
func (v *Vault) CreateSchedule(caller, token common.Address) (Schedule, error) {
	if caller != v.orchestrator {
		return Schedule{}, fmt.Errorf("%w: %s", ErrNotOrchestrator, caller)
	}
	if v.HasSchedule(token) {
		return Schedule{}, fmt.Errorf("%w: %s", ErrScheduleExists, token)
	}
	total := v.ledger.BalanceOf(token, v.address)
	if total.Sign() == 0 {
		return Schedule{}, fmt.Errorf("%w: %s", ErrZeroAllocation, token)
	}

	now := v.clock.Now()
	s := Schedule{
		Set:       true,
		Start:     now,
		End:       now + uint64(v.duration/time.Second),
		Remaining: total,
		Released:  big.NewInt(0),
	}
	v.schedules.Put(token, s)
	v.logger.Info("vesting schedule created",
		zap.Stringer("token", token),
		zap.Stringer("total", total),
		zap.Uint64("start", s.Start),
		zap.Uint64("end", s.End),
	)
	return s, nil
}

// DepositPending moves amount of the pairing asset from from into the vault
// and owes it to token's recipient.
func (v *Vault) DepositPending(from, token common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	return v.j.Atomic(func() error {
		if err := v.ledger.Transfer(v.pairing, from, v.address, amount); err != nil {
			return err
		}
		v.pending.Put(token, new(big.Int).Add(v.Pending(token), amount))
		return nil
	})
}

// Claim pays token's recipient everything vested so far, any token balance
// the schedule does not track, and all pending pairing asset.
func (v *Vault) Claim(token common.Address) (events.Claimed, error) {
	var out events.Claimed
	err := v.j.Atomic(func() error {
		recipient, ok := v.resolve(token)
		if !ok {
			return fmt.Errorf("%w: %s", ErrRecipientUnbound, token)
		}
		out = events.Claimed{
			Token:         token,
			Recipient:     recipient,
			TokenAmount:   big.NewInt(0),
			PairingAmount: v.Pending(token),
		}

		if s, ok := v.schedules.Get(token); ok && s.Set {
			releasable := Releasable(s, v.clock.Now())
			s.Remaining = new(big.Int).Sub(s.remaining(), releasable)
			s.Released = new(big.Int).Add(s.released(), releasable)
			v.schedules.Put(token, s)

			held := v.ledger.BalanceOf(token, v.address)
			if free := new(big.Int).Sub(held, s.Remaining); free.Sign() > 0 {
				out.TokenAmount = free
			}
		}
		if out.PairingAmount.Sign() > 0 {
			v.pending.Put(token, big.NewInt(0))
		}

		if err := v.ledger.Transfer(token, v.address, recipient, out.TokenAmount); err != nil {
			return err
		}
		return v.ledger.Transfer(v.pairing, v.address, recipient, out.PairingAmount)
	})
	if err != nil {
		return events.Claimed{}, err
	}

	v.logger.Info("claimed",
		zap.Stringer("token", token),
		zap.Stringer("recipient", out.Recipient),
		zap.Stringer("tokenAmount", out.TokenAmount),
		zap.Stringer("pairingAmount", out.PairingAmount),
	)
	v.sink.Emit(out)
	return out, nil
}

// Schedule returns token's schedule. The zero Schedule means none exists.
func (v *Vault) Schedule(token common.Address) Schedule {
	s := v.schedules.Value(token)
	s.Remaining = new(big.Int).Set(s.remaining())
	s.Released = new(big.Int).Set(s.released())
	return s
}

func (v *Vault) Remaining(token common.Address) *big.Int {
	return v.Schedule(token).Remaining
}

func (v *Vault) Released(token common.Address) *big.Int {
	return v.Schedule(token).Released
}

func (v *Vault) VestedAt(token common.Address, t uint64) *big.Int {
	return Vested(v.schedules.Value(token), t)
}

func (v *Vault) Releasable(token common.Address) *big.Int {
	return Releasable(v.schedules.Value(token), v.clock.Now())
}

// Pending is the pairing asset owed to token's recipient.
func (v *Vault) Pending(token common.Address) *big.Int {
	if p, ok := v.pending.Get(token); ok {
		return new(big.Int).Set(p)
	}
	return big.NewInt(0)
}
