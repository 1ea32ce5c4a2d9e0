package vesting

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/iptoken-go/events"
	"github.com/krazyTry/iptoken-go/ledger"
	"github.com/krazyTry/iptoken-go/state"
)

var (
	vaultAddr    = common.HexToAddress("0x7a")
	orchestrator = common.HexToAddress("0x0c")
	token        = common.HexToAddress("0x70")
	pairing      = common.HexToAddress("0x9a")
	recipient    = common.HexToAddress("0x8e")
)

const day = uint64(24 * 60 * 60)

type fixture struct {
	vault    *Vault
	ledger   *ledger.Ledger
	clock    *state.ManualClock
	recorder *events.Recorder
	bound    bool
}

func newFixture(t *testing.T) *fixture {
	j := state.NewJournal()
	f := &fixture{clock: state.NewManualClock(1_000_000), recorder: events.NewRecorder(), bound: true}
	f.ledger = ledger.New(j, f.clock)
	for _, a := range []common.Address{token, pairing} {
		require.NoError(t, f.ledger.RegisterAsset(ledger.Asset{Address: a}))
		require.NoError(t, f.ledger.Mint(a, orchestrator, big.NewInt(1_000_000_000)))
	}
	resolve := func(common.Address) (common.Address, bool) { return recipient, f.bound }
	f.vault = New(j, vaultAddr, orchestrator, pairing, 90*24*time.Hour, f.ledger, f.clock, resolve, WithSink(f.recorder))
	return f
}

func (f *fixture) fund(t *testing.T, amount int64) {
	require.NoError(t, f.ledger.Transfer(token, orchestrator, vaultAddr, big.NewInt(amount)))
}

func TestVestedCurve(t *testing.T) {
	s := Schedule{Set: true, Start: 100, End: 100 + 90*day, Remaining: big.NewInt(900_000), Released: big.NewInt(0)}

	assert.Equal(t, int64(0), Vested(s, 99).Int64())
	assert.Equal(t, int64(0), Vested(s, s.Start).Int64())
	assert.Equal(t, int64(450_000), Vested(s, s.Start+45*day).Int64())
	assert.Equal(t, int64(900_000), Vested(s, s.End).Int64())
	assert.Equal(t, int64(900_000), Vested(s, s.End+1).Int64())

	prev := big.NewInt(0)
	for ts := s.Start; ts <= s.End+day; ts += day / 3 {
		v := Vested(s, ts)
		assert.GreaterOrEqual(t, v.Cmp(prev), 0, "vested must not decrease at %d", ts)
		prev = v
	}

	assert.Equal(t, 0, Vested(Schedule{}, 500).Sign())
}

func TestCreateSchedule(t *testing.T) {
	f := newFixture(t)
	_, err := f.vault.CreateSchedule(recipient, token)
	assert.ErrorIs(t, err, ErrNotOrchestrator)

	_, err = f.vault.CreateSchedule(orchestrator, token)
	assert.ErrorIs(t, err, ErrZeroAllocation)

	f.fund(t, 900_000)
	s, err := f.vault.CreateSchedule(orchestrator, token)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), s.Start)
	assert.Equal(t, s.Start+90*day, s.End)
	assert.Equal(t, int64(900_000), s.Total().Int64())
	assert.True(t, f.vault.HasSchedule(token))

	f.fund(t, 1)
	_, err = f.vault.CreateSchedule(orchestrator, token)
	assert.ErrorIs(t, err, ErrScheduleExists)
	assert.Equal(t, int64(900_000), f.vault.Remaining(token).Int64())
}

func TestClaimLinear(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 900_000)
	_, err := f.vault.CreateSchedule(orchestrator, token)
	require.NoError(t, err)

	f.clock.Advance(30 * 24 * time.Hour)
	assert.Equal(t, int64(300_000), f.vault.Releasable(token).Int64())

	c, err := f.vault.Claim(token)
	require.NoError(t, err)
	assert.Equal(t, int64(300_000), c.TokenAmount.Int64())
	assert.Equal(t, int64(300_000), f.ledger.BalanceOf(token, recipient).Int64())
	assert.Equal(t, 0, f.vault.Releasable(token).Sign())
	assert.Equal(t, int64(600_000), f.vault.Remaining(token).Int64())
	assert.Equal(t, int64(300_000), f.vault.Released(token).Int64())

	f.clock.Advance(120 * 24 * time.Hour)
	c, err = f.vault.Claim(token)
	require.NoError(t, err)
	assert.Equal(t, int64(600_000), c.TokenAmount.Int64())
	assert.Equal(t, 0, f.ledger.BalanceOf(token, vaultAddr).Sign())
	assert.Len(t, events.Of[events.Claimed](f.recorder), 2)
}

func TestClaimSweepsStrayBalance(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 900_000)
	_, err := f.vault.CreateSchedule(orchestrator, token)
	require.NoError(t, err)
	f.fund(t, 77)

	c, err := f.vault.Claim(token)
	require.NoError(t, err)
	assert.Equal(t, int64(77), c.TokenAmount.Int64())
	assert.Equal(t, int64(900_000), f.ledger.BalanceOf(token, vaultAddr).Int64())
}

func TestPendingFlush(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.vault.DepositPending(orchestrator, token, big.NewInt(500)))
	require.NoError(t, f.vault.DepositPending(orchestrator, token, big.NewInt(250)))
	assert.Equal(t, int64(750), f.vault.Pending(token).Int64())

	// no schedule yet: only the pairing asset moves
	f.fund(t, 1_000)
	c, err := f.vault.Claim(token)
	require.NoError(t, err)
	assert.Equal(t, int64(750), c.PairingAmount.Int64())
	assert.Equal(t, 0, c.TokenAmount.Sign())
	assert.Equal(t, int64(750), f.ledger.BalanceOf(pairing, recipient).Int64())
	assert.Equal(t, 0, f.vault.Pending(token).Sign())
	assert.Equal(t, int64(1_000), f.ledger.BalanceOf(token, vaultAddr).Int64())
}

func TestClaimUnboundRollsBack(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.vault.DepositPending(orchestrator, token, big.NewInt(10)))
	f.bound = false

	_, err := f.vault.Claim(token)
	assert.ErrorIs(t, err, ErrRecipientUnbound)
	assert.Equal(t, int64(10), f.vault.Pending(token).Int64())
	assert.Empty(t, f.recorder.Events())
}
