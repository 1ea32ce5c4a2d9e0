package liquidity

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/iptoken-go/amm"
	"github.com/krazyTry/iptoken-go/ledger"
	"github.com/krazyTry/iptoken-go/state"
	"github.com/krazyTry/iptoken-go/tickmath"
)

var (
	low    = common.HexToAddress("0x0000000000000000000000000000000000000010")
	high   = common.HexToAddress("0xf000000000000000000000000000000000000000")
	owner  = common.HexToAddress("0xabcd")
	trader = common.HexToAddress("0x7777")
)

// newSide builds a pool whose token price starts at token tick start.
func newSide(t *testing.T, token, pairing common.Address, start int32) (*Side, *ledger.Ledger, *amm.Pool) {
	j := state.NewJournal()
	l := ledger.New(j, state.NewManualClock(0))
	supply := big.NewInt(1_000_000_000_000_000)
	for _, a := range []common.Address{token, pairing} {
		require.NoError(t, l.RegisterAsset(ledger.Asset{Address: a}))
		require.NoError(t, l.Mint(a, owner, supply))
		require.NoError(t, l.Mint(a, trader, supply))
	}
	poolTick := start
	if token != low {
		poolTick = -start
	}
	f := amm.NewFactory(common.HexToAddress("0xfac7"), j, l)
	p, err := f.CreatePool(token, pairing, 3000, 60, tickmath.MustSqrtRatioAtTick(poolTick))
	require.NoError(t, err)
	s, err := NewSide(p, l, token)
	require.NoError(t, err)
	return s, l, p
}

func TestSideOrientation(t *testing.T) {
	s0, _, _ := newSide(t, low, high, -1200)
	assert.True(t, s0.TokenIsToken0())
	assert.Equal(t, int32(-1200), s0.TokenTick())
	lower, upper := s0.PoolRange(-1200, 600)
	assert.Equal(t, [2]int32{-1200, 600}, [2]int32{lower, upper})

	s1, _, _ := newSide(t, high, low, -1200)
	assert.False(t, s1.TokenIsToken0())
	assert.Equal(t, int32(-1200), s1.TokenTick())
	lower, upper = s1.PoolRange(-1200, 600)
	assert.Equal(t, [2]int32{-600, 1200}, [2]int32{lower, upper})
	assert.Equal(t, low, s1.Pairing())
}

func TestNewSideRejectsForeignToken(t *testing.T) {
	_, l, p := newSide(t, low, high, 0)
	_, err := NewSide(p, l, common.HexToAddress("0x99"))
	assert.ErrorIs(t, err, ErrTokenNotInPool)
}

func TestOpenTokenIsOneSided(t *testing.T) {
	for _, token := range []common.Address{low, high} {
		pairing := high
		if token == high {
			pairing = low
		}
		s, l, p := newSide(t, token, pairing, -1200)
		amount := big.NewInt(1_000_000_000)

		opened, err := s.OpenToken(owner, owner, -1200, 1200, amount)
		require.NoError(t, err)
		assert.Equal(t, 1, opened.Liquidity.Sign())
		assert.LessOrEqual(t, opened.TokenAmount.Cmp(amount), 0)
		assert.Equal(t, 0, opened.PairingAmount.Sign())
		assert.Equal(t, 0, l.BalanceOf(token, p.Address()).Cmp(opened.TokenAmount))
		assert.Equal(t, 0, l.BalanceOf(pairing, p.Address()).Sign())
	}
}

func TestOpenPairingBelowPrice(t *testing.T) {
	s, l, p := newSide(t, high, low, 0)
	opened, err := s.OpenPairing(owner, owner, -120, -60, big.NewInt(5_000_000))
	require.NoError(t, err)
	assert.Equal(t, 1, opened.Liquidity.Sign())
	assert.Equal(t, 0, opened.TokenAmount.Sign())
	assert.Equal(t, 0, l.BalanceOf(low, p.Address()).Cmp(opened.PairingAmount))
	assert.Equal(t, [2]int32{60, 120}, [2]int32{opened.Lower, opened.Upper})
}

func TestOpenTooSmallIsNoop(t *testing.T) {
	s, _, _ := newSide(t, low, high, 0)
	opened, err := s.OpenToken(owner, owner, 0, 60, big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, 0, opened.Liquidity.Sign())

	// straddles the price, the token alone cannot fund it
	opened, err = s.OpenToken(owner, owner, -60, 60, big.NewInt(1_000))
	require.NoError(t, err)
	assert.Equal(t, 0, opened.Liquidity.Sign())
}

func TestWithdrawAll(t *testing.T) {
	s, l, p := newSide(t, high, low, 0)
	opened, err := s.OpenToken(owner, owner, 0, 600, big.NewInt(1_000_000_000))
	require.NoError(t, err)

	// the token price rises into the range, buyers pay the pairing asset
	_, _, err = p.SwapToTick(trader, -300)
	require.NoError(t, err)
	assert.Equal(t, int32(300), s.TokenTick())

	before := l.BalanceOf(low, owner)
	w, err := s.WithdrawAll(owner, 0, 600, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, w.Liquidity.Cmp(opened.Liquidity))
	assert.Equal(t, 1, w.PairingAmount.Sign())
	assert.Equal(t, -1, w.TokenAmount.Cmp(opened.TokenAmount))
	assert.Equal(t, 0, new(big.Int).Sub(l.BalanceOf(low, owner), before).Cmp(w.PairingAmount))

	again, err := s.WithdrawAll(owner, 0, 600, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, again.TokenAmount.Sign())
	assert.Equal(t, 0, again.PairingAmount.Sign())
}

func TestPayerAuthorization(t *testing.T) {
	_, l, p := newSide(t, low, high, 0)
	cb := newPayer(l, p, owner)

	err := cb.MintCallback(common.HexToAddress("0xbad"), big.NewInt(1), big.NewInt(1), nil)
	assert.ErrorIs(t, err, ErrUnauthorizedCallback)
	assert.Equal(t, 0, l.BalanceOf(low, p.Address()).Sign())

	require.NoError(t, cb.MintCallback(p.Address(), big.NewInt(3), big.NewInt(0), nil))
	assert.Equal(t, int64(3), l.BalanceOf(low, p.Address()).Int64())

	err = cb.MintCallback(p.Address(), big.NewInt(3), big.NewInt(0), nil)
	assert.ErrorIs(t, err, ErrCallbackReplayed)
}
