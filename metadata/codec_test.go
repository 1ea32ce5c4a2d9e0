package metadata

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var id123 = common.HexToAddress("0x123")

func wordHex(w *uint256.Int) string {
	b := w.Bytes32()
	return common.Hash(b).Hex()
}

func TestEncodeLayout(t *testing.T) {
	cases := []struct {
		name  string
		ticks []int32
		want  string
	}{
		{"positive", []int32{1, 2, 3}, "0x0000000000030000020000010000000000000000000000000000000000000123"},
		{"negative", []int32{-1, 2, -3}, "0x000000fffffd000002ffffff0000000000000000000000000000000000000123"},
		{"explicit zero", []int32{1, 0, -1}, "0x000000ffffff7777770000010000000000000000000000000000000000000123"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w, err := Encode(id123, c.ticks)
			require.NoError(t, err)
			assert.Equal(t, c.want, wordHex(w))

			rec := Decode(w)
			assert.Equal(t, id123, rec.IPAsset)
			assert.Equal(t, c.ticks, rec.Ticks)
		})
	}
}

func TestRoundTripLengths(t *testing.T) {
	id := common.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")
	lists := [][]int32{
		nil,
		{0},
		{-887272},
		{-144000, -120000},
		{-8388608, 0, 8388607, -1},
	}
	for _, ticks := range lists {
		w, err := Encode(id, ticks)
		require.NoError(t, err)
		rec := Decode(w)
		assert.Equal(t, id, rec.IPAsset)
		assert.Equal(t, ticks, rec.Ticks)
	}
}

func TestEncodeRejects(t *testing.T) {
	_, err := Encode(id123, []int32{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrTooManyTicks)

	_, err = Encode(id123, []int32{1 << 23})
	assert.ErrorIs(t, err, ErrTickOutOfRange)

	_, err = Encode(id123, []int32{ZeroTickSentinel})
	assert.ErrorIs(t, err, ErrTickOutOfRange)
}

func TestUpdateIdentifier(t *testing.T) {
	w, err := Encode(id123, []int32{-1, 2, -3})
	require.NoError(t, err)

	next := common.HexToAddress("0xabcdef0000000000000000000000000000000001")
	updated := UpdateIdentifier(w, next)
	rec := Decode(updated)
	assert.Equal(t, next, rec.IPAsset)
	assert.Equal(t, []int32{-1, 2, -3}, rec.Ticks)

	// identifier-only word on an empty record
	linked := UpdateIdentifier(nil, next)
	assert.Equal(t, Record{IPAsset: next}, Decode(linked))
}

func TestReplaceTicksKeepsIdentifier(t *testing.T) {
	linked := UpdateIdentifier(nil, id123)
	w, err := ReplaceTicks(linked, []int32{-144000, -120000})
	require.NoError(t, err)
	rec := Decode(w)
	assert.Equal(t, id123, rec.IPAsset)
	assert.Equal(t, []int32{-144000, -120000}, rec.Ticks)
}
