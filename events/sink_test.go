package events

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var token = common.HexToAddress("0x1234")

func TestRecorderFilter(t *testing.T) {
	r := NewRecorder()
	r.Emit(IPAssetLinked{Token: token})
	r.Emit(Claimed{Token: token, TokenAmount: big.NewInt(5)})
	r.Emit(IPAssetLinked{Token: token, IPAsset: token})

	assert.Len(t, r.Events(), 3)
	linked := Of[IPAssetLinked](r)
	require.Len(t, linked, 2)
	assert.Equal(t, token, linked[1].IPAsset)

	r.Reset()
	assert.Empty(t, r.Events())
}

func TestBufferFlushAndDrop(t *testing.T) {
	r := NewRecorder()
	var b Buffer
	b.Add(Harvested{Token: token})
	b.Drop()
	b.Flush(r)
	assert.Empty(t, r.Events())

	b.Add(Harvested{Token: token})
	b.Add(ScheduleCreated{Token: token})
	assert.Equal(t, 2, b.Len())
	b.Flush(Multi{r, Discard})
	assert.Len(t, r.Events(), 2)
	assert.Equal(t, 0, b.Len())
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSink(zap.New(core))
	s.Emit(Harvested{Token: token, Tier: 1, Buyback: big.NewInt(42)})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Harvested", entries[0].Message)
	fields := entries[0].ContextMap()
	event, ok := fields["event"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "42", event["buyback"])
	assert.Equal(t, "0", event["ownerAmount"])
	assert.Equal(t, token.Hex(), event["token"])
}
