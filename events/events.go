// Package events defines what the engine reports when a call commits.
// Events are for observability only. Nothing in the engine reads them back.
package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap/zapcore"
)

// Event is implemented by every event type. Events marshal themselves for zap.
type Event interface {
	zapcore.ObjectMarshaler
	EventName() string
}

func addBig(enc zapcore.ObjectEncoder, key string, v *big.Int) {
	if v == nil {
		enc.AddString(key, "0")
		return
	}
	enc.AddString(key, v.String())
}

type TokenCreated struct {
	Token   common.Address
	Pool    common.Address
	Creator common.Address
	Supply  *big.Int
}

func (TokenCreated) EventName() string { return "TokenCreated" }

func (e TokenCreated) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("token", e.Token.Hex())
	enc.AddString("pool", e.Pool.Hex())
	enc.AddString("creator", e.Creator.Hex())
	addBig(enc, "supply", e.Supply)
	return nil
}

type IPAssetLinked struct {
	Token   common.Address
	IPAsset common.Address
}

func (IPAssetLinked) EventName() string { return "IPAssetLinked" }

func (e IPAssetLinked) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("token", e.Token.Hex())
	enc.AddString("ipAsset", e.IPAsset.Hex())
	return nil
}

// PositionOpened is a ladder tier or promotion position. Ticks are pool ticks.
type PositionOpened struct {
	Token       common.Address
	Pool        common.Address
	Lower       int32
	Upper       int32
	Liquidity   *big.Int
	TokenAmount *big.Int
}

func (PositionOpened) EventName() string { return "PositionOpened" }

func (e PositionOpened) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("token", e.Token.Hex())
	enc.AddString("pool", e.Pool.Hex())
	enc.AddInt32("lower", e.Lower)
	enc.AddInt32("upper", e.Upper)
	addBig(enc, "liquidity", e.Liquidity)
	addBig(enc, "tokenAmount", e.TokenAmount)
	return nil
}

type PositionCollected struct {
	Pool    common.Address
	Lower   int32
	Upper   int32
	Amount0 *big.Int
	Amount1 *big.Int
}

func (PositionCollected) EventName() string { return "PositionCollected" }

func (e PositionCollected) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("pool", e.Pool.Hex())
	enc.AddInt32("lower", e.Lower)
	enc.AddInt32("upper", e.Upper)
	addBig(enc, "amount0", e.Amount0)
	addBig(enc, "amount1", e.Amount1)
	return nil
}

// Harvested summarises one harvest.
type Harvested struct {
	Token            common.Address
	Tier             int
	PairingCollected *big.Int
	TokenCollected   *big.Int
	TokenBurned      *big.Int
	TokenPromoted    *big.Int
	Buyback          *big.Int
	OwnerAmount      *big.Int
	TreasuryAmount   *big.Int
}

func (Harvested) EventName() string { return "Harvested" }

func (e Harvested) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("token", e.Token.Hex())
	enc.AddInt("tier", e.Tier)
	addBig(enc, "pairingCollected", e.PairingCollected)
	addBig(enc, "tokenCollected", e.TokenCollected)
	addBig(enc, "tokenBurned", e.TokenBurned)
	addBig(enc, "tokenPromoted", e.TokenPromoted)
	addBig(enc, "buyback", e.Buyback)
	addBig(enc, "ownerAmount", e.OwnerAmount)
	addBig(enc, "treasuryAmount", e.TreasuryAmount)
	return nil
}

type ScheduleCreated struct {
	Token common.Address
	Total *big.Int
	Start uint64
	End   uint64
}

func (ScheduleCreated) EventName() string { return "ScheduleCreated" }

func (e ScheduleCreated) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("token", e.Token.Hex())
	addBig(enc, "total", e.Total)
	enc.AddUint64("start", e.Start)
	enc.AddUint64("end", e.End)
	return nil
}

type Claimed struct {
	Token         common.Address
	Recipient     common.Address
	TokenAmount   *big.Int
	PairingAmount *big.Int
}

func (Claimed) EventName() string { return "Claimed" }

func (e Claimed) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("token", e.Token.Hex())
	enc.AddString("recipient", e.Recipient.Hex())
	addBig(enc, "tokenAmount", e.TokenAmount)
	addBig(enc, "pairingAmount", e.PairingAmount)
	return nil
}

// BidWallRepositioned reports a bid wall move. Skipped is set when the new
// range fell outside the usable ticks and the funds were left idle.
type BidWallRepositioned struct {
	Token            common.Address
	Lower            int32
	Upper            int32
	CollectedToken   *big.Int
	CollectedPairing *big.Int
	Burned           *big.Int
	Funded           *big.Int
	Liquidity        *big.Int
	Skipped          bool
}

func (BidWallRepositioned) EventName() string { return "BidWallRepositioned" }

func (e BidWallRepositioned) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("token", e.Token.Hex())
	enc.AddInt32("lower", e.Lower)
	enc.AddInt32("upper", e.Upper)
	addBig(enc, "collectedToken", e.CollectedToken)
	addBig(enc, "collectedPairing", e.CollectedPairing)
	addBig(enc, "burned", e.Burned)
	addBig(enc, "funded", e.Funded)
	addBig(enc, "liquidity", e.Liquidity)
	enc.AddBool("skipped", e.Skipped)
	return nil
}
