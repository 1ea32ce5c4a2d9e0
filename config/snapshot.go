package config

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	binary "github.com/gagliardetto/binary"

	"github.com/krazyTry/iptoken-go/u128"
)

// SnapshotVersion is the only layout DecodeSnapshot accepts.
const SnapshotVersion uint8 = 1

var ErrSnapshotVersion = errors.New("config: unsupported snapshot version")

// Snapshot is the borsh layout of a Config.
type Snapshot struct {
	Version         uint8
	Precision       uint64
	BurnShare       uint64
	IPOwnerShare    uint64
	BuybackShare    uint64
	BidWallCap      binary.Uint128
	VestingDuration uint64
	TickSpacing     int32
	PoolFee         uint32
	AntiSnipeWindow uint64
	AntiSnipeCap    binary.Uint128
	Treasury        [common.AddressLength]byte
	PairingAsset    [common.AddressLength]byte
	Admin           [common.AddressLength]byte
}

// EncodeSnapshot validates c and encodes it as a version 1 snapshot.
func EncodeSnapshot(c Config) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	bidWallCap, err := u128.FromBig(c.BidWallCap)
	if err != nil {
		return nil, fmt.Errorf("bid wall cap: %w", err)
	}
	antiSnipeCap, err := u128.FromBig(c.AntiSnipeCap)
	if err != nil {
		return nil, fmt.Errorf("anti-snipe cap: %w", err)
	}

	s := Snapshot{
		Version:         SnapshotVersion,
		Precision:       c.Precision,
		BurnShare:       c.BurnShare,
		IPOwnerShare:    c.IPOwnerShare,
		BuybackShare:    c.BuybackShare,
		BidWallCap:      bidWallCap,
		VestingDuration: uint64(c.VestingDuration / time.Second),
		TickSpacing:     c.TickSpacing,
		PoolFee:         c.PoolFee,
		AntiSnipeWindow: uint64(c.AntiSnipeWindow / time.Second),
		AntiSnipeCap:    antiSnipeCap,
		Treasury:        c.Treasury,
		PairingAsset:    c.PairingAsset,
		Admin:           c.Admin,
	}

	buf := new(bytes.Buffer)
	if err := binary.NewBorshEncoder(buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot decodes and validates a snapshot.
func DecodeSnapshot(data []byte) (Config, error) {
	var s Snapshot
	if err := binary.NewBorshDecoder(data).Decode(&s); err != nil {
		return Config{}, err
	}
	if s.Version != SnapshotVersion {
		return Config{}, fmt.Errorf("%w: %d", ErrSnapshotVersion, s.Version)
	}

	c := Config{
		Precision:       s.Precision,
		BurnShare:       s.BurnShare,
		IPOwnerShare:    s.IPOwnerShare,
		BuybackShare:    s.BuybackShare,
		BidWallCap:      u128.ToBig(s.BidWallCap),
		VestingDuration: time.Duration(s.VestingDuration) * time.Second,
		TickSpacing:     s.TickSpacing,
		PoolFee:         s.PoolFee,
		AntiSnipeWindow: time.Duration(s.AntiSnipeWindow) * time.Second,
		AntiSnipeCap:    u128.ToBig(s.AntiSnipeCap),
		Treasury:        s.Treasury,
		PairingAsset:    s.PairingAsset,
		Admin:           s.Admin,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
