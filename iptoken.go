package iptoken

import (
	"github.com/krazyTry/iptoken-go/config"
	"github.com/krazyTry/iptoken-go/engine"
)

// NewEngine deploys a launch engine at an address.
//
// Example:
//
// cfg, _ := ParseConfig(raw)
//
// e, _ := NewEngine(cfg, engineAddr, engine.WithLogger(logger))
//
// token, _ := e.CreateToken(operator, engine.TokenParams{Name: "Song", Symbol: "SONG", Creator: creator, Supply: supply, StartTicks: ticks, Allocations: allocations})
//
// e.Harvest(token)
var NewEngine = engine.New

// DefaultConfig returns the protocol defaults. Treasury, PairingAsset and
// Admin have to be filled in.
var DefaultConfig = config.Default

// ParseConfig reads a JSON engine configuration on top of DefaultConfig.
//
// Example:
//
// cfg, _ := ParseConfig([]byte(`{"treasury":"0x7e..","pairingAsset":"0x9a..","admin":"0xad..","bidWallCap":"1000000000000000000000"}`))
var ParseConfig = config.ParseJSON
