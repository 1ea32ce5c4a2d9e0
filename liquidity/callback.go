package liquidity

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnauthorizedCallback = errors.New("liquidity: mint callback not from the expected pool")
	ErrCallbackReplayed     = errors.New("liquidity: mint callback already settled")
)

// payer settles exactly one mint on one pool out of one account.
type payer struct {
	ledger Ledger
	pool   common.Address
	token0 common.Address
	token1 common.Address
	from   common.Address
	done   bool
}

func newPayer(ledger Ledger, pool Pool, from common.Address) *payer {
	return &payer{
		ledger: ledger,
		pool:   pool.Address(),
		token0: pool.Token0(),
		token1: pool.Token1(),
		from:   from,
	}
}

func (p *payer) MintCallback(pool common.Address, owed0, owed1 *big.Int, _ []byte) error {
	if pool != p.pool {
		return fmt.Errorf("%w: got %s, want %s", ErrUnauthorizedCallback, pool, p.pool)
	}
	if p.done {
		return ErrCallbackReplayed
	}
	p.done = true

	if err := p.ledger.Transfer(p.token0, p.from, p.pool, owed0); err != nil {
		return err
	}
	return p.ledger.Transfer(p.token1, p.from, p.pool, owed1)
}
