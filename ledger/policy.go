package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var ErrTransferCapExceeded = errors.New("ledger: anti-snipe transfer cap exceeded")

// TransferCap limits how much of an asset one recipient may take out of its
// launch pool during the window that follows launch.
type TransferCap struct {
	Pool   common.Address
	Start  uint64
	Window uint64
	Cap    *big.Int
	Exempt []common.Address
}

func (c TransferCap) enabled() bool {
	return c.Window > 0 && c.Cap != nil && c.Cap.Sign() > 0
}

func (c TransferCap) exempt(addr common.Address) bool {
	for _, e := range c.Exempt {
		if e == addr {
			return true
		}
	}
	return false
}

// SetTransferCap installs the anti-snipe policy of asset. A zero window or cap disables it.
func (l *Ledger) SetTransferCap(asset common.Address, c TransferCap) error {
	if !l.assets.Has(asset) {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	c.Exempt = append([]common.Address(nil), c.Exempt...)
	if c.Cap != nil {
		c.Cap = new(big.Int).Set(c.Cap)
	}
	l.caps.Put(asset, c)
	return nil
}

func (l *Ledger) checkCap(asset, from, to common.Address, amount *big.Int) error {
	c, ok := l.caps.Get(asset)
	if !ok || !c.enabled() || from != c.Pool || c.exempt(to) {
		return nil
	}
	if l.clock.Now() >= c.Start+c.Window {
		return nil
	}

	key := holding{asset, to}
	total := new(big.Int).Add(amount, l.receivedOf(key))
	if total.Cmp(c.Cap) > 0 {
		return fmt.Errorf("%w: %s would receive %s, cap %s", ErrTransferCapExceeded, to, total, c.Cap)
	}
	l.received.Put(key, total)
	return nil
}

func (l *Ledger) receivedOf(key holding) *big.Int {
	if v, ok := l.received.Get(key); ok {
		return v
	}
	return big.NewInt(0)
}
