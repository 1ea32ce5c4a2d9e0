// Package registry tracks who may operate the engine and which account
// receives the allocation of each IP asset.
package registry

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/krazyTry/iptoken-go/state"
)

var (
	ErrNotAdmin            = errors.New("registry: caller is not the admin")
	ErrNotOperator         = errors.New("registry: caller is not an operator")
	ErrZeroAddress         = errors.New("registry: zero address")
	ErrUnbound             = errors.New("registry: ip asset has no recipient")
	ErrNotRecipient        = errors.New("registry: caller is neither the recipient nor an operator")
	ErrNoPendingRecipient  = errors.New("registry: no pending recipient")
	ErrNotPendingRecipient = errors.New("registry: caller is not the pending recipient")
	ErrAlreadyBound        = errors.New("registry: ip asset already has a recipient")
)

// Binding is the recipient of one IP asset and the account it is being
// handed to, if any.
type Binding struct {
	Recipient common.Address
	Pending   common.Address
}

type Registry struct {
	j      *state.Journal
	admin  common.Address
	logger *zap.Logger

	operators *state.Table[common.Address, bool]
	bindings  *state.Table[common.Address, Binding]
}

type Option func(*Registry)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func New(j *state.Journal, admin common.Address, opts ...Option) *Registry {
	r := &Registry{
		j:         j,
		admin:     admin,
		logger:    zap.NewNop(),
		operators: state.NewTable[common.Address, bool](j),
		bindings:  state.NewTable[common.Address, Binding](j),
	}
	for _, fn := range opts {
		fn(r)
	}
	return r
}

func (r *Registry) Admin() common.Address {
	return r.admin
}

func (r *Registry) IsOperator(addr common.Address) bool {
	return r.operators.Value(addr)
}

// RequireOperator fails with ErrNotOperator unless caller is an operator.
func (r *Registry) RequireOperator(caller common.Address) error {
	if !r.IsOperator(caller) {
		return fmt.Errorf("%w: %s", ErrNotOperator, caller)
	}
	return nil
}

func (r *Registry) AddOperator(caller, op common.Address) error {
	return r.j.Call(func() error {
		if caller != r.admin {
			return ErrNotAdmin
		}
		if op == (common.Address{}) {
			return ErrZeroAddress
		}
		r.operators.Put(op, true)
		r.logger.Info("operator added", zap.Stringer("operator", op))
		return nil
	})
}

func (r *Registry) RemoveOperator(caller, op common.Address) error {
	return r.j.Call(func() error {
		if caller != r.admin {
			return ErrNotAdmin
		}
		r.operators.Delete(op)
		r.logger.Info("operator removed", zap.Stringer("operator", op))
		return nil
	})
}

// Bind sets the first recipient of ipAsset.
func (r *Registry) Bind(caller, ipAsset, recipient common.Address) error {
	return r.j.Call(func() error {
		if err := r.RequireOperator(caller); err != nil {
			return err
		}
		if ipAsset == (common.Address{}) || recipient == (common.Address{}) {
			return ErrZeroAddress
		}
		if b := r.bindings.Value(ipAsset); b.Recipient != (common.Address{}) {
			return fmt.Errorf("%w: %s", ErrAlreadyBound, b.Recipient)
		}
		r.bindings.Put(ipAsset, Binding{Recipient: recipient})
		r.logger.Info("recipient bound", zap.Stringer("ipAsset", ipAsset), zap.Stringer("recipient", recipient))
		return nil
	})
}

func (r *Registry) boundFor(caller, ipAsset common.Address) (Binding, error) {
	b := r.bindings.Value(ipAsset)
	if b.Recipient == (common.Address{}) {
		return b, fmt.Errorf("%w: %s", ErrUnbound, ipAsset)
	}
	if caller != b.Recipient && !r.IsOperator(caller) {
		return b, ErrNotRecipient
	}
	return b, nil
}

// ProposeRecipient starts handing ipAsset to next. It takes effect when next
// calls AcceptRecipient.
func (r *Registry) ProposeRecipient(caller, ipAsset, next common.Address) error {
	return r.j.Call(func() error {
		b, err := r.boundFor(caller, ipAsset)
		if err != nil {
			return err
		}
		if next == (common.Address{}) {
			return ErrZeroAddress
		}
		b.Pending = next
		r.bindings.Put(ipAsset, b)
		return nil
	})
}

func (r *Registry) AcceptRecipient(caller, ipAsset common.Address) error {
	return r.j.Call(func() error {
		b := r.bindings.Value(ipAsset)
		if b.Pending == (common.Address{}) {
			return ErrNoPendingRecipient
		}
		if caller != b.Pending {
			return ErrNotPendingRecipient
		}
		r.logger.Info("recipient transferred",
			zap.Stringer("ipAsset", ipAsset),
			zap.Stringer("from", b.Recipient),
			zap.Stringer("to", b.Pending),
		)
		r.bindings.Put(ipAsset, Binding{Recipient: b.Pending})
		return nil
	})
}

func (r *Registry) CancelRecipient(caller, ipAsset common.Address) error {
	return r.j.Call(func() error {
		b, err := r.boundFor(caller, ipAsset)
		if err != nil {
			return err
		}
		if b.Pending == (common.Address{}) {
			return ErrNoPendingRecipient
		}
		b.Pending = common.Address{}
		r.bindings.Put(ipAsset, b)
		return nil
	})
}

// RecipientOf returns the current recipient of ipAsset.
func (r *Registry) RecipientOf(ipAsset common.Address) (common.Address, bool) {
	b := r.bindings.Value(ipAsset)
	return b.Recipient, b.Recipient != (common.Address{})
}

func (r *Registry) Binding(ipAsset common.Address) Binding {
	return r.bindings.Value(ipAsset)
}
