// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/thor"
)

// Register creates the share record of a registered account.
func (p *Pool) Register(caller thor.Address) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { observeOperation("register", err) }()

	err = p.atomic(func() error {
		if err := p.requireRegistered(caller); err != nil {
			return err
		}
		return p.sharesService.Register(caller)
	})
	if err != nil {
		return err
	}
	logger.Debug("account registered", "account", caller)
	return nil
}

// Unregister removes the share record of caller, which must hold no shares
// and no pending withdrawal.
func (p *Pool) Unregister(caller thor.Address) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { observeOperation("unregister", err) }()

	err = p.atomic(func() error {
		params, err := p.getParams()
		if err != nil {
			return err
		}
		if caller == params.Owner || caller == params.Treasury {
			return errors.WithMessage(reverts.ErrUnauthorized, "owner and treasury cannot unregister")
		}
		w, err := p.withdrawalsService.Get(caller)
		if err != nil {
			return err
		}
		if !w.IsEmpty() {
			return errors.WithMessagef(reverts.ErrAccountNotEmpty, "pending withdrawal of %v", w.Amount)
		}
		return p.sharesService.Unregister(caller)
	})
	if err != nil {
		return err
	}
	logger.Debug("account unregistered", "account", caller)
	return nil
}

// TransferShares moves spendable shares from caller to a registered receiver.
func (p *Pool) TransferShares(caller, receiver thor.Address, amount *big.Int) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { observeOperation("transfer-shares", err) }()

	err = p.atomic(func() error {
		if amount == nil {
			return errors.WithMessage(reverts.ErrInvalidAmount, "amount is required")
		}
		if err := validAmount(amount); err != nil {
			return err
		}
		if caller == receiver {
			return errors.WithMessage(reverts.ErrInvalidAmount, "transfer to self")
		}
		if err := p.requireRegistered(receiver); err != nil {
			return err
		}
		if err := p.sharesService.Debit(caller, amount); err != nil {
			return err
		}
		if err := p.sharesService.Register(receiver); err != nil {
			return err
		}
		return p.sharesService.Credit(receiver, amount)
	})
	if err != nil {
		logger.Debug("transfer failed", "from", caller, "to", receiver, "shares", amount, "err", err)
		return err
	}
	logger.Info("shares transferred", "from", caller, "to", receiver, "shares", amount)
	p.publish(&Event{Kind: EventSharesTransferred, Account: caller, Receiver: receiver, Shares: amount})
	return nil
}
