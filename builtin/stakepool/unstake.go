// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/stakepool/deposits"
	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/builtin/stakepool/withdrawals"
	"github.com/vechain/stakepool/thor"
)

// UnstakeReceipt describes burnt shares and the withdrawal they fund.
type UnstakeReceipt struct {
	ID         deposits.ID // of the withdraw instruction
	Shares     *big.Int
	Value      *big.Int
	Withdrawal *withdrawals.Withdrawal

	burner      thor.Address
	beneficiary thor.Address
	prior       *withdrawals.Withdrawal // of beneficiary, before the unstake
}

// Unstake burns the caller's shares worth amount, or all spendable shares when
// amount is nil, and moves their value into the caller's pending withdrawal.
func (p *Pool) Unstake(ctx context.Context, caller thor.Address, amount *big.Int) (receipt *UnstakeReceipt, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { observeOperation("unstake", err) }()

	logger.Debug("unstaking", "caller", caller, "amount", amount)

	err = p.atomic(func() error {
		if _, err := p.getParams(); err != nil {
			return err
		}
		receipt, err = p.unstake(caller, caller, amount)
		return err
	})
	if err != nil {
		logger.Debug("unstake failed", "caller", caller, "amount", amount, "err", err)
		return nil, err
	}

	logger.Info("unstaked",
		"caller", caller,
		"shares", receipt.Shares,
		"value", receipt.Value,
		"unlockEpoch", receipt.Withdrawal.UnlockEpoch,
	)
	p.publish(&Event{Kind: EventUnstaked, Account: caller, Value: receipt.Value, Shares: receipt.Shares})
	if err := p.dispatchWithdraw(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// unstake burns spendable shares of burner and credits their value to the
// pending withdrawal of beneficiary.
func (p *Pool) unstake(burner, beneficiary thor.Address, amount *big.Int) (*UnstakeReceipt, error) {
	acc, err := p.sharesService.GetAccount(burner)
	if err != nil {
		return nil, err
	}
	spendable := acc.Spendable()

	r, totals, err := p.currentRate()
	if err != nil {
		return nil, err
	}

	var burn, value *big.Int
	if amount == nil {
		if spendable.Sign() == 0 {
			return nil, errors.WithMessagef(reverts.ErrInsufficientShares, "%v has no spendable shares", burner)
		}
		burn = spendable
		value = r.ValueOf(burn)
	} else {
		if err := validAmount(amount); err != nil {
			return nil, err
		}
		burn = r.SharesForCeil(amount)
		if burn.Cmp(spendable) > 0 {
			return nil, errors.WithMessagef(reverts.ErrInsufficientShares, "%v needs %v shares, spendable %v", amount, burn, spendable)
		}
		value = new(big.Int).Set(amount)
	}
	if burn.Cmp(totals.Shares) == 0 {
		// last shares out take the rounding dust with them
		value = new(big.Int).Set(totals.StakedValue)
	}
	if value.Sign() == 0 {
		return nil, errors.WithMessagef(reverts.ErrInvalidAmount, "%v shares are worth nothing", burn)
	}

	if err := p.sharesService.Debit(burner, burn); err != nil {
		return nil, err
	}
	if err := p.sharesService.AdjustStakedValue(new(big.Int).Neg(value)); err != nil {
		return nil, err
	}
	if err := p.sharesService.AdjustUnstaked(value); err != nil {
		return nil, err
	}
	prior, err := p.withdrawalsService.Get(beneficiary)
	if err != nil {
		return nil, err
	}
	prior = &withdrawals.Withdrawal{Amount: new(big.Int).Set(prior.Amount), UnlockEpoch: prior.UnlockEpoch}
	w, err := p.withdrawalsService.Add(beneficiary, value, p.deps.Clock.Epoch()+thor.UnbondingEpochs)
	if err != nil {
		return nil, err
	}
	id, err := p.depositsService.NextID()
	if err != nil {
		return nil, err
	}
	if _, err := p.depositsService.IssueWithdraw(id, beneficiary, value); err != nil {
		return nil, err
	}
	return &UnstakeReceipt{
		ID:          id,
		Shares:      burn,
		Value:       value,
		Withdrawal:  w,
		burner:      burner,
		beneficiary: beneficiary,
		prior:       prior,
	}, nil
}

// dispatchWithdraw sends the committed withdraw instruction of receipt to the
// mechanism. An instruction the mechanism refuses outright reverts the unstake,
// since the value never left the mechanism.
func (p *Pool) dispatchWithdraw(ctx context.Context, receipt *UnstakeReceipt) error {
	cause := p.deps.Mechanism.Withdraw(ctx, receipt.ID, receipt.Value)
	if cause == nil {
		return nil
	}
	observeConfirmation(OpWithdraw, cause)
	logger.Warn("withdraw refused, reverting unstake", "id", receipt.ID, "value", receipt.Value, "err", cause)
	if err := p.revertUnstake(receipt); err != nil {
		// the record stays, so the value still counts as held by the mechanism
		logger.Error("failed to revert unstake", "id", receipt.ID, "err", err)
		return errors.Wrapf(err, "failed to revert unstake %d", receipt.ID)
	}
	return errors.WithMessage(reverts.ErrExternalConfirmationFailed, cause.Error())
}

// revertUnstake restores the shares, the staked value and the pending
// withdrawal an unstake changed. It runs under the same lock hold as the
// unstake, so the rate is unchanged.
func (p *Pool) revertUnstake(receipt *UnstakeReceipt) error {
	err := p.atomic(func() error {
		w, err := p.depositsService.GetWithdraw(receipt.ID)
		if err != nil {
			return err
		}
		if w == nil {
			return errors.Errorf("withdraw %d not found", receipt.ID)
		}
		if err := p.depositsService.ResolveWithdraw(w); err != nil {
			return err
		}
		if err := p.withdrawalsService.Put(receipt.beneficiary, receipt.prior); err != nil {
			return err
		}
		if err := p.sharesService.AdjustUnstaked(new(big.Int).Neg(receipt.Value)); err != nil {
			return err
		}
		if err := p.sharesService.AdjustStakedValue(receipt.Value); err != nil {
			return err
		}
		return p.sharesService.Credit(receipt.burner, receipt.Shares)
	})
	if err != nil {
		return err
	}
	logger.Info("unstake reverted", "id", receipt.ID, "account", receipt.burner, "shares", receipt.Shares, "value", receipt.Value)
	p.publish(&Event{Kind: EventUnstakeReverted, Account: receipt.burner, Value: receipt.Value, Shares: receipt.Shares})
	return nil
}

// Restake moves amount, or the whole pending withdrawal when amount is nil,
// back into staked shares at the current rate. No fee is charged. The value
// is deposited to the mechanism like a stake; a failed confirmation restores
// the pending withdrawal.
func (p *Pool) Restake(ctx context.Context, caller thor.Address, amount *big.Int) (receipt *Receipt, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { observeOperation("restake", err) }()

	logger.Debug("restaking", "caller", caller, "amount", amount)

	var d *deposits.Deposit
	err = p.atomic(func() error {
		if err := p.requireOnline(); err != nil {
			return err
		}
		params, err := p.getParams()
		if err != nil {
			return err
		}
		w, err := p.withdrawalsService.Get(caller)
		if err != nil {
			return err
		}
		if w.IsEmpty() {
			return errors.WithMessagef(reverts.ErrInsufficientUnlockedBalance, "%v has no pending withdrawal", caller)
		}
		amt := amount
		if amt == nil {
			amt = new(big.Int).Set(w.Amount)
		}
		if err := validAmount(amt); err != nil {
			return err
		}

		r, _, err := p.currentRate()
		if err != nil {
			return err
		}
		d = &deposits.Deposit{
			Kind:        deposits.KindRestake,
			Account:     caller,
			Beneficiary: caller,
			Treasury:    params.Treasury,
			Gross:       new(big.Int).Set(amt),
			Attached:    new(big.Int),
			Credit:      new(big.Int),
			Shares:      r.SharesFor(amt),
			FeeShares:   new(big.Int),
			Epoch:       p.deps.Clock.Epoch(),
			UnlockEpoch: w.UnlockEpoch,
		}
		if d.Shares.Sign() == 0 {
			return errors.WithMessagef(reverts.ErrInvalidAmount, "%v buys no shares at %v", amt, r)
		}

		if _, err := p.withdrawalsService.Sub(caller, amt); err != nil {
			return err
		}
		if err := p.sharesService.AdjustUnstaked(new(big.Int).Neg(amt)); err != nil {
			return err
		}
		if err := p.sharesService.Register(caller); err != nil {
			return err
		}
		return p.issueDeposit(d)
	})
	if err != nil {
		logger.Debug("restake failed", "caller", caller, "amount", amount, "err", err)
		return nil, err
	}
	logger.Info("restake issued", "id", d.ID, "caller", caller, "value", d.Gross, "shares", d.Shares)
	p.publishDeposit(EventDepositIssued, d)
	return p.dispatchDeposit(ctx, d)
}

// Withdraw pays amount, or the whole pending withdrawal when amount is nil,
// out to the caller once the unlock epoch is reached.
func (p *Pool) Withdraw(caller thor.Address, amount *big.Int) (paid *big.Int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { observeOperation("withdraw", err) }()

	logger.Debug("withdrawing", "caller", caller, "amount", amount)

	var prior *withdrawals.Withdrawal
	err = p.atomic(func() error {
		w, err := p.withdrawalsService.Get(caller)
		if err != nil {
			return err
		}
		if w.IsEmpty() {
			return errors.WithMessagef(reverts.ErrInsufficientUnlockedBalance, "%v has no pending withdrawal", caller)
		}
		epoch := p.deps.Clock.Epoch()
		if !w.Unlocked(epoch) {
			return errors.WithMessagef(reverts.ErrWithdrawalNotReady, "unlocks at epoch %d, now %d", w.UnlockEpoch, epoch)
		}
		paid = amount
		if paid == nil {
			paid = new(big.Int).Set(w.Amount)
		}
		if err := validAmount(paid); err != nil {
			return err
		}
		prior = &withdrawals.Withdrawal{Amount: new(big.Int).Set(w.Amount), UnlockEpoch: w.UnlockEpoch}
		if _, err := p.withdrawalsService.Sub(caller, paid); err != nil {
			return err
		}
		return p.sharesService.AdjustUnstaked(new(big.Int).Neg(paid))
	})
	if err != nil {
		logger.Debug("withdraw failed", "caller", caller, "amount", amount, "err", err)
		return nil, err
	}

	// paid only once the ledger no longer owes it
	if cause := p.deps.Bank.Transfer(caller, paid); cause != nil {
		logger.Error("payout failed, restoring withdrawal", "caller", caller, "amount", paid, "err", cause)
		err := p.atomic(func() error {
			if err := p.sharesService.AdjustUnstaked(paid); err != nil {
				return err
			}
			return p.withdrawalsService.Put(caller, prior)
		})
		if err != nil {
			logger.Error("failed to restore withdrawal", "caller", caller, "amount", paid, "err", err)
		}
		return nil, errors.Wrap(cause, "failed to transfer")
	}
	logger.Info("withdrawn", "caller", caller, "amount", paid)
	p.publish(&Event{Kind: EventWithdrawn, Account: caller, Value: paid})
	return paid, nil
}
