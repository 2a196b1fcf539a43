// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"context"
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/stakepool/deposits"
	"github.com/vechain/stakepool/builtin/stakepool/fees"
	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/thor"
)

// Receipt describes a deposit issued to the staking mechanism.
type Receipt struct {
	ID        deposits.ID
	Gross     *big.Int
	Shares    *big.Int
	FeeShares *big.Int
}

func newReceipt(d *deposits.Deposit) *Receipt {
	return &Receipt{
		ID:        d.ID,
		Gross:     d.Gross,
		Shares:    d.Shares,
		FeeShares: d.FeeShares,
	}
}

// Stake deposits attached plus the caller's storage credit. The shares are
// credited at once but stay unconfirmed until the mechanism confirms the deposit.
func (p *Pool) Stake(ctx context.Context, caller thor.Address, attached *big.Int) (receipt *Receipt, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { observeOperation("stake", err) }()

	if attached == nil {
		attached = new(big.Int)
	}

	logger.Debug("staking", "caller", caller, "attached", attached)

	var d *deposits.Deposit
	err = p.atomic(func() error {
		if err := p.requireOnline(); err != nil {
			return err
		}
		params, err := p.getParams()
		if err != nil {
			return err
		}
		if err := p.requireRegistered(caller); err != nil {
			return err
		}
		if attached.Sign() < 0 || !thor.IsValidAmount(attached) {
			return errors.WithMessagef(reverts.ErrInvalidAmount, "attached %v", attached)
		}
		credit, err := p.deps.Registry.AvailableCredit(caller)
		if err != nil {
			return errors.Wrap(err, "failed to get storage credit")
		}
		if credit == nil {
			credit = new(big.Int)
		}
		gross := new(big.Int).Add(attached, credit)
		if err := validAmount(gross); err != nil {
			return err
		}

		cfg, err := p.feesService.Get()
		if err != nil {
			return err
		}
		bps := cfg.StakingBPS
		if caller == params.Owner || caller == params.Treasury {
			bps = 0
		}
		net, fee := fees.Split(gross, bps)

		r, _, err := p.currentRate()
		if err != nil {
			return err
		}
		d = &deposits.Deposit{
			Kind:        deposits.KindStake,
			Account:     caller,
			Beneficiary: caller,
			Treasury:    params.Treasury,
			Gross:       gross,
			Attached:    new(big.Int).Set(attached),
			Credit:      credit,
			Shares:      r.SharesFor(net),
			FeeShares:   r.SharesFor(fee),
			Epoch:       p.deps.Clock.Epoch(),
		}
		if d.Shares.Sign() == 0 {
			return errors.WithMessagef(reverts.ErrInvalidAmount, "%v buys no shares at %v", gross, r)
		}
		if err := p.sharesService.Register(caller); err != nil {
			return err
		}
		return p.issueDeposit(d)
	})
	if err != nil {
		logger.Debug("stake failed", "caller", caller, "attached", attached, "err", err)
		return nil, err
	}

	logger.Info("stake issued",
		"id", d.ID,
		"caller", caller,
		"gross", d.Gross,
		"shares", d.Shares,
		"feeShares", d.FeeShares,
	)
	p.publishDeposit(EventDepositIssued, d)
	return p.dispatchDeposit(ctx, d)
}

// issueDeposit mints the unconfirmed shares of d, adds its gross value to the
// staked value and persists it. Storage credit is consumed last.
func (p *Pool) issueDeposit(d *deposits.Deposit) error {
	if err := p.sharesService.Hold(d.Beneficiary, d.Shares); err != nil {
		return err
	}
	if d.FeeShares.Sign() > 0 {
		if err := p.sharesService.Hold(d.Treasury, d.FeeShares); err != nil {
			return err
		}
	}
	if err := p.sharesService.AdjustStakedValue(d.Gross); err != nil {
		return err
	}
	if err := p.depositsService.Issue(d); err != nil {
		return err
	}
	if d.Credit.Sign() > 0 {
		if err := p.deps.Registry.ConsumeCredit(d.Account, d.Credit); err != nil {
			return errors.Wrap(err, "failed to consume storage credit")
		}
	}
	return nil
}

// dispatchDeposit sends the committed deposit d to the mechanism. A deposit the
// mechanism refuses outright is rolled back at once.
func (p *Pool) dispatchDeposit(ctx context.Context, d *deposits.Deposit) (*Receipt, error) {
	cause := p.deps.Mechanism.DepositAndStake(ctx, d.ID, d.Gross)
	if cause == nil {
		return newReceipt(d), nil
	}
	logger.Warn("deposit refused, rolling back", "id", d.ID, "account", d.Account, "err", cause)
	if err := p.rollback(d); err != nil {
		logger.Error("rollback failed", "id", d.ID, "err", err)
		return nil, errors.Wrapf(err, "failed to roll back deposit %d", d.ID)
	}
	return nil, errors.WithMessage(reverts.ErrExternalConfirmationFailed, cause.Error())
}

// Redispatch sends every unresolved instruction to the mechanism again, for
// a mechanism that lost its queue across a restart or failed a withdraw.
// Deposits refused outright are rolled back; withdraws refused outright stay
// on record. It returns how many were sent.
func (p *Pool) Redispatch(ctx context.Context) (n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { observeOperation("redispatch", err) }()

	pending, err := p.depositsService.Pending(math.MaxInt)
	if err != nil {
		return 0, err
	}
	for _, d := range pending {
		if _, err := p.dispatchDeposit(ctx, d); err != nil {
			if reverts.IsRevertErr(err) {
				continue
			}
			return n, err
		}
		n++
	}

	withdraws, err := p.depositsService.Withdraws(math.MaxInt)
	if err != nil {
		return n, err
	}
	for _, w := range withdraws {
		if err := p.deps.Mechanism.Withdraw(ctx, w.ID, w.Amount); err != nil {
			logger.Warn("withdraw refused on redispatch", "id", w.ID, "amount", w.Amount, "err", err)
			continue
		}
		if w.Status == deposits.StatusFailed {
			if err := p.atomic(func() error {
				return p.depositsService.SetWithdrawStatus(w, deposits.StatusIssued)
			}); err != nil {
				return n, err
			}
		}
		n++
	}
	if total := len(pending) + len(withdraws); total > 0 {
		logger.Info("pending instructions redispatched", "sent", n, "pending", total)
	}
	return n, nil
}

// rollback applies the compensation of d: the unconfirmed shares are burnt and
// the gross value leaves the staked value. A restake goes back to its pending
// withdrawal; otherwise the attached value is refunded and the storage credit
// restored once the ledger is committed.
func (p *Pool) rollback(d *deposits.Deposit) error {
	c := deposits.Rollback(d)
	err := p.atomic(func() error {
		for _, r := range c.Revokes {
			if err := p.sharesService.Revoke(r.Account, r.Shares); err != nil {
				return err
			}
		}
		if err := p.sharesService.AdjustStakedValue(new(big.Int).Neg(c.StakedValue)); err != nil {
			return errors.WithMessagef(err, "roll back %v of deposit %d", c.StakedValue, d.ID)
		}
		if err := p.depositsService.Resolve(d); err != nil {
			return err
		}
		if c.Restore {
			if err := p.sharesService.AdjustUnstaked(c.Refund); err != nil {
				return err
			}
			_, err := p.withdrawalsService.Add(c.RefundTo, c.Refund, c.UnlockEpoch)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.publishDeposit(EventDepositRolledBack, d)
	if !c.Restore {
		p.refund(d.ID, c)
	}
	return nil
}

// refund pays out the compensation c of a committed rollback. Credit the
// registry refuses is paid with the refund. A refund the bank refuses is
// booked as a withdrawal unlocked at once, so it is neither lost nor paid twice.
func (p *Pool) refund(id deposits.ID, c *deposits.Compensation) {
	amount := new(big.Int).Set(c.Refund)
	if c.Credit.Sign() > 0 {
		if err := p.deps.Registry.RestoreCredit(c.RefundTo, c.Credit); err != nil {
			logger.Warn("storage credit not restored, refunding value", "id", id, "account", c.RefundTo, "credit", c.Credit, "err", err)
			amount.Add(amount, c.Credit)
		}
	}
	if amount.Sign() == 0 {
		return
	}
	cause := p.deps.Bank.Transfer(c.RefundTo, amount)
	if cause == nil {
		return
	}
	logger.Error("refund failed, booking withdrawal", "id", id, "account", c.RefundTo, "amount", amount, "err", cause)
	err := p.atomic(func() error {
		if err := p.sharesService.AdjustUnstaked(amount); err != nil {
			return err
		}
		_, err := p.withdrawalsService.Add(c.RefundTo, amount, p.deps.Clock.Epoch())
		return err
	})
	if err != nil {
		logger.Error("failed to book refund", "id", id, "account", c.RefundTo, "amount", amount, "err", err)
	}
}

// Confirm applies the outcome of an instruction issued earlier. Deposits are
// settled or rolled back. A confirmed withdraw is resolved; a failed one stays
// on record, still held by the mechanism, until Redispatch gets it through.
func (p *Pool) Confirm(c Confirmation) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	observeConfirmation(c.Op, c.Err)

	if c.Op == OpWithdraw {
		return p.confirmWithdraw(c)
	}

	d, err := p.depositsService.Get(c.ID)
	if err != nil {
		return err
	}
	if d == nil {
		logger.Warn("confirmation of unknown deposit", "id", c.ID)
		return nil
	}

	if c.Err != nil {
		logger.Warn("deposit failed, rolling back", "id", d.ID, "account", d.Account, "err", c.Err)
		if err := p.rollback(d); err != nil {
			logger.Error("rollback failed", "id", d.ID, "err", err)
			return err
		}
		logger.Info("deposit rolled back", "id", d.ID, "refundTo", d.Account, "refund", d.Attached, "credit", d.Credit)
		return nil
	}

	err = p.atomic(func() error {
		if err := p.sharesService.Release(d.Beneficiary, d.Shares); err != nil {
			return err
		}
		if d.FeeShares.Sign() > 0 {
			if err := p.sharesService.Release(d.Treasury, d.FeeShares); err != nil {
				return err
			}
		}
		return p.depositsService.Resolve(d)
	})
	if err != nil {
		logger.Error("failed to settle deposit", "id", d.ID, "err", err)
		return err
	}
	logger.Info("deposit confirmed", "id", d.ID, "account", d.Beneficiary, "shares", d.Shares)
	p.publishDeposit(EventDepositConfirmed, d)
	return nil
}

func (p *Pool) confirmWithdraw(c Confirmation) error {
	w, err := p.depositsService.GetWithdraw(c.ID)
	if err != nil {
		return err
	}
	if w == nil {
		logger.Warn("confirmation of unknown withdraw", "id", c.ID)
		return nil
	}
	err = p.atomic(func() error {
		if c.Err != nil {
			return p.depositsService.SetWithdrawStatus(w, deposits.StatusFailed)
		}
		return p.depositsService.ResolveWithdraw(w)
	})
	if err != nil {
		logger.Error("failed to apply withdraw confirmation", "id", w.ID, "err", err)
		return err
	}
	if c.Err != nil {
		logger.Error("withdraw failed at mechanism", "id", w.ID, "account", w.Account, "amount", w.Amount, "err", c.Err)
		p.publish(&Event{Kind: EventWithdrawFailed, Account: w.Account, Deposit: w.ID, Value: w.Amount})
		return nil
	}
	logger.Debug("withdraw confirmed", "id", w.ID, "amount", w.Amount)
	return nil
}
