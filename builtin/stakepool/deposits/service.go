// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package deposits

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/slot"
	"github.com/vechain/stakepool/thor"
)

// Service stores issued deposit and withdraw instructions keyed by
// sequential IDs.
type Service struct {
	records     *slot.Mapping[ID, *Deposit]
	withdraws   *slot.Mapping[ID, *Withdraw]
	nonce       *slot.Raw[uint64] // last ID handed out
	low         *slot.Raw[uint64] // lowest ID that may still be pending
	pending     *slot.Uint        // sum of Gross over issued deposits
	withdrawing *slot.Uint        // sum of Amount over withdraw records
}

func New(sctx *slot.Context) *Service {
	return &Service{
		records:     slot.NewMapping[ID, *Deposit](sctx, thor.KeyDeposits),
		withdraws:   slot.NewMapping[ID, *Withdraw](sctx, thor.KeyWithdraws),
		nonce:       slot.NewRaw[uint64](sctx, thor.KeyDepositNonce),
		low:         slot.NewRaw[uint64](sctx, thor.Blake2b(thor.KeyDepositNonce.Bytes(), []byte("low"))),
		pending:     slot.NewUint(sctx, thor.KeyPendingValue),
		withdrawing: slot.NewUint(sctx, thor.KeyWithdrawing),
	}
}

// NextID hands out a new operation ID.
func (s *Service) NextID() (ID, error) {
	n, err := s.nonce.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get deposit nonce")
	}
	n++
	if err := s.nonce.Set(n); err != nil {
		return 0, errors.Wrap(err, "failed to set deposit nonce")
	}
	return ID(n), nil
}

// Issue assigns an ID to d and stores it as issued.
func (s *Service) Issue(d *Deposit) error {
	id, err := s.NextID()
	if err != nil {
		return err
	}
	d.ID = id
	d.Status = StatusIssued
	if err := s.records.Set(id, d); err != nil {
		return errors.Wrap(err, "failed to set deposit")
	}
	if err := s.pending.Add(d.Gross); err != nil {
		return errors.Wrap(err, "failed to add pending value")
	}
	return nil
}

// Get returns the issued deposit with id, or nil if there is none.
func (s *Service) Get(id ID) (*Deposit, error) {
	exists, err := s.records.Exists(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get deposit")
	}
	if !exists {
		return nil, nil
	}
	d, err := s.records.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get deposit")
	}
	return d, nil
}

// Resolve deletes the deposit once its confirmation has been applied.
func (s *Service) Resolve(d *Deposit) error {
	s.records.Delete(d.ID)
	if err := s.pending.Sub(d.Gross); err != nil {
		return errors.Wrap(err, "failed to sub pending value")
	}
	return s.advanceLow()
}

// advanceLow moves the scan start past resolved IDs.
func (s *Service) advanceLow() error {
	low, err := s.low.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get deposit low")
	}
	nonce, err := s.nonce.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get deposit nonce")
	}
	low = max(low, 1)
	for ; low <= nonce; low++ {
		exists, err := s.records.Exists(ID(low))
		if err != nil {
			return errors.Wrap(err, "failed to get deposit")
		}
		if exists {
			break
		}
		if exists, err = s.withdraws.Exists(ID(low)); err != nil {
			return errors.Wrap(err, "failed to get withdraw")
		}
		if exists {
			break
		}
	}
	if err := s.low.Set(low); err != nil {
		return errors.Wrap(err, "failed to set deposit low")
	}
	return nil
}

// PendingValue returns the value of all issued deposits.
func (s *Service) PendingValue() (*big.Int, error) {
	v, err := s.pending.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pending value")
	}
	return v, nil
}

// Pending lists issued deposits in ID order, at most limit of them.
func (s *Service) Pending(limit int) ([]*Deposit, error) {
	low, err := s.low.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get deposit low")
	}
	nonce, err := s.nonce.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get deposit nonce")
	}
	var list []*Deposit
	for id := max(low, 1); id <= nonce && len(list) < limit; id++ {
		d, err := s.Get(ID(id))
		if err != nil {
			return nil, err
		}
		if d != nil {
			list = append(list, d)
		}
	}
	return list, nil
}

// IssueWithdraw stores an issued withdraw instruction of amount under id.
func (s *Service) IssueWithdraw(id ID, account thor.Address, amount *big.Int) (*Withdraw, error) {
	w := &Withdraw{
		ID:      id,
		Status:  StatusIssued,
		Account: account,
		Amount:  new(big.Int).Set(amount),
	}
	if err := s.withdraws.Set(id, w); err != nil {
		return nil, errors.Wrap(err, "failed to set withdraw")
	}
	if err := s.withdrawing.Add(w.Amount); err != nil {
		return nil, errors.Wrap(err, "failed to add withdrawing value")
	}
	return w, nil
}

// GetWithdraw returns the withdraw instruction with id, or nil if there is none.
func (s *Service) GetWithdraw(id ID) (*Withdraw, error) {
	exists, err := s.withdraws.Exists(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get withdraw")
	}
	if !exists {
		return nil, nil
	}
	w, err := s.withdraws.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get withdraw")
	}
	return w, nil
}

// SetWithdrawStatus marks w issued again or failed. The amount stays counted.
func (s *Service) SetWithdrawStatus(w *Withdraw, status Status) error {
	w.Status = status
	if err := s.withdraws.Set(w.ID, w); err != nil {
		return errors.Wrap(err, "failed to set withdraw")
	}
	return nil
}

// ResolveWithdraw deletes w once the mechanism released its amount, or once
// the unstake it served was reverted.
func (s *Service) ResolveWithdraw(w *Withdraw) error {
	s.withdraws.Delete(w.ID)
	if err := s.withdrawing.Sub(w.Amount); err != nil {
		return errors.Wrap(err, "failed to sub withdrawing value")
	}
	return s.advanceLow()
}

// WithdrawingValue returns the amount of all withdraw instructions not yet
// released by the mechanism.
func (s *Service) WithdrawingValue() (*big.Int, error) {
	v, err := s.withdrawing.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get withdrawing value")
	}
	return v, nil
}

// Withdraws lists unresolved withdraw instructions in ID order, at most limit of them.
func (s *Service) Withdraws(limit int) ([]*Withdraw, error) {
	low, err := s.low.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get deposit low")
	}
	nonce, err := s.nonce.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get deposit nonce")
	}
	var list []*Withdraw
	for id := max(low, 1); id <= nonce && len(list) < limit; id++ {
		w, err := s.GetWithdraw(ID(id))
		if err != nil {
			return nil, err
		}
		if w != nil {
			list = append(list, w)
		}
	}
	return list, nil
}
