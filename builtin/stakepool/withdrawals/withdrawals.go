// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package withdrawals

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/slot"
	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/thor"
)

// Withdrawal is the unstaked value of an account waiting for its unlock epoch.
type Withdrawal struct {
	Amount      *big.Int
	UnlockEpoch uint64
}

// IsEmpty returns whether nothing is pending.
func (w *Withdrawal) IsEmpty() bool {
	return w.Amount == nil || w.Amount.Sign() == 0
}

// Unlocked returns whether the withdrawal can be paid out at epoch.
func (w *Withdrawal) Unlocked(epoch uint64) bool {
	return epoch >= w.UnlockEpoch
}

// Service keeps at most one pending withdrawal per account.
type Service struct {
	records *slot.Mapping[thor.Address, *Withdrawal]
}

func New(sctx *slot.Context) *Service {
	return &Service{
		records: slot.NewMapping[thor.Address, *Withdrawal](sctx, thor.KeyWithdrawals),
	}
}

// Get returns the pending withdrawal of addr, an empty one if there is none.
func (s *Service) Get(addr thor.Address) (*Withdrawal, error) {
	w, err := s.records.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get withdrawal")
	}
	if w.Amount == nil {
		w.Amount = new(big.Int)
	}
	return w, nil
}

// Add merges amount into the pending withdrawal of addr. The unlock epoch
// becomes the later of the existing one and unlockEpoch.
func (s *Service) Add(addr thor.Address, amount *big.Int, unlockEpoch uint64) (*Withdrawal, error) {
	w, err := s.Get(addr)
	if err != nil {
		return nil, err
	}
	w.Amount.Add(w.Amount, amount)
	if !thor.IsValidAmount(w.Amount) {
		return nil, errors.WithMessage(reverts.ErrInvalidAmount, "pending withdrawal overflow")
	}
	w.UnlockEpoch = max(w.UnlockEpoch, unlockEpoch)
	if err := s.records.Set(addr, w); err != nil {
		return nil, errors.Wrap(err, "failed to set withdrawal")
	}
	return w, nil
}

// Sub takes amount out of the pending withdrawal of addr and deletes the
// record when nothing is left.
func (s *Service) Sub(addr thor.Address, amount *big.Int) (*Withdrawal, error) {
	w, err := s.Get(addr)
	if err != nil {
		return nil, err
	}
	if amount.Cmp(w.Amount) > 0 {
		return nil, errors.WithMessagef(reverts.ErrInsufficientUnlockedBalance, "requested %v, pending %v", amount, w.Amount)
	}
	w.Amount.Sub(w.Amount, amount)
	if w.IsEmpty() {
		s.records.Delete(addr)
		return w, nil
	}
	if err := s.records.Set(addr, w); err != nil {
		return nil, errors.Wrap(err, "failed to set withdrawal")
	}
	return w, nil
}

// Put replaces the pending withdrawal of addr, deleting the record when w is empty.
func (s *Service) Put(addr thor.Address, w *Withdrawal) error {
	if w.IsEmpty() {
		s.records.Delete(addr)
		return nil
	}
	if err := s.records.Set(addr, w); err != nil {
		return errors.Wrap(err, "failed to set withdrawal")
	}
	return nil
}
