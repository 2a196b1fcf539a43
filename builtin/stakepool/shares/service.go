// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shares

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/slot"
	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/thor"
)

// Service is the share ledger. Balances only change through Credit, Debit,
// Hold, Release and Revoke, each of which moves total_shares by the same amount.
// The staked and unstaked counters only change through their Adjust methods.
type Service struct {
	accounts *slot.Mapping[thor.Address, *Account]
	totals   *slot.Raw[*Totals]
}

func New(sctx *slot.Context) *Service {
	return &Service{
		accounts: slot.NewMapping[thor.Address, *Account](sctx, thor.KeyAccounts),
		totals:   slot.NewRaw[*Totals](sctx, thor.KeyTotals),
	}
}

//
// Getters
//

// GetAccount returns the record of addr, a zero record if there is none.
func (s *Service) GetAccount(addr thor.Address) (*Account, error) {
	acc, err := s.accounts.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}
	return acc.normalize(), nil
}

// Exists returns whether addr has a record.
func (s *Service) Exists(addr thor.Address) (bool, error) {
	exists, err := s.accounts.Exists(addr)
	if err != nil {
		return false, errors.Wrap(err, "failed to get account")
	}
	return exists, nil
}

// Balance returns all shares of addr, including unconfirmed ones.
func (s *Service) Balance(addr thor.Address) (*big.Int, error) {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return acc.Shares, nil
}

func (s *Service) Totals() (*Totals, error) {
	totals, err := s.totals.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get totals")
	}
	return totals.normalize(), nil
}

//
// Setters
//

// Register creates the record of addr if missing.
func (s *Service) Register(addr thor.Address) error {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if acc.Registered {
		return nil
	}
	acc.Registered = true
	return s.setAccount(addr, acc)
}

// Unregister removes the record of addr. It must hold no shares.
func (s *Service) Unregister(addr thor.Address) error {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if !acc.IsEmpty() {
		return errors.WithMessagef(reverts.ErrAccountNotEmpty, "account holds %v shares", acc.Shares)
	}
	s.accounts.Delete(addr)
	return nil
}

// Credit mints amount shares to addr.
func (s *Service) Credit(addr thor.Address, amount *big.Int) error {
	return s.credit(addr, amount, false)
}

// Hold mints amount shares to addr and marks them unconfirmed.
func (s *Service) Hold(addr thor.Address, amount *big.Int) error {
	return s.credit(addr, amount, true)
}

// Debit burns amount spendable shares of addr.
func (s *Service) Debit(addr thor.Address, amount *big.Int) error {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if amount.Cmp(acc.Spendable()) > 0 {
		return errors.WithMessagef(reverts.ErrInsufficientShares, "debit %v exceeds spendable %v", amount, acc.Spendable())
	}
	acc.Shares.Sub(acc.Shares, amount)
	if err := s.setAccount(addr, acc); err != nil {
		return err
	}
	return s.adjustTotalShares(new(big.Int).Neg(amount))
}

// Release confirms amount unconfirmed shares of addr.
func (s *Service) Release(addr thor.Address, amount *big.Int) error {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if amount.Cmp(acc.Unconfirmed) > 0 {
		return errors.WithMessagef(reverts.ErrUnderflow, "release %v exceeds unconfirmed %v", amount, acc.Unconfirmed)
	}
	acc.Unconfirmed.Sub(acc.Unconfirmed, amount)
	return s.setAccount(addr, acc)
}

// Revoke burns amount unconfirmed shares of addr.
func (s *Service) Revoke(addr thor.Address, amount *big.Int) error {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if amount.Cmp(acc.Unconfirmed) > 0 {
		return errors.WithMessagef(reverts.ErrUnderflow, "revoke %v exceeds unconfirmed %v", amount, acc.Unconfirmed)
	}
	acc.Unconfirmed.Sub(acc.Unconfirmed, amount)
	acc.Shares.Sub(acc.Shares, amount)
	if err := s.setAccount(addr, acc); err != nil {
		return err
	}
	return s.adjustTotalShares(new(big.Int).Neg(amount))
}

// AdjustStakedValue adds delta to total_staked_value.
func (s *Service) AdjustStakedValue(delta *big.Int) error {
	return s.adjust(delta, func(t *Totals) *big.Int { return t.StakedValue }, "staked value")
}

// AdjustUnstaked adds delta to unstaked_available.
func (s *Service) AdjustUnstaked(delta *big.Int) error {
	return s.adjust(delta, func(t *Totals) *big.Int { return t.UnstakedAvailable }, "unstaked value")
}

func (s *Service) credit(addr thor.Address, amount *big.Int, hold bool) error {
	if amount.Sign() < 0 {
		return errors.WithMessage(reverts.ErrInvalidAmount, "negative share amount")
	}
	acc, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	acc.Shares.Add(acc.Shares, amount)
	if !thor.IsValidAmount(acc.Shares) {
		return errors.WithMessage(reverts.ErrInvalidAmount, "account shares overflow")
	}
	if hold {
		acc.Unconfirmed.Add(acc.Unconfirmed, amount)
	}
	if err := s.setAccount(addr, acc); err != nil {
		return err
	}
	return s.adjustTotalShares(amount)
}

func (s *Service) adjustTotalShares(delta *big.Int) error {
	return s.adjust(delta, func(t *Totals) *big.Int { return t.Shares }, "total shares")
}

func (s *Service) adjust(delta *big.Int, field func(*Totals) *big.Int, name string) error {
	totals, err := s.Totals()
	if err != nil {
		return err
	}
	v := field(totals)
	v.Add(v, delta)
	if v.Sign() < 0 {
		return errors.WithMessagef(reverts.ErrUnderflow, "%s would be negative", name)
	}
	if !thor.IsValidAmount(v) {
		return errors.WithMessagef(reverts.ErrInvalidAmount, "%s overflow", name)
	}
	if err := s.totals.Set(totals); err != nil {
		return errors.Wrap(err, "failed to set totals")
	}
	return nil
}

func (s *Service) setAccount(addr thor.Address, acc *Account) error {
	if err := s.accounts.Set(addr, acc); err != nil {
		return errors.Wrap(err, "failed to set account")
	}
	return nil
}
