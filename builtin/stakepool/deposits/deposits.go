// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package deposits persists deposits issued to the staking mechanism until
// their confirmation resolves them.
package deposits

import (
	"encoding/binary"
	"math/big"

	"github.com/vechain/stakepool/thor"
)

// Kind tells who received the shares of a deposit.
type Kind uint8

const (
	KindStake    Kind = iota // shares to the depositor, fee shares to the treasury
	KindTreasury             // shares to the treasury
	KindRestake              // shares to the depositor, funded by its pending withdrawal
)

func (k Kind) String() string {
	switch k {
	case KindStake:
		return "stake"
	case KindTreasury:
		return "treasury"
	case KindRestake:
		return "restake"
	}
	return "unknown"
}

// Status of a persisted instruction. Resolved ones are deleted.
type Status uint8

const (
	StatusIssued Status = iota + 1
	StatusFailed        // withdraw only, the mechanism still holds the value
)

// ID identifies an operation issued to the staking mechanism.
type ID uint64

// Bytes implements slot.Key.
func (id ID) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

// Deposit is the persisted record of an optimistic stake.
type Deposit struct {
	ID          ID
	Kind        Kind
	Status      Status
	Account     thor.Address // depositor, refunded on failure
	Beneficiary thor.Address // holder of Shares
	Treasury    thor.Address // holder of FeeShares
	Gross       *big.Int     // value added to total_staked_value
	Attached    *big.Int     // refunded on failure
	Credit      *big.Int     // storage credit consumed, restored on failure
	Shares      *big.Int
	FeeShares   *big.Int
	Epoch       uint64
	UnlockEpoch uint64 // restake only, of the withdrawal it was funded by
}

// Withdraw is the persisted record of a withdraw instruction. Its amount is
// counted as held by the mechanism until a successful confirmation resolves it.
type Withdraw struct {
	ID      ID
	Status  Status
	Account thor.Address // beneficiary of the unstake
	Amount  *big.Int
}

// Revoke burns unconfirmed shares of one account.
type Revoke struct {
	Account thor.Address
	Shares  *big.Int
}

// Compensation undoes a deposit whose confirmation failed. The attached value
// is transferred back to RefundTo and the consumed storage credit returned to
// it. With Restore set the refund goes back into the pending withdrawal of
// RefundTo, unlocking at UnlockEpoch, instead of being transferred.
type Compensation struct {
	Revokes     []Revoke
	StakedValue *big.Int // to subtract from total_staked_value
	RefundTo    thor.Address
	Refund      *big.Int
	Credit      *big.Int
	Restore     bool
	UnlockEpoch uint64
}

// Rollback computes the compensation of d. It depends on nothing but d.
func Rollback(d *Deposit) *Compensation {
	c := &Compensation{
		StakedValue: new(big.Int).Set(d.Gross),
		RefundTo:    d.Account,
		Refund:      new(big.Int).Set(d.Attached),
		Credit:      new(big.Int).Set(d.Credit),
	}
	if d.Kind == KindRestake {
		c.Refund.Set(d.Gross)
		c.Restore = true
		c.UnlockEpoch = d.UnlockEpoch
	}
	if d.Shares.Sign() > 0 {
		c.Revokes = append(c.Revokes, Revoke{d.Beneficiary, new(big.Int).Set(d.Shares)})
	}
	if d.FeeShares.Sign() > 0 {
		c.Revokes = append(c.Revokes, Revoke{d.Treasury, new(big.Int).Set(d.FeeShares)})
	}
	return c
}
