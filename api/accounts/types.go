// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/thor"
)

type Account struct {
	Registered        bool                  `json:"registered"`
	Shares            *math.HexOrDecimal256 `json:"shares"`
	Unconfirmed       *math.HexOrDecimal256 `json:"unconfirmed"`
	Value             *math.HexOrDecimal256 `json:"value"`
	PendingWithdrawal *math.HexOrDecimal256 `json:"pendingWithdrawal"`
	UnlockEpoch       uint64                `json:"unlockEpoch"`
}

func convertAccount(a *stakepool.AccountBalances) *Account {
	return &Account{
		Registered:        a.Registered,
		Shares:            utils.Amount(a.Shares),
		Unconfirmed:       utils.Amount(a.Unconfirmed),
		Value:             utils.Amount(a.Value),
		PendingWithdrawal: utils.Amount(a.PendingWithdrawal),
		UnlockEpoch:       a.UnlockEpoch,
	}
}

// AmountBody carries an optional amount. A missing amount means everything
// for unstake, restake and withdraw.
type AmountBody struct {
	Amount *math.HexOrDecimal256 `json:"amount,omitempty"`
}

type TransferBody struct {
	To     thor.Address          `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type Receipt struct {
	ID        uint64                `json:"id"`
	Gross     *math.HexOrDecimal256 `json:"gross"`
	Shares    *math.HexOrDecimal256 `json:"shares"`
	FeeShares *math.HexOrDecimal256 `json:"feeShares"`
}

func ConvertReceipt(r *stakepool.Receipt) *Receipt {
	return &Receipt{
		ID:        uint64(r.ID),
		Gross:     utils.Amount(r.Gross),
		Shares:    utils.Amount(r.Shares),
		FeeShares: utils.Amount(r.FeeShares),
	}
}

type UnstakeReceipt struct {
	ID                uint64                `json:"id"`
	Shares            *math.HexOrDecimal256 `json:"shares"`
	Value             *math.HexOrDecimal256 `json:"value"`
	PendingWithdrawal *math.HexOrDecimal256 `json:"pendingWithdrawal"`
	UnlockEpoch       uint64                `json:"unlockEpoch"`
}

func ConvertUnstakeReceipt(r *stakepool.UnstakeReceipt) *UnstakeReceipt {
	return &UnstakeReceipt{
		ID:                uint64(r.ID),
		Shares:            utils.Amount(r.Shares),
		Value:             utils.Amount(r.Value),
		PendingWithdrawal: utils.Amount(r.Withdrawal.Amount),
		UnlockEpoch:       r.Withdrawal.UnlockEpoch,
	}
}

type Withdrawal struct {
	Paid *math.HexOrDecimal256 `json:"paid"`
}

type Value struct {
	Value *math.HexOrDecimal256 `json:"value"`
}
