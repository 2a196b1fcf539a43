// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/builtin/stakepool/deposits"
	"github.com/vechain/stakepool/builtin/stakepool/fees"
	"github.com/vechain/stakepool/thor"
)

type Status struct {
	Status stakepool.Status `json:"status"`
}

type Balances struct {
	StakedValue         *math.HexOrDecimal256 `json:"stakedValue"`
	TotalShares         *math.HexOrDecimal256 `json:"totalShares"`
	UnstakedAvailable   *math.HexOrDecimal256 `json:"unstakedAvailable"`
	PendingDepositValue *math.HexOrDecimal256 `json:"pendingDepositValue"`
	WithdrawingValue    *math.HexOrDecimal256 `json:"withdrawingValue"`
	Rate                string                `json:"rate"`
}

func convertBalances(b *stakepool.Balances) *Balances {
	return &Balances{
		StakedValue:         utils.Amount(b.StakedValue),
		TotalShares:         utils.Amount(b.TotalShares),
		UnstakedAvailable:   utils.Amount(b.UnstakedAvailable),
		PendingDepositValue: utils.Amount(b.PendingDepositValue),
		WithdrawingValue:    utils.Amount(b.WithdrawingValue),
		Rate:                b.Rate.String(),
	}
}

type TokenValue struct {
	Shares *math.HexOrDecimal256 `json:"shares"`
	Value  *math.HexOrDecimal256 `json:"value"`
}

type Deposit struct {
	ID          uint64                `json:"id"`
	Kind        string                `json:"kind"`
	Account     thor.Address          `json:"account"`
	Beneficiary thor.Address          `json:"beneficiary"`
	Gross       *math.HexOrDecimal256 `json:"gross"`
	Shares      *math.HexOrDecimal256 `json:"shares"`
	FeeShares   *math.HexOrDecimal256 `json:"feeShares"`
	Epoch       uint64                `json:"epoch"`
}

func convertDeposit(d *deposits.Deposit) *Deposit {
	return &Deposit{
		ID:          uint64(d.ID),
		Kind:        d.Kind.String(),
		Account:     d.Account,
		Beneficiary: d.Beneficiary,
		Gross:       utils.Amount(d.Gross),
		Shares:      utils.Amount(d.Shares),
		FeeShares:   utils.Amount(d.FeeShares),
		Epoch:       d.Epoch,
	}
}

// OperatorCommand is the body of POST /pool/operator.
type OperatorCommand struct {
	Caller  thor.Address `json:"caller"`
	Command string       `json:"command"`
	Fees    *fees.Config `json:"fees,omitempty"`
}
