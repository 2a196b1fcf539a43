// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"context"
	"math/big"

	"github.com/vechain/stakepool/builtin/stakepool/deposits"
	"github.com/vechain/stakepool/thor"
)

// Capability names an operator action guarded by the Gate.
type Capability string

const (
	CapStartStaking            Capability = "start-staking"
	CapStopStaking             Capability = "stop-staking"
	CapUpdateFees              Capability = "update-fees"
	CapTreasuryDistribute      Capability = "treasury-distribute"
	CapTreasuryTransferToOwner Capability = "treasury-transfer-to-owner"
)

// Capabilities lists every known capability.
var Capabilities = []Capability{
	CapStartStaking,
	CapStopStaking,
	CapUpdateFees,
	CapTreasuryDistribute,
	CapTreasuryTransferToOwner,
}

// Gate answers capability checks for operator actions.
type Gate interface {
	IsAuthorized(account thor.Address, capability Capability) (bool, error)
}

// Registry is the host's account registration and storage credit book.
// RestoreCredit gives back credit consumed by a deposit that was rolled back.
type Registry interface {
	IsRegistered(account thor.Address) (bool, error)
	AvailableCredit(account thor.Address) (*big.Int, error)
	ConsumeCredit(account thor.Address, amount *big.Int) error
	RestoreCredit(account thor.Address, amount *big.Int) error
}

// Mechanism is the external staking mechanism. Deposit and withdraw
// instructions return once issued; their outcome arrives later as a Confirmation.
type Mechanism interface {
	DepositAndStake(ctx context.Context, id deposits.ID, amount *big.Int) error
	Withdraw(ctx context.Context, id deposits.ID, amount *big.Int) error
	ReportedStakedValue(ctx context.Context) (*big.Int, error)
}

// Op is the kind of instruction a Confirmation answers.
type Op uint8

const (
	OpDeposit Op = iota
	OpWithdraw
)

func (op Op) String() string {
	switch op {
	case OpDeposit:
		return "deposit"
	case OpWithdraw:
		return "withdraw"
	}
	return "unknown"
}

// Confirmation is the outcome of an issued instruction. A nil Err means success.
type Confirmation struct {
	ID  deposits.ID
	Op  Op
	Err error
}

// Bank moves base asset out of the pool on the host ledger.
type Bank interface {
	Transfer(to thor.Address, amount *big.Int) error
}

// Clock reports the current epoch.
type Clock interface {
	Epoch() uint64
}

// Deps bundles the collaborators of a Pool.
type Deps struct {
	Gate      Gate
	Registry  Registry
	Mechanism Mechanism
	Bank      Bank
	Clock     Clock
}
