// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/stakepool/builtin/stakepool/deposits"
	"github.com/vechain/stakepool/thor"
)

// EventKind names a committed ledger change.
type EventKind string

const (
	EventDepositIssued     EventKind = "deposit-issued"
	EventDepositConfirmed  EventKind = "deposit-confirmed"
	EventDepositRolledBack EventKind = "deposit-rolled-back"
	EventUnstaked          EventKind = "unstaked"
	EventUnstakeReverted   EventKind = "unstake-reverted"
	EventWithdrawFailed    EventKind = "withdraw-failed"
	EventWithdrawn         EventKind = "withdrawn"
	EventSharesTransferred EventKind = "shares-transferred"
	EventDistributed       EventKind = "distributed"
	EventCommandApplied    EventKind = "command-applied"
)

// Event describes a ledger change after it committed. Seq grows by one per
// event for the lifetime of the Pool value.
type Event struct {
	Seq      uint64
	Kind     EventKind
	Epoch    uint64
	Account  thor.Address
	Receiver thor.Address // shares-transferred only
	Deposit  deposits.ID  // deposit and withdraw-failed events only
	Value    *big.Int
	Shares   *big.Int
	Command  string // command-applied only
}

// SubscribeEvents delivers every event to ch. Events are sent with the pool
// locked, so ch must be drained promptly.
func (p *Pool) SubscribeEvents(ch chan<- *Event) event.Subscription {
	return p.scope.Track(p.feed.Subscribe(ch))
}

// Close ends all event subscriptions.
func (p *Pool) Close() {
	p.scope.Close()
}

func (p *Pool) publish(ev *Event) {
	p.seq++
	ev.Seq = p.seq
	ev.Epoch = p.deps.Clock.Epoch()
	p.feed.Send(ev)
}

func (p *Pool) publishDeposit(kind EventKind, d *deposits.Deposit) {
	p.publish(&Event{
		Kind:    kind,
		Account: d.Beneficiary,
		Deposit: d.ID,
		Value:   d.Gross,
		Shares:  d.Shares,
	})
}
