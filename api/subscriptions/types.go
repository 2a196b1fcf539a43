// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/thor"
)

type EventMessage struct {
	Seq      uint64                `json:"seq"`
	Kind     stakepool.EventKind   `json:"kind"`
	Epoch    uint64                `json:"epoch"`
	Account  thor.Address          `json:"account"`
	Receiver *thor.Address         `json:"receiver,omitempty"`
	Deposit  uint64                `json:"deposit,omitempty"`
	Value    *math.HexOrDecimal256 `json:"value,omitempty"`
	Shares   *math.HexOrDecimal256 `json:"shares,omitempty"`
	Command  string                `json:"command,omitempty"`
}

func convertEvent(ev *stakepool.Event) *EventMessage {
	msg := &EventMessage{
		Seq:     ev.Seq,
		Kind:    ev.Kind,
		Epoch:   ev.Epoch,
		Account: ev.Account,
		Deposit: uint64(ev.Deposit),
		Value:   utils.Amount(ev.Value),
		Shares:  utils.Amount(ev.Shares),
		Command: ev.Command,
	}
	if !ev.Receiver.IsZero() {
		receiver := ev.Receiver
		msg.Receiver = &receiver
	}
	return msg
}
