// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/stakepool/fees"
	"github.com/vechain/stakepool/thor"
)

// Status of the pool. Offline blocks stake and restake only.
type Status uint8

const (
	StatusOffline Status = iota
	StatusOnline
)

func (s Status) String() string {
	switch s {
	case StatusOffline:
		return "offline"
	case StatusOnline:
		return "online"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "offline":
		*s = StatusOffline
	case "online":
		*s = StatusOnline
	default:
		return errors.Errorf("unknown pool status %q", text)
	}
	return nil
}

// Command is an operator action.
type Command uint8

const (
	CommandStartStaking Command = iota + 1
	CommandStopStaking
	CommandUpdateFees
)

func (c Command) String() string {
	switch c {
	case CommandStartStaking:
		return "start-staking"
	case CommandStopStaking:
		return "stop-staking"
	case CommandUpdateFees:
		return "update-fees"
	}
	return "unknown"
}

// ParseCommand parses the String form of a command.
func ParseCommand(s string) (Command, error) {
	for _, c := range []Command{CommandStartStaking, CommandStopStaking, CommandUpdateFees} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, errors.Errorf("unknown operator command %q", s)
}

func (c Command) capability() (Capability, error) {
	switch c {
	case CommandStartStaking:
		return CapStartStaking, nil
	case CommandStopStaking:
		return CapStopStaking, nil
	case CommandUpdateFees:
		return CapUpdateFees, nil
	}
	return "", errors.Errorf("unknown operator command %d", c)
}

// OperatorCommand carries a command and, for CommandUpdateFees, the new rates.
type OperatorCommand struct {
	Command Command
	Fees    fees.Config
}

// Status returns the pool status.
func (p *Pool) Status() (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.getStatus()
}

// OperatorCommand applies cmd on behalf of an authorized caller.
func (p *Pool) OperatorCommand(caller thor.Address, cmd OperatorCommand) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { observeOperation(cmd.Command.String(), err) }()

	capability, err := cmd.Command.capability()
	if err != nil {
		return err
	}

	logger.Debug("operator command", "caller", caller, "command", cmd.Command)
	err = p.atomic(func() error {
		if err := p.authorize(caller, capability); err != nil {
			return err
		}
		switch cmd.Command {
		case CommandStartStaking:
			return p.setStatus(StatusOnline)
		case CommandStopStaking:
			return p.setStatus(StatusOffline)
		default:
			return p.feesService.Set(&cmd.Fees)
		}
	})
	if err != nil {
		logger.Debug("operator command failed", "caller", caller, "command", cmd.Command, "err", err)
		return err
	}
	logger.Info("operator command applied", "caller", caller, "command", cmd.Command)
	p.publish(&Event{Kind: EventCommandApplied, Account: caller, Command: cmd.Command.String()})
	return nil
}

func (p *Pool) setStatus(status Status) error {
	if err := p.status.Set(status); err != nil {
		return errors.Wrap(err, "failed to set status")
	}
	return nil
}
