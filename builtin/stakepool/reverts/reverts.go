// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is a user facing failure. The call that returned it made no change.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

var (
	ErrInsufficientShares          = New("insufficient shares")
	ErrInsufficientUnlockedBalance = New("insufficient unlocked balance")
	ErrPoolOffline                 = New("pool is offline")
	ErrUnauthorized                = New("unauthorized")
	ErrInvalidAmount               = New("invalid amount")
	ErrAccountNotRegistered        = New("account not registered")
	ErrExternalConfirmationFailed  = New("external confirmation failed")
	ErrNegativeRewardDelta         = New("negative reward delta")
	ErrUnderflow                   = New("underflow")
	ErrAccountNotEmpty             = New("account not empty")

	// ErrWithdrawalNotReady is returned by withdraw before the unlock epoch.
	ErrWithdrawalNotReady = ErrInsufficientUnlockedBalance
)

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}
