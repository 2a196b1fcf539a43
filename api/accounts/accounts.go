// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/thor"
)

type Accounts struct {
	pool *stakepool.Pool
}

func New(pool *stakepool.Pool) *Accounts {
	return &Accounts{pool}
}

func (a *Accounts) account(w http.ResponseWriter, addr thor.Address) error {
	acc, err := a.pool.AccountBalances(addr)
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, convertAccount(acc))
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(err)
	}
	return a.account(w, addr)
}

func (a *Accounts) handleGetValueWithEarnings(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(err)
	}
	value, err := a.pool.TokenValueWithPendingEarnings(req.Context(), addr)
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, &Value{utils.Amount(value)})
}

func (a *Accounts) handleStake(w http.ResponseWriter, req *http.Request) error {
	addr, body, err := parseAmountRequest(req)
	if err != nil {
		return err
	}
	receipt, err := a.pool.Stake(req.Context(), addr, utils.BigInt(body.Amount))
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, ConvertReceipt(receipt))
}

func (a *Accounts) handleUnstake(w http.ResponseWriter, req *http.Request) error {
	addr, body, err := parseAmountRequest(req)
	if err != nil {
		return err
	}
	receipt, err := a.pool.Unstake(req.Context(), addr, utils.BigInt(body.Amount))
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, ConvertUnstakeReceipt(receipt))
}

func (a *Accounts) handleRestake(w http.ResponseWriter, req *http.Request) error {
	addr, body, err := parseAmountRequest(req)
	if err != nil {
		return err
	}
	receipt, err := a.pool.Restake(req.Context(), addr, utils.BigInt(body.Amount))
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, ConvertReceipt(receipt))
}

func (a *Accounts) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	addr, body, err := parseAmountRequest(req)
	if err != nil {
		return err
	}
	paid, err := a.pool.Withdraw(addr, utils.BigInt(body.Amount))
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, &Withdrawal{utils.Amount(paid)})
}

func (a *Accounts) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(err)
	}
	var body TransferBody
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := a.pool.TransferShares(addr, body.To, utils.BigInt(body.Amount)); err != nil {
		return utils.PoolError(err)
	}
	return a.account(w, addr)
}

func (a *Accounts) handleRegister(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(err)
	}
	if err := a.pool.Register(addr); err != nil {
		return utils.PoolError(err)
	}
	return a.account(w, addr)
}

func (a *Accounts) handleUnregister(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(err)
	}
	if err := a.pool.Unregister(addr); err != nil {
		return utils.PoolError(err)
	}
	return a.account(w, addr)
}

// parseAmountRequest reads the path address and an optional amount body.
func parseAmountRequest(req *http.Request) (thor.Address, *AmountBody, error) {
	addr, err := utils.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return thor.Address{}, nil, utils.BadRequest(err)
	}
	var body AmountBody
	if req.ContentLength != 0 {
		if err := utils.ParseJSON(req.Body, &body); err != nil {
			return thor.Address{}, nil, utils.BadRequest(errors.WithMessage(err, "body"))
		}
	}
	return addr, &body, nil
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("accounts_get_account").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/value-with-earnings").
		Methods(http.MethodGet).
		Name("accounts_get_value_with_earnings").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetValueWithEarnings))
	sub.Path("/{address}/stake").
		Methods(http.MethodPost).
		Name("accounts_post_stake").
		HandlerFunc(utils.WrapHandlerFunc(a.handleStake))
	sub.Path("/{address}/unstake").
		Methods(http.MethodPost).
		Name("accounts_post_unstake").
		HandlerFunc(utils.WrapHandlerFunc(a.handleUnstake))
	sub.Path("/{address}/restake").
		Methods(http.MethodPost).
		Name("accounts_post_restake").
		HandlerFunc(utils.WrapHandlerFunc(a.handleRestake))
	sub.Path("/{address}/withdraw").
		Methods(http.MethodPost).
		Name("accounts_post_withdraw").
		HandlerFunc(utils.WrapHandlerFunc(a.handleWithdraw))
	sub.Path("/{address}/transfer").
		Methods(http.MethodPost).
		Name("accounts_post_transfer").
		HandlerFunc(utils.WrapHandlerFunc(a.handleTransfer))
	sub.Path("/{address}/register").
		Methods(http.MethodPost).
		Name("accounts_post_register").
		HandlerFunc(utils.WrapHandlerFunc(a.handleRegister))
	sub.Path("/{address}/unregister").
		Methods(http.MethodPost).
		Name("accounts_post_unregister").
		HandlerFunc(utils.WrapHandlerFunc(a.handleUnregister))
}
