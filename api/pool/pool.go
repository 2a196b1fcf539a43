// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/thor"
)

const defaultDepositsLimit = 100

type Pool struct {
	pool *stakepool.Pool
}

func New(pool *stakepool.Pool) *Pool {
	return &Pool{pool}
}

func (p *Pool) handleGetStatus(w http.ResponseWriter, _ *http.Request) error {
	status, err := p.pool.Status()
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, &Status{status})
}

func (p *Pool) handleGetBalances(w http.ResponseWriter, _ *http.Request) error {
	b, err := p.pool.Balances()
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, convertBalances(b))
}

func (p *Pool) handleGetFees(w http.ResponseWriter, _ *http.Request) error {
	cfg, err := p.pool.Fees()
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, cfg)
}

func (p *Pool) handleGetTokenValue(w http.ResponseWriter, req *http.Request) error {
	shares, err := utils.ParseAmount(req.URL.Query().Get("shares"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "shares"))
	}
	value, err := p.pool.TokenValue(shares)
	if err != nil {
		return utils.PoolError(err)
	}
	if shares == nil {
		shares = thor.ShareUnit
	}
	return utils.WriteJSON(w, &TokenValue{
		Shares: utils.Amount(shares),
		Value:  utils.Amount(value),
	})
}

func (p *Pool) handleGetPendingDeposits(w http.ResponseWriter, req *http.Request) error {
	limit := defaultDepositsLimit
	if s := req.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return utils.BadRequest(errors.New("limit: positive integer expected"))
		}
		limit = n
	}
	pending, err := p.pool.PendingDeposits(limit)
	if err != nil {
		return utils.PoolError(err)
	}
	out := make([]*Deposit, 0, len(pending))
	for _, d := range pending {
		out = append(out, convertDeposit(d))
	}
	return utils.WriteJSON(w, out)
}

func (p *Pool) handleOperatorCommand(w http.ResponseWriter, req *http.Request) error {
	var body OperatorCommand
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	cmd, err := stakepool.ParseCommand(body.Command)
	if err != nil {
		return utils.BadRequest(err)
	}
	op := stakepool.OperatorCommand{Command: cmd}
	if cmd == stakepool.CommandUpdateFees {
		if body.Fees == nil {
			return utils.BadRequest(errors.New("fees: required by update-fees"))
		}
		op.Fees = *body.Fees
	}
	if err := p.pool.OperatorCommand(body.Caller, op); err != nil {
		return utils.PoolError(err)
	}
	status, err := p.pool.Status()
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, &Status{status})
}

func (p *Pool) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/status").
		Methods(http.MethodGet).
		Name("pool_get_status").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetStatus))
	sub.Path("/balances").
		Methods(http.MethodGet).
		Name("pool_get_balances").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetBalances))
	sub.Path("/fees").
		Methods(http.MethodGet).
		Name("pool_get_fees").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetFees))
	sub.Path("/token-value").
		Methods(http.MethodGet).
		Name("pool_get_token_value").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetTokenValue))
	sub.Path("/deposits/pending").
		Methods(http.MethodGet).
		Name("pool_get_pending_deposits").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPendingDeposits))
	sub.Path("/operator").
		Methods(http.MethodPost).
		Name("pool_post_operator_command").
		HandlerFunc(utils.WrapHandlerFunc(p.handleOperatorCommand))
}
