// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/api"
	"github.com/vechain/stakepool/api/accounts"
	"github.com/vechain/stakepool/api/pool"
	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/builtin/stakepool/fees"
	"github.com/vechain/stakepool/builtin/stakepool/stakepooltest"
	"github.com/vechain/stakepool/metrics"
	"github.com/vechain/stakepool/thor"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

var (
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
)

func newServer(t *testing.T) (*httptest.Server, *stakepooltest.Env) {
	env := stakepooltest.NewEnv(t, stakepool.Genesis{
		Fees:   fees.Config{StakingBPS: 100, EarningsBPS: 1000},
		Online: true,
	})
	env.Registry.Register(alice, bob)

	handler, closer := api.New(env.Pool, api.Options{
		AllowedOrigins: "*",
		EnableMetrics:  true,
		ServeMetrics:   true,
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closer()
		ts.Close()
	})
	return ts, env
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) // #nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func httpPost(t *testing.T, url string, obj any) ([]byte, int) {
	var reader io.Reader
	if obj != nil {
		data, err := json.Marshal(obj)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	res, err := http.Post(url, "application/json", reader) // #nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func decode[T any](t *testing.T, body []byte) *T {
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return &v
}

func amount(v int64) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(big.NewInt(v))
}

func requireAmount(t *testing.T, expected int64, actual *math.HexOrDecimal256) {
	t.Helper()
	require.NotNil(t, actual)
	require.Equal(t, big.NewInt(expected).String(), (*big.Int)(actual).String())
}

func accountURL(ts *httptest.Server, addr thor.Address, action string) string {
	url := ts.URL + "/accounts/" + addr.String()
	if action != "" {
		url += "/" + action
	}
	return url
}

func TestPoolQueries(t *testing.T) {
	ts, _ := newServer(t)

	body, code := httpGet(t, ts.URL+"/pool/status")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, stakepool.StatusOnline, decode[pool.Status](t, body).Status)

	body, code = httpGet(t, ts.URL+"/pool/fees")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, fees.Config{StakingBPS: 100, EarningsBPS: 1000}, *decode[fees.Config](t, body))

	body, code = httpGet(t, ts.URL+"/pool/token-value")
	require.Equal(t, http.StatusOK, code)
	tv := decode[pool.TokenValue](t, body)
	assert.Equal(t, thor.ShareUnit.String(), (*big.Int)(tv.Value).String())

	body, code = httpGet(t, ts.URL+"/pool/token-value?shares=0x10")
	require.Equal(t, http.StatusOK, code)
	requireAmount(t, 16, decode[pool.TokenValue](t, body).Value)

	_, code = httpGet(t, ts.URL+"/pool/token-value?shares=abc")
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = httpGet(t, ts.URL+"/pool/deposits/pending?limit=0")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStakeLifecycle(t *testing.T) {
	ts, env := newServer(t)

	body, code := httpPost(t, accountURL(ts, alice, "stake"), accounts.AmountBody{Amount: amount(10_000)})
	require.Equal(t, http.StatusOK, code, string(body))
	receipt := decode[accounts.Receipt](t, body)
	requireAmount(t, 9_900, receipt.Shares)
	requireAmount(t, 100, receipt.FeeShares)

	body, code = httpGet(t, ts.URL+"/pool/deposits/pending")
	require.Equal(t, http.StatusOK, code)
	pending := *decode[[]pool.Deposit](t, body)
	require.Len(t, pending, 1)
	assert.Equal(t, receipt.ID, pending[0].ID)
	assert.Equal(t, "stake", pending[0].Kind)
	assert.Equal(t, alice, pending[0].Account)

	// unconfirmed shares cannot leave
	_, code = httpPost(t, accountURL(ts, alice, "unstake"), nil)
	assert.Equal(t, http.StatusBadRequest, code)

	env.ConfirmAll(t, nil)

	body, code = httpGet(t, accountURL(ts, alice, ""))
	require.Equal(t, http.StatusOK, code)
	acc := decode[accounts.Account](t, body)
	assert.True(t, acc.Registered)
	requireAmount(t, 9_900, acc.Shares)
	requireAmount(t, 0, acc.Unconfirmed)
	requireAmount(t, 9_900, acc.Value)

	body, code = httpPost(t, accountURL(ts, alice, "unstake"), accounts.AmountBody{Amount: amount(900)})
	require.Equal(t, http.StatusOK, code, string(body))
	ur := decode[accounts.UnstakeReceipt](t, body)
	requireAmount(t, 900, ur.Value)
	assert.Equal(t, thor.UnbondingEpochs, ur.UnlockEpoch)

	// locked
	_, code = httpPost(t, accountURL(ts, alice, "withdraw"), nil)
	assert.Equal(t, http.StatusBadRequest, code)

	env.Clock.Advance(thor.UnbondingEpochs)
	body, code = httpPost(t, accountURL(ts, alice, "withdraw"), accounts.AmountBody{Amount: amount(400)})
	require.Equal(t, http.StatusOK, code, string(body))
	requireAmount(t, 400, decode[accounts.Withdrawal](t, body).Paid)

	body, code = httpPost(t, accountURL(ts, alice, "restake"), nil)
	require.Equal(t, http.StatusOK, code, string(body))
	requireAmount(t, 500, decode[accounts.Receipt](t, body).Shares)

	body, code = httpGet(t, ts.URL+"/pool/balances")
	require.Equal(t, http.StatusOK, code)
	b := decode[pool.Balances](t, body)
	requireAmount(t, 9_600, b.StakedValue)
	requireAmount(t, 9_600, b.TotalShares)
	requireAmount(t, 0, b.UnstakedAvailable)
	requireAmount(t, 500, b.PendingDepositValue)
	requireAmount(t, 900, b.WithdrawingValue)
	assert.Equal(t, "400", env.Bank.Received(alice).String())
}

func TestTransferAndRegistration(t *testing.T) {
	ts, env := newServer(t)
	carol := thor.BytesToAddress([]byte("carol"))

	_, code := httpPost(t, accountURL(ts, alice, "stake"), accounts.AmountBody{Amount: amount(1_000)})
	require.Equal(t, http.StatusOK, code)
	env.ConfirmAll(t, nil)

	_, code = httpPost(t, accountURL(ts, alice, "transfer"), accounts.TransferBody{To: carol, Amount: amount(10)})
	assert.Equal(t, http.StatusBadRequest, code, "receiver not registered")

	body, code := httpPost(t, accountURL(ts, alice, "transfer"), accounts.TransferBody{To: bob, Amount: amount(90)})
	require.Equal(t, http.StatusOK, code, string(body))
	requireAmount(t, 900, decode[accounts.Account](t, body).Shares)

	body, code = httpGet(t, accountURL(ts, bob, ""))
	require.Equal(t, http.StatusOK, code)
	requireAmount(t, 90, decode[accounts.Account](t, body).Shares)

	_, code = httpPost(t, accountURL(ts, bob, "unregister"), nil)
	assert.Equal(t, http.StatusBadRequest, code, "holds shares")

	_, code = httpPost(t, accountURL(ts, carol, "register"), nil)
	assert.Equal(t, http.StatusBadRequest, code)

	env.Registry.Register(carol)
	body, code = httpPost(t, accountURL(ts, carol, "register"), nil)
	require.Equal(t, http.StatusOK, code, string(body))
	assert.True(t, decode[accounts.Account](t, body).Registered)

	body, code = httpPost(t, accountURL(ts, carol, "unregister"), nil)
	require.Equal(t, http.StatusOK, code, string(body))
	assert.False(t, decode[accounts.Account](t, body).Registered)

	_, code = httpGet(t, ts.URL+"/accounts/0xzz")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestOperatorAndTreasury(t *testing.T) {
	ts, env := newServer(t)

	_, code := httpPost(t, ts.URL+"/pool/operator", pool.OperatorCommand{Caller: alice, Command: "stop-staking"})
	assert.Equal(t, http.StatusForbidden, code)

	_, code = httpPost(t, ts.URL+"/pool/operator", pool.OperatorCommand{Caller: env.Operator, Command: "pause"})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = httpPost(t, ts.URL+"/pool/operator", pool.OperatorCommand{Caller: env.Operator, Command: "update-fees"})
	assert.Equal(t, http.StatusBadRequest, code)

	body, code := httpPost(t, ts.URL+"/pool/operator", pool.OperatorCommand{
		Caller:  env.Operator,
		Command: "update-fees",
		Fees:    &fees.Config{StakingBPS: 0, EarningsBPS: 2000},
	})
	require.Equal(t, http.StatusOK, code, string(body))

	_, code = httpPost(t, accountURL(ts, alice, "stake"), accounts.AmountBody{Amount: amount(10_000)})
	require.Equal(t, http.StatusOK, code)
	env.ConfirmAll(t, nil)

	env.Mechanism.SetReported(big.NewInt(11_000))

	body, code = httpGet(t, accountURL(ts, alice, "value-with-earnings"))
	require.Equal(t, http.StatusOK, code)
	requireAmount(t, 10_784, decode[accounts.Value](t, body).Value)

	_, code = httpPost(t, ts.URL+"/treasury/distribute", map[string]any{"caller": alice})
	assert.Equal(t, http.StatusForbidden, code)

	body, code = httpPost(t, ts.URL+"/treasury/distribute", map[string]any{"caller": env.Operator})
	require.Equal(t, http.StatusOK, code, string(body))
	var dist struct {
		Delta     *math.HexOrDecimal256 `json:"delta"`
		FeeShares *math.HexOrDecimal256 `json:"feeShares"`
	}
	require.NoError(t, json.Unmarshal(body, &dist))
	requireAmount(t, 1_000, dist.Delta)
	requireAmount(t, 200, dist.FeeShares)

	body, code = httpPost(t, ts.URL+"/treasury/transfer-to-owner", map[string]any{"caller": env.Operator, "amount": "100"})
	require.Equal(t, http.StatusOK, code, string(body))
	requireAmount(t, 100, decode[accounts.UnstakeReceipt](t, body).Value)

	body, code = httpPost(t, ts.URL+"/treasury/deposit", map[string]any{"caller": bob, "amount": "0x64"})
	require.Equal(t, http.StatusOK, code, string(body))
	requireAmount(t, 0, decode[accounts.Receipt](t, body).FeeShares)

	body, code = httpPost(t, ts.URL+"/pool/operator", pool.OperatorCommand{Caller: env.Operator, Command: "stop-staking"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, stakepool.StatusOffline, decode[pool.Status](t, body).Status)

	_, code = httpPost(t, accountURL(ts, alice, "stake"), accounts.AmountBody{Amount: amount(1)})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = httpPost(t, ts.URL+"/treasury/deposit", "not an object")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMetricsMiddleware(t *testing.T) {
	ts, _ := newServer(t)

	httpGet(t, ts.URL+"/pool/status")
	httpGet(t, ts.URL+"/pool/status")
	httpGet(t, ts.URL+"/accounts/0xzz")
	httpGet(t, ts.URL+"/not-found")

	body, code := httpGet(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	family, ok := families["stakepool_api_request_count"]
	require.True(t, ok)

	counts := make(map[string]float64)
	for _, m := range family.GetMetric() {
		var labels []string
		for _, l := range m.GetLabel() {
			labels = append(labels, l.GetName()+"="+l.GetValue())
		}
		counts[strings.Join(labels, ",")] += m.GetCounter().GetValue()
	}
	assert.GreaterOrEqual(t, counts["code=200,method=GET,name=pool_get_status"], float64(2))
	assert.GreaterOrEqual(t, counts["code=400,method=GET,name=accounts_get_account"], float64(1))
	for key := range counts {
		assert.NotContains(t, key, "not-found")
	}
}
