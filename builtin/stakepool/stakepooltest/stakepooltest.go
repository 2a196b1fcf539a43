// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakepooltest provides in-memory collaborators for pool tests.
package stakepooltest

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/builtin/stakepool/deposits"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

// ErrInsufficientCredit is returned when more credit is consumed than available.
var ErrInsufficientCredit = errors.New("insufficient storage credit")

// Gate grants capabilities per account.
type Gate struct {
	mu     sync.Mutex
	grants map[thor.Address]map[stakepool.Capability]bool
}

func NewGate() *Gate {
	return &Gate{grants: make(map[thor.Address]map[stakepool.Capability]bool)}
}

// Grant gives caps to account.
func (g *Gate) Grant(account thor.Address, caps ...stakepool.Capability) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.grants[account] == nil {
		g.grants[account] = make(map[stakepool.Capability]bool)
	}
	for _, c := range caps {
		g.grants[account][c] = true
	}
}

func (g *Gate) IsAuthorized(account thor.Address, capability stakepool.Capability) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.grants[account][capability], nil
}

// Registry registers accounts and keeps their storage credit.
type Registry struct {
	mu         sync.Mutex
	registered map[thor.Address]bool
	credits    map[thor.Address]*big.Int
}

func NewRegistry() *Registry {
	return &Registry{
		registered: make(map[thor.Address]bool),
		credits:    make(map[thor.Address]*big.Int),
	}
}

// Register marks accounts as registered.
func (r *Registry) Register(accounts ...thor.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range accounts {
		r.registered[a] = true
	}
}

// SetCredit sets the storage credit of account.
func (r *Registry) SetCredit(account thor.Address, credit *big.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.credits[account] = new(big.Int).Set(credit)
}

func (r *Registry) IsRegistered(account thor.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.registered[account], nil
}

func (r *Registry) AvailableCredit(account thor.Address) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.credits[account]; ok {
		return new(big.Int).Set(c), nil
	}
	return new(big.Int), nil
}

func (r *Registry) ConsumeCredit(account thor.Address, amount *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.credits[account]
	if c == nil || c.Cmp(amount) < 0 {
		return ErrInsufficientCredit
	}
	c.Sub(c, amount)
	return nil
}

func (r *Registry) RestoreCredit(account thor.Address, amount *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.credits[account]
	if c == nil {
		c = new(big.Int)
		r.credits[account] = c
	}
	c.Add(c, amount)
	return nil
}

// Issued is an instruction received by the Mechanism.
type Issued struct {
	ID     deposits.ID
	Op     stakepool.Op
	Amount *big.Int
}

// Mechanism records instructions and leaves their confirmation to the test.
type Mechanism struct {
	mu       sync.Mutex
	issued   []Issued
	reported *big.Int

	// RefuseDeposits makes DepositAndStake fail synchronously.
	RefuseDeposits error
	// RefuseWithdrawals makes Withdraw fail synchronously.
	RefuseWithdrawals error
}

func NewMechanism() *Mechanism {
	return &Mechanism{reported: new(big.Int)}
}

func (m *Mechanism) DepositAndStake(_ context.Context, id deposits.ID, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RefuseDeposits != nil {
		return m.RefuseDeposits
	}
	m.issued = append(m.issued, Issued{id, stakepool.OpDeposit, new(big.Int).Set(amount)})
	return nil
}

func (m *Mechanism) Withdraw(_ context.Context, id deposits.ID, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RefuseWithdrawals != nil {
		return m.RefuseWithdrawals
	}
	m.issued = append(m.issued, Issued{id, stakepool.OpWithdraw, new(big.Int).Set(amount)})
	return nil
}

func (m *Mechanism) ReportedStakedValue(context.Context) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return new(big.Int).Set(m.reported), nil
}

// SetReported sets the value returned by ReportedStakedValue.
func (m *Mechanism) SetReported(v *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reported = new(big.Int).Set(v)
}

// Issued returns the instructions received so far.
func (m *Mechanism) Issued() []Issued {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Issued(nil), m.issued...)
}

// Bank records transfers out of the pool.
type Bank struct {
	mu       sync.Mutex
	balances map[thor.Address]*big.Int

	// Fail makes Transfer fail.
	Fail error
}

func NewBank() *Bank {
	return &Bank{balances: make(map[thor.Address]*big.Int)}
}

func (b *Bank) Transfer(to thor.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Fail != nil {
		return b.Fail
	}
	bal := b.balances[to]
	if bal == nil {
		bal = new(big.Int)
		b.balances[to] = bal
	}
	bal.Add(bal, amount)
	return nil
}

// Received returns the sum transferred to account.
func (b *Bank) Received(account thor.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bal := b.balances[account]; bal != nil {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Clock is a manually advanced epoch clock.
type Clock struct {
	mu    sync.Mutex
	epoch uint64
}

func (c *Clock) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.epoch
}

// Advance moves the clock n epochs forward.
func (c *Clock) Advance(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch += n
}

// Env is a pool wired to fakes.
type Env struct {
	DB        *lvldb.LevelDB
	Pool      *stakepool.Pool
	Gate      *Gate
	Registry  *Registry
	Mechanism *Mechanism
	Bank      *Bank
	Clock     *Clock

	Owner    thor.Address
	Treasury thor.Address
	Operator thor.Address

	confirmed map[stakepool.Op]int // issued instructions already confirmed, per op
}

// Deps returns the fakes as pool collaborators.
func (e *Env) Deps() stakepool.Deps {
	return stakepool.Deps{
		Gate:      e.Gate,
		Registry:  e.Registry,
		Mechanism: e.Mechanism,
		Bank:      e.Bank,
		Clock:     e.Clock,
	}
}

// NewEnv creates an initialized pool over an in-memory store. The operator
// holds every capability; owner, treasury and operator are registered.
func NewEnv(t testing.TB, genesis stakepool.Genesis) *Env {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &Env{
		DB:        db,
		Gate:      NewGate(),
		Registry:  NewRegistry(),
		Mechanism: NewMechanism(),
		Bank:      NewBank(),
		Clock:     &Clock{},
		Owner:     thor.BytesToAddress([]byte("owner")),
		Treasury:  thor.BytesToAddress([]byte("treasury")),
		Operator:  thor.BytesToAddress([]byte("operator")),
		confirmed: make(map[stakepool.Op]int),
	}
	if !genesis.Owner.IsZero() {
		env.Owner = genesis.Owner
	}
	if !genesis.Treasury.IsZero() {
		env.Treasury = genesis.Treasury
	}
	genesis.Owner = env.Owner
	genesis.Treasury = env.Treasury

	env.Gate.Grant(env.Operator, stakepool.Capabilities...)
	env.Registry.Register(env.Owner, env.Treasury, env.Operator)

	env.Pool = stakepool.New(state.New(db), env.Deps())
	require.NoError(t, env.Pool.Initialize(&genesis))
	return env
}

// Reopen replaces Pool with a new instance over the same store.
func (e *Env) Reopen() {
	e.Pool = stakepool.New(state.New(e.DB), e.Deps())
}

// ConfirmAll confirms the deposits issued since the previous call with err
// and returns how many were confirmed.
func (e *Env) ConfirmAll(t testing.TB, err error) int {
	return e.confirm(t, stakepool.OpDeposit, err)
}

// ConfirmWithdraws confirms the withdraws issued since the previous call with
// err and returns how many were confirmed.
func (e *Env) ConfirmWithdraws(t testing.TB, err error) int {
	return e.confirm(t, stakepool.OpWithdraw, err)
}

func (e *Env) confirm(t testing.TB, op stakepool.Op, err error) int {
	issued := e.Mechanism.Issued()
	n := 0
	for _, is := range issued[e.confirmed[op]:] {
		if is.Op != op {
			continue
		}
		require.NoError(t, e.Pool.Confirm(stakepool.Confirmation{ID: is.ID, Op: is.Op, Err: err}))
		n++
	}
	e.confirmed[op] = len(issued)
	return n
}
