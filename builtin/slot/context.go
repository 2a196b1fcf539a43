// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package slot provides typed storage over the staged pool state.
package slot

import (
	"github.com/vechain/stakepool/state"
)

// Storage operations reported to the usage function.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// UsageFunc observes storage traffic in bytes.
type UsageFunc func(op string, size int)

type Context struct {
	state *state.State
	usage UsageFunc
}

func NewContext(state *state.State, usage UsageFunc) *Context {
	return &Context{
		state: state,
		usage: usage,
	}
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) use(op string, size int) {
	if c.usage != nil {
		c.usage(op, size)
	}
}
