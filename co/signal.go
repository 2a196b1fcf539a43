// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Waiter exposes the channel to wait on. A received true means Signal,
// a closed channel means Broadcast.
type Waiter interface {
	C() <-chan bool
}

// Signal announces events to goroutines that select on a channel.
type Signal struct {
	mu sync.Mutex
	ch chan bool
}

func (s *Signal) lazyInit() {
	if s.ch == nil {
		s.ch = make(chan bool, 1)
	}
}

// Signal wakes at most one waiter.
func (s *Signal) Signal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lazyInit()
	select {
	case s.ch <- true:
	default:
	}
}

// Broadcast wakes every waiter.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lazyInit()
	close(s.ch)
	s.ch = make(chan bool, 1)
}

// NewWaiter returns a Waiter. Its first C is the channel current at creation,
// later calls follow the latest one.
func (s *Signal) NewWaiter() Waiter {
	s.mu.Lock()
	s.lazyInit()
	ref := s.ch
	s.mu.Unlock()

	return waiterFunc(func() <-chan bool {
		ch := ref
		s.mu.Lock()
		ref = s.ch
		s.mu.Unlock()
		return ch
	})
}

type waiterFunc func() <-chan bool

func (w waiterFunc) C() <-chan bool {
	return w()
}
