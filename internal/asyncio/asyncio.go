/*
 * Copyright 2018-2020, CS Systemes d'Information, http://csgroup.eu
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package asyncio is a reference stand-in for the real asynchronous
// networking layer the Network Scripting Engine depends on (spec.md
// §1 "Out of scope", §6). It tracks pending waits on a virtual clock
// rather than real sockets or timers, so tests and the demo CLI can
// exercise the Scheduler deterministically and without actually
// sleeping.
package asyncio

import (
	"sync"
	"time"

	"github.com/gonse/netscan/lib/nse"
)

// Wait describes one task's suspension: it becomes runnable again once
// After has elapsed, resuming with Args. Action closures build a Wait
// and hand it to nse.Waiter.Suspend.
type Wait struct {
	After time.Duration
	Args  []interface{}
}

type pendingOp struct {
	remaining time.Duration
	args      []interface{}
}

// IO implements nse.AsyncIO on top of a virtual clock.
type IO struct {
	mu      sync.Mutex
	wake    nse.WakeFunc
	pending map[string]*pendingOp
}

// New builds an IO wired to the Scheduler's Wake hook.
func New(wake nse.WakeFunc) *IO {
	return &IO{wake: wake, pending: map[string]*pendingOp{}}
}

// Register implements nse.AsyncIO.
func (io *IO) Register(taskID string, op interface{}) {
	w, ok := op.(Wait)
	if !ok {
		w = Wait{}
	}
	io.mu.Lock()
	defer io.mu.Unlock()
	io.pending[taskID] = &pendingOp{remaining: w.After, args: w.Args}
}

// Loop implements nse.AsyncIO: it advances every pending wait's
// remaining budget by budget, firing the wake hook for any that have
// reached zero.
func (io *IO) Loop(budget time.Duration) {
	io.mu.Lock()
	defer io.mu.Unlock()
	for id, op := range io.pending {
		op.remaining -= budget
		if op.remaining <= 0 {
			delete(io.pending, id)
			if io.wake != nil {
				io.wake(id, op.args...)
			}
		}
	}
}

// Pending reports how many waits are still outstanding; useful in
// tests asserting that a timed-out host's task never fires.
func (io *IO) Pending() int {
	io.mu.Lock()
	defer io.mu.Unlock()
	return len(io.pending)
}
