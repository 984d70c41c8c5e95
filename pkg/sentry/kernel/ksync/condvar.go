// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ksync

import (
	"gvisor.dev/syncguard/pkg/sync"
)

// ChannelCondvar is a Condvar. A Signal with no waiter is lost.
//
// The zero value is ready for use.
type ChannelCondvar struct {
	// mu protects waiters.
	mu      sync.Mutex
	waiters waitQueue
}

// Signal implements Condvar.Signal.
func (c *ChannelCondvar) Signal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w := c.waiters.pop(); w != nil {
		w.wake()
	}
}

// Wait implements Condvar.Wait.
func (c *ChannelCondvar) Wait(m Mutex) {
	w := newWaiter()
	// Enqueue before releasing m so that a Signal issued by the next holder
	// of m is not lost.
	c.mu.Lock()
	c.waiters.push(w)
	c.mu.Unlock()

	m.Unlock()
	w.wait()
	m.Lock()
}

// Waiters returns the number of threads suspended in Wait.
func (c *ChannelCondvar) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiters.len()
}
