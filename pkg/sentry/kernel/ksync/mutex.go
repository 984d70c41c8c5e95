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
	"sync/atomic"

	"gvisor.dev/syncguard/pkg/sync"
)

// SpinMutex is a Mutex that busy-waits, yielding the processor between
// attempts.
//
// The zero value is an unlocked mutex.
type SpinMutex struct {
	locked atomic.Bool
}

// Lock implements Mutex.Lock.
func (m *SpinMutex) Lock() {
	for !m.locked.CompareAndSwap(false, true) {
		sync.Goyield()
	}
}

// Unlock implements Mutex.Unlock. Unlocking an unlocked SpinMutex has no
// effect.
func (m *SpinMutex) Unlock() {
	m.locked.Store(false)
}

// BlockingMutex is a Mutex that suspends waiters in FIFO order. Unlock hands
// ownership directly to the oldest waiter.
type BlockingMutex struct {
	// mu protects the fields below.
	mu      sync.Mutex
	locked  bool
	waiters waitQueue
}

// NewBlockingMutex returns an unlocked BlockingMutex.
func NewBlockingMutex() *BlockingMutex {
	return &BlockingMutex{}
}

// Lock implements Mutex.Lock.
func (m *BlockingMutex) Lock() {
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.mu.Unlock()
		return
	}
	w := newWaiter()
	m.waiters.push(w)
	m.mu.Unlock()
	// Ownership is transferred by Unlock before w is woken.
	w.wait()
}

// Unlock implements Mutex.Unlock. Unlocking an unlocked BlockingMutex has no
// effect.
func (m *BlockingMutex) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.locked {
		return
	}
	if w := m.waiters.pop(); w != nil {
		w.wake()
		return
	}
	m.locked = false
}

// Waiters returns the number of threads suspended in Lock.
func (m *BlockingMutex) Waiters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiters.len()
}
