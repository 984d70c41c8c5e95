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

// CountingSemaphore is a Semaphore whose count may go negative: a negative
// count is the number of threads suspended in Down.
type CountingSemaphore struct {
	// mu protects the fields below.
	mu      sync.Mutex
	count   int
	waiters waitQueue
}

// NewCountingSemaphore returns a semaphore holding count units.
func NewCountingSemaphore(count int) *CountingSemaphore {
	return &CountingSemaphore{count: count}
}

// Up implements Semaphore.Up.
func (s *CountingSemaphore) Up() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	if s.count <= 0 {
		if w := s.waiters.pop(); w != nil {
			w.wake()
		}
	}
}

// Down implements Semaphore.Down.
func (s *CountingSemaphore) Down() {
	s.mu.Lock()
	s.count--
	if s.count >= 0 {
		s.mu.Unlock()
		return
	}
	w := newWaiter()
	s.waiters.push(w)
	s.mu.Unlock()
	w.wait()
}

// Count returns the current count.
func (s *CountingSemaphore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
