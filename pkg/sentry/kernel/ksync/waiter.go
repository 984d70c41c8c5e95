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

// waiter is a suspended thread. Closing ch resumes it.
type waiter struct {
	ch chan struct{}
}

func newWaiter() *waiter {
	return &waiter{ch: make(chan struct{})}
}

func (w *waiter) wait() {
	<-w.ch
}

func (w *waiter) wake() {
	close(w.ch)
}

// waitQueue is a FIFO of waiters.
type waitQueue struct {
	waiters []*waiter
}

func (q *waitQueue) push(w *waiter) {
	q.waiters = append(q.waiters, w)
}

// pop removes and returns the oldest waiter, or nil if q is empty.
func (q *waitQueue) pop() *waiter {
	if len(q.waiters) == 0 {
		return nil
	}
	w := q.waiters[0]
	q.waiters[0] = nil
	q.waiters = q.waiters[1:]
	return w
}

func (q *waitQueue) len() int {
	return len(q.waiters)
}
