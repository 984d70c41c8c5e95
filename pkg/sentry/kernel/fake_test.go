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

package kernel

import (
	"sync/atomic"
	"testing"
	"time"

	"gvisor.dev/syncguard/pkg/sentry/kernel/ksync"
	"gvisor.dev/syncguard/pkg/sync"
)

// fakeFactory creates primitives that count their calls. fakeMutex and
// fakeSemaphore still block like the real thing so that tests can observe a
// thread parked inside a primitive.
type fakeFactory struct {
	mu         sync.Mutex
	mutexes    []*fakeMutex
	semaphores []*fakeSemaphore
	condvars   []*fakeCondvar
}

func (f *fakeFactory) NewMutex(bool) ksync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &fakeMutex{held: make(chan struct{}, 1)}
	f.mutexes = append(f.mutexes, m)
	return m
}

func (f *fakeFactory) NewSemaphore(count int) ksync.Semaphore {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &fakeSemaphore{tokens: make(chan struct{}, 1024)}
	for i := 0; i < count; i++ {
		s.tokens <- struct{}{}
	}
	f.semaphores = append(f.semaphores, s)
	return s
}

func (f *fakeFactory) NewCondvar() ksync.Condvar {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &fakeCondvar{}
	f.condvars = append(f.condvars, c)
	return c
}

func (f *fakeFactory) mutex(i int) *fakeMutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mutexes[i]
}

func (f *fakeFactory) semaphore(i int) *fakeSemaphore {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.semaphores[i]
}

func (f *fakeFactory) condvar(i int) *fakeCondvar {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.condvars[i]
}

type fakeMutex struct {
	held    chan struct{}
	locks   atomic.Int32
	unlocks atomic.Int32
}

func (m *fakeMutex) Lock() {
	m.locks.Add(1)
	m.held <- struct{}{}
}

func (m *fakeMutex) Unlock() {
	m.unlocks.Add(1)
	select {
	case <-m.held:
	default:
	}
}

type fakeSemaphore struct {
	tokens chan struct{}
	ups    atomic.Int32
	downs  atomic.Int32
}

func (s *fakeSemaphore) Up() {
	s.ups.Add(1)
	s.tokens <- struct{}{}
}

func (s *fakeSemaphore) Down() {
	s.downs.Add(1)
	<-s.tokens
}

type fakeCondvar struct {
	signals atomic.Int32
	waits   atomic.Int32
}

func (c *fakeCondvar) Signal() {
	c.signals.Add(1)
}

func (c *fakeCondvar) Wait(m ksync.Mutex) {
	c.waits.Add(1)
	m.Unlock()
	m.Lock()
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
