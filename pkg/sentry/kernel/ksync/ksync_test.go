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
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

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

func blocked(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return false
	default:
		return true
	}
}

func TestMutexExclusion(t *testing.T) {
	for _, tc := range []struct {
		name string
		mu   Mutex
	}{
		{name: "spin", mu: Primitives{}.NewMutex(false)},
		{name: "blocking", mu: Primitives{}.NewMutex(true)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			const (
				workers = 8
				rounds  = 200
			)
			counter := 0
			var g errgroup.Group
			for i := 0; i < workers; i++ {
				g.Go(func() error {
					for j := 0; j < rounds; j++ {
						tc.mu.Lock()
						counter++
						tc.mu.Unlock()
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				t.Fatalf("workers failed: %v", err)
			}
			if counter != workers*rounds {
				t.Errorf("counter got: %d, want: %d", counter, workers*rounds)
			}
		})
	}
}

func TestBlockingMutexHandoff(t *testing.T) {
	m := NewBlockingMutex()
	m.Lock()

	done := make(chan struct{})
	go func() {
		m.Lock()
		close(done)
	}()
	waitFor(t, "waiter to block", func() bool { return m.Waiters() == 1 })
	if !blocked(done) {
		t.Fatalf("second Lock returned while the mutex was held")
	}

	m.Unlock()
	<-done
	m.Unlock()
}

func TestUnlockOfUnlockedIsNoop(t *testing.T) {
	for _, mu := range []Mutex{&SpinMutex{}, NewBlockingMutex()} {
		mu.Unlock()
		locked := make(chan struct{})
		go func() {
			mu.Lock()
			close(locked)
		}()
		select {
		case <-locked:
		case <-time.After(10 * time.Second):
			t.Fatalf("%T: Lock blocked after a stray Unlock", mu)
		}
		mu.Unlock()
	}
}

func TestSemaphoreCount(t *testing.T) {
	s := NewCountingSemaphore(2)
	s.Down()
	s.Down()
	if got := s.Count(); got != 0 {
		t.Fatalf("Count() got: %d, want: 0", got)
	}

	done := make(chan struct{})
	go func() {
		s.Down()
		close(done)
	}()
	waitFor(t, "down to block", func() bool { return s.Count() == -1 })
	if !blocked(done) {
		t.Fatalf("Down returned with no units available")
	}
	s.Up()
	<-done
	if got := s.Count(); got != 0 {
		t.Errorf("Count() got: %d, want: 0", got)
	}
}

func TestSemaphoreUpBeyondInitial(t *testing.T) {
	s := NewCountingSemaphore(0)
	s.Up()
	s.Up()
	s.Down()
	if got := s.Count(); got != 1 {
		t.Errorf("Count() got: %d, want: 1", got)
	}
}

func TestCondvarWaitSignal(t *testing.T) {
	m := NewBlockingMutex()
	c := &ChannelCondvar{}
	ready := false

	done := make(chan struct{})
	go func() {
		m.Lock()
		for !ready {
			c.Wait(m)
		}
		m.Unlock()
		close(done)
	}()

	waitFor(t, "waiter to suspend", func() bool { return c.Waiters() == 1 })
	m.Lock()
	ready = true
	c.Signal()
	m.Unlock()
	<-done
}

func TestCondvarSignalWithoutWaiter(t *testing.T) {
	c := &ChannelCondvar{}
	c.Signal()
	if got := c.Waiters(); got != 0 {
		t.Errorf("Waiters() got: %d, want: 0", got)
	}
}
