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

// Package ksync provides the blocking synchronization primitives exposed to
// the threads of a process: mutexes, counting semaphores and condition
// variables.
//
// The kernel's deadlock avoidance layer never looks inside these primitives.
// It only requires the capability sets described by Mutex, Semaphore and
// Condvar, and obtains instances through a Factory so that tests can inject
// deterministic fakes.
package ksync

// Mutex is a lock that may be held by one thread at a time.
type Mutex interface {
	// Lock blocks until the mutex is acquired by the caller.
	Lock()

	// Unlock releases the mutex, handing it to a waiter if there is one.
	Unlock()
}

// Semaphore is a counting semaphore.
type Semaphore interface {
	// Up increments the count, waking one waiter if there is one.
	Up()

	// Down decrements the count, blocking while no unit is available.
	Down()
}

// Condvar is a condition variable.
type Condvar interface {
	// Signal wakes one waiter, if any.
	Signal()

	// Wait atomically releases m and blocks until signalled, then reacquires
	// m before returning.
	Wait(m Mutex)
}

// Factory creates primitives for a process.
type Factory interface {
	// NewMutex returns a new unlocked mutex. A blocking mutex suspends
	// waiters; a non-blocking one spins.
	NewMutex(blocking bool) Mutex

	// NewSemaphore returns a new semaphore holding count units.
	NewSemaphore(count int) Semaphore

	// NewCondvar returns a new condition variable.
	NewCondvar() Condvar
}

// Primitives is the default Factory.
type Primitives struct{}

// NewMutex implements Factory.NewMutex.
func (Primitives) NewMutex(blocking bool) Mutex {
	if blocking {
		return NewBlockingMutex()
	}
	return &SpinMutex{}
}

// NewSemaphore implements Factory.NewSemaphore.
func (Primitives) NewSemaphore(count int) Semaphore {
	return NewCountingSemaphore(count)
}

// NewCondvar implements Factory.NewCondvar.
func (Primitives) NewCondvar() Condvar {
	return &ChannelCondvar{}
}
