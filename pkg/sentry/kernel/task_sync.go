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
	"gvisor.dev/syncguard/pkg/abi/linux"
	"gvisor.dev/syncguard/pkg/errors/linuxerr"
	"gvisor.dev/syncguard/pkg/sentry/kernel/resource"
)

// CreateMutex creates a mutex and returns its id. A blocking mutex suspends
// contending threads; otherwise they spin.
func (t *Task) CreateMutex(blocking bool) (int, error) {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := t.liveLocked(); err != nil {
		return 0, err
	}
	id := p.mutexes.add(p.factory.NewMutex(blocking))
	p.tables.Add(resource.Mutex(id), 1)
	t.Debugf("mutex_create(blocking=%t) = %d", blocking, id)
	return id, nil
}

// LockMutex acquires mutex id, blocking until it is free. If deadlock
// detection is enabled and waiting could deadlock the process, LockMutex
// fails with EDEADLK without blocking.
func (t *Task) LockMutex(id int) error {
	p := t.p
	p.mu.Lock()
	if err := t.liveLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	m, ok := p.mutexes.get(id)
	if !ok {
		p.mu.Unlock()
		return linuxerr.EBADF
	}
	r := resource.Mutex(id)
	granted, err := t.admitLocked(r)
	p.mu.Unlock()
	if err != nil {
		return err
	}

	m.Lock()
	if !granted {
		t.acquired(r)
	}
	return nil
}

// UnlockMutex releases mutex id. Unlocking a mutex the thread does not hold
// is not reported.
func (t *Task) UnlockMutex(id int) error {
	p := t.p
	p.mu.Lock()
	if err := t.liveLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	m, ok := p.mutexes.get(id)
	if !ok {
		p.mu.Unlock()
		return linuxerr.EBADF
	}
	t.releaseLocked(resource.Mutex(id))
	p.mu.Unlock()

	m.Unlock()
	return nil
}

// DestroyMutex frees mutex id so that its slot can be reused. It fails with
// EBUSY while any thread holds or waits for the mutex.
func (t *Task) DestroyMutex(id int) error {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := t.liveLocked(); err != nil {
		return err
	}
	if _, ok := p.mutexes.get(id); !ok {
		return linuxerr.EBADF
	}
	r := resource.Mutex(id)
	if p.tables.InUse(r) {
		return linuxerr.EBUSY
	}
	p.tables.Remove(r)
	p.mutexes.remove(id)
	t.Debugf("mutex_destroy(%d)", id)
	return nil
}

// CreateSemaphore creates a semaphore holding count units and returns its
// id.
func (t *Task) CreateSemaphore(count int) (int, error) {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := t.liveLocked(); err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, linuxerr.EINVAL
	}
	id := p.semaphores.add(p.factory.NewSemaphore(count))
	p.tables.Add(resource.Semaphore(id), uint64(count))
	t.Debugf("semaphore_create(%d) = %d", count, id)
	return id, nil
}

// SemaphoreUp returns one unit to semaphore id, waking a waiter if there is
// one.
func (t *Task) SemaphoreUp(id int) error {
	p := t.p
	p.mu.Lock()
	if err := t.liveLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	s, ok := p.semaphores.get(id)
	if !ok {
		p.mu.Unlock()
		return linuxerr.EBADF
	}
	t.releaseLocked(resource.Semaphore(id))
	p.mu.Unlock()

	s.Up()
	return nil
}

// SemaphoreDown takes one unit from semaphore id, blocking until one is
// available. If deadlock detection is enabled and waiting could deadlock the
// process, SemaphoreDown fails with EDEADLK without blocking.
func (t *Task) SemaphoreDown(id int) error {
	p := t.p
	p.mu.Lock()
	if err := t.liveLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	s, ok := p.semaphores.get(id)
	if !ok {
		p.mu.Unlock()
		return linuxerr.EBADF
	}
	r := resource.Semaphore(id)
	granted, err := t.admitLocked(r)
	p.mu.Unlock()
	if err != nil {
		return err
	}

	s.Down()
	if !granted {
		t.acquired(r)
	}
	return nil
}

// DestroySemaphore frees semaphore id so that its slot can be reused. It
// fails with EBUSY while any thread holds or waits for a unit.
func (t *Task) DestroySemaphore(id int) error {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := t.liveLocked(); err != nil {
		return err
	}
	if _, ok := p.semaphores.get(id); !ok {
		return linuxerr.EBADF
	}
	r := resource.Semaphore(id)
	if p.tables.InUse(r) {
		return linuxerr.EBUSY
	}
	p.tables.Remove(r)
	p.semaphores.remove(id)
	t.Debugf("semaphore_destroy(%d)", id)
	return nil
}

// CreateCondvar creates a condition variable and returns its id.
func (t *Task) CreateCondvar() (int, error) {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := t.liveLocked(); err != nil {
		return 0, err
	}
	id := p.condvars.add(p.factory.NewCondvar())
	t.Debugf("condvar_create() = %d", id)
	return id, nil
}

// CondvarSignal wakes one thread waiting on condvar id.
func (t *Task) CondvarSignal(id int) error {
	p := t.p
	p.mu.Lock()
	if err := t.liveLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	c, ok := p.condvars.get(id)
	p.mu.Unlock()
	if !ok {
		return linuxerr.EBADF
	}
	t.Debugf("condvar_signal(%d)", id)
	c.Signal()
	return nil
}

// CondvarWait releases mutex mid, waits on condvar id and reacquires the
// mutex before returning. Neither the wait nor the reacquisition is
// accounted: the thread's recorded holding of the mutex is unchanged.
func (t *Task) CondvarWait(id, mid int) error {
	p := t.p
	p.mu.Lock()
	if err := t.liveLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	c, ok := p.condvars.get(id)
	m, mok := p.mutexes.get(mid)
	p.mu.Unlock()
	if !ok || !mok {
		return linuxerr.EBADF
	}
	t.Debugf("condvar_wait(%d, %d)", id, mid)
	c.Wait(m)
	return nil
}

// DestroyCondvar frees condvar id so that its slot can be reused.
func (t *Task) DestroyCondvar(id int) error {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := t.liveLocked(); err != nil {
		return err
	}
	if _, ok := p.condvars.remove(id); !ok {
		return linuxerr.EBADF
	}
	t.Debugf("condvar_destroy(%d)", id)
	return nil
}

// SetDeadlockDetection turns deadlock detection off (linux.DEADLOCK_DETECT_OFF)
// or on (linux.DEADLOCK_DETECT_ON) for the whole process. Any other value
// fails with EINVAL and leaves the setting unchanged.
func (t *Task) SetDeadlockDetection(v int) error {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := t.liveLocked(); err != nil {
		return err
	}
	switch v {
	case linux.DEADLOCK_DETECT_OFF:
		p.tables.SetDetection(false)
	case linux.DEADLOCK_DETECT_ON:
		p.tables.SetDetection(true)
	default:
		return linuxerr.EINVAL
	}
	t.Debugf("enable_deadlock_detect(%d)", v)
	return nil
}

// admitLocked records a request by t for one unit of r. It returns true if
// the unit was free and has been assigned to t, and false if t must block in
// the primitive until another thread releases a unit. If detection is
// enabled and the resulting state is unsafe, the request is denied with
// EDEADLK; unless the process preserves denied requests, the bookkeeping is
// rolled back first.
//
// Preconditions: t.p.mu is locked.
func (t *Task) admitLocked(r resource.Resource) (bool, error) {
	p := t.p
	kind := r.Kind.String()
	granted := p.tables.Request(t.tid, r)
	if p.tables.DetectionEnabled() {
		res := p.tables.Check()
		if !res.Safe {
			safetyChecksMetric.Increment("unsafe")
			requestsMetric.Increment(kind, "denied")
			if !p.opts.PreserveDeniedRequests {
				p.tables.Undo(t.tid, r, granted)
			}
			p.denials.Warningf("pid[%d] tid[%d] request for %v denied, threads %v would deadlock", p.pid, t.tid, r, res.Deadlocked)
			return false, linuxerr.EDEADLK
		}
		safetyChecksMetric.Increment("safe")
	}
	if granted {
		requestsMetric.Increment(kind, "granted")
	} else {
		requestsMetric.Increment(kind, "blocked")
	}
	t.Debugf("acquire %v granted=%t", r, granted)
	return granted, nil
}

// acquired reconciles the accounting after t returns from blocking on r.
func (t *Task) acquired(r resource.Resource) {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if t.liveLocked() != nil {
		return
	}
	p.tables.Acquired(t.tid, r)
}

// releaseLocked returns one unit of r held by t to the process.
//
// Preconditions: t.p.mu is locked.
func (t *Task) releaseLocked(r resource.Resource) {
	freed := t.p.tables.Release(t.tid, r)
	releasesMetric.Increment(r.Kind.String())
	t.Debugf("release %v freed=%d", r, freed)
}
