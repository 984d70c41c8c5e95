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
	"gvisor.dev/syncguard/pkg/errors/linuxerr"
	"gvisor.dev/syncguard/pkg/log"
	"gvisor.dev/syncguard/pkg/sentry/kernel/resource"
)

// Task represents a thread of a Process.
//
// A Task is used by a single goroutine at a time, except for Exit which may
// be called once the thread has stopped issuing sync calls.
type Task struct {
	p   *Process
	tid int

	// exited is true after Exit.
	//
	// +checklocks:p.mu
	exited bool
}

// TID returns the thread ID of t within its process.
func (t *Task) TID() int {
	return t.tid
}

// Process returns the process t belongs to.
func (t *Task) Process() *Process {
	return t.p
}

// Debugf writes a trace line prefixed with the task's identity.
func (t *Task) Debugf(format string, v ...any) {
	if t.p.logger.IsLogging(log.Debug) {
		t.p.logger.Debugf("pid[%d] tid[%d] "+format, append([]any{t.p.pid, t.tid}, v...)...)
	}
}

// liveLocked returns ESRCH if t or its process has exited.
//
// Preconditions: t.p.mu is locked.
func (t *Task) liveLocked() error {
	if t.exited || t.p.exited {
		return linuxerr.ESRCH
	}
	return nil
}

// Exit terminates the thread. Every unit it still holds goes through the
// release protocol, so threads blocked on those objects are woken, and any
// need it has recorded is dropped. The tid becomes free for reuse.
func (t *Task) Exit() {
	p := t.p
	p.mu.Lock()
	if t.liveLocked() != nil {
		p.mu.Unlock()
		return
	}
	t.exited = true
	var wake []func()
	for _, r := range p.tables.Held(t.tid) {
		p.tables.Release(t.tid, r)
		switch r.Kind {
		case resource.KindMutex:
			if m, ok := p.mutexes.get(r.ID); ok {
				wake = append(wake, m.Unlock)
			}
		case resource.KindSemaphore:
			if s, ok := p.semaphores.get(r.ID); ok {
				wake = append(wake, s.Up)
			}
		}
		releasesMetric.Increment(r.Kind.String())
	}
	p.tables.ClearNeed(t.tid)
	p.tasks.remove(t.tid)
	p.mu.Unlock()

	for _, fn := range wake {
		fn()
	}
	t.Debugf("exit, released %d units", len(wake))
}
