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
	"time"

	"gvisor.dev/syncguard/pkg/errors/linuxerr"
	"gvisor.dev/syncguard/pkg/log"
	"gvisor.dev/syncguard/pkg/sentry/kernel/ksync"
	"gvisor.dev/syncguard/pkg/sentry/kernel/resource"
	"gvisor.dev/syncguard/pkg/sync"
)

// denialLogInterval bounds how often deadlock denials are logged per process.
const denialLogInterval = time.Second

// Options configures a Process.
type Options struct {
	// DetectDeadlock is the initial state of deadlock detection.
	DetectDeadlock bool

	// PreserveDeniedRequests keeps the bookkeeping of a request that was
	// denied by the safety check instead of rolling it back. The denied
	// thread then remains recorded as holding or needing the unit.
	PreserveDeniedRequests bool

	// Logger receives the process's log output. If nil, the global logger
	// is used.
	Logger log.Logger
}

// Process is the unit of resource accounting: the threads of a process
// share its synchronization objects and its deadlock avoidance state.
type Process struct {
	pid     int
	factory ksync.Factory
	opts    Options
	logger  log.Logger

	// denials is a rate limited view of logger.
	denials log.Logger

	// mu serializes every access to the fields below. It is never held
	// while a thread is blocked inside a primitive.
	mu processMutex

	// +checklocks:mu
	tables resource.Tables

	// +checklocks:mu
	mutexes objectTable[ksync.Mutex]

	// +checklocks:mu
	semaphores objectTable[ksync.Semaphore]

	// +checklocks:mu
	condvars objectTable[ksync.Condvar]

	// tasks is indexed by tid.
	//
	// +checklocks:mu
	tasks objectTable[*Task]

	// +checklocks:mu
	exited bool
}

// processMutex is the lock type of Process.mu.
type processMutex struct {
	mu sync.Mutex
}

// Lock locks m.
// +checklocksignore
func (m *processMutex) Lock() {
	m.mu.Lock()
}

// Unlock unlocks m.
// +checklocksignore
func (m *processMutex) Unlock() {
	m.mu.Unlock()
}

// NewProcess returns a process with no threads. Primitives are created with
// factory; a nil factory selects ksync.Primitives.
func NewProcess(pid int, factory ksync.Factory, opts Options) *Process {
	if factory == nil {
		factory = ksync.Primitives{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Log()
	}
	p := &Process{
		pid:     pid,
		factory: factory,
		opts:    opts,
		logger:  logger,
		denials: log.RateLimitedLogger(logger, denialLogInterval),
	}
	p.tables.SetDetection(opts.DetectDeadlock)
	return p
}

// PID returns the process ID.
func (p *Process) PID() int {
	return p.pid
}

// NewTask adds a thread to p. The lowest free tid is used.
func (p *Process) NewTask() (*Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return nil, linuxerr.ESRCH
	}
	t := &Task{p: p}
	t.tid = p.tasks.add(t)
	p.logger.Debugf("pid[%d] tid[%d] created", p.pid, t.tid)
	return t, nil
}

// Task returns the live thread with the given tid.
func (p *Process) Task(tid int) (*Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.get(tid)
}

// NumTasks returns the number of live threads.
func (p *Process) NumTasks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks.len()
}

// DeadlockDetection returns true if lock and down requests are subject to
// the safety check.
func (p *Process) DeadlockDetection() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tables.DetectionEnabled()
}

// Snapshot returns a consistent copy of the process's accounting state.
func (p *Process) Snapshot() resource.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tables.Snapshot()
}

// CheckSafety runs the safety check over the current state without changing
// it.
func (p *Process) CheckSafety() resource.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tables.Check()
}

// Exit discards every synchronization object and all accounting state.
// Threads still blocked inside a primitive are not woken. Subsequent calls
// on p or its tasks fail with ESRCH.
func (p *Process) Exit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return
	}
	p.exited = true
	p.tables = resource.Tables{}
	p.mutexes = objectTable[ksync.Mutex]{}
	p.semaphores = objectTable[ksync.Semaphore]{}
	p.condvars = objectTable[ksync.Condvar]{}
	p.tasks.forEach(func(_ int, t *Task) {
		t.exited = true
	})
	p.tasks = objectTable[*Task]{}
	p.logger.Debugf("pid[%d] exited", p.pid)
}
