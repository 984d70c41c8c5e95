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

// Package linux provides the process-local synchronization syscalls and the
// table that dispatches them.
package linux

import (
	"gvisor.dev/syncguard/pkg/abi/linux"
	"gvisor.dev/syncguard/pkg/errors/linuxerr"
	"gvisor.dev/syncguard/pkg/log"
	"gvisor.dev/syncguard/pkg/sentry/arch"
	"gvisor.dev/syncguard/pkg/sentry/kernel"
)

// Sync is the table of process-local synchronization syscalls.
var Sync = &kernel.SyscallTable{
	Name: "sync",
	Table: map[uintptr]kernel.Syscall{
		linux.SYS_MUTEX_CREATE:           {Name: "mutex_create", Fn: MutexCreate, Note: "blocking"},
		linux.SYS_MUTEX_LOCK:             {Name: "mutex_lock", Fn: MutexLock, Note: "mutex_id"},
		linux.SYS_MUTEX_UNLOCK:           {Name: "mutex_unlock", Fn: MutexUnlock, Note: "mutex_id"},
		linux.SYS_SEMAPHORE_CREATE:       {Name: "semaphore_create", Fn: SemaphoreCreate, Note: "count"},
		linux.SYS_SEMAPHORE_UP:           {Name: "semaphore_up", Fn: SemaphoreUp, Note: "sem_id"},
		linux.SYS_ENABLE_DEADLOCK_DETECT: {Name: "enable_deadlock_detect", Fn: EnableDeadlockDetect, Note: "enabled (0 or 1)"},
		linux.SYS_SEMAPHORE_DOWN:         {Name: "semaphore_down", Fn: SemaphoreDown, Note: "sem_id"},
		linux.SYS_CONDVAR_CREATE:         {Name: "condvar_create", Fn: CondvarCreate},
		linux.SYS_CONDVAR_SIGNAL:         {Name: "condvar_signal", Fn: CondvarSignal, Note: "condvar_id"},
		linux.SYS_CONDVAR_WAIT:           {Name: "condvar_wait", Fn: CondvarWait, Note: "condvar_id, mutex_id"},
		linux.SYS_MUTEX_DESTROY:          {Name: "mutex_destroy", Fn: MutexDestroy, Note: "mutex_id"},
		linux.SYS_SEMAPHORE_DESTROY:      {Name: "semaphore_destroy", Fn: SemaphoreDestroy, Note: "sem_id"},
		linux.SYS_CONDVAR_DESTROY:        {Name: "condvar_destroy", Fn: CondvarDestroy, Note: "condvar_id"},
	},
}

func init() {
	kernel.RegisterSyscallTable(Sync)
}

// Invoke executes syscall sysno from t and returns the value seen by the
// caller: the result on success, -linux.DeadlockDenied if the call was
// refused to avoid a deadlock, and -1 on any other failure.
func Invoke(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) int64 {
	fn := Sync.Lookup(sysno)
	if fn == nil {
		log.Warningf("pid[%d] tid[%d] unsupported syscall %d", t.Process().PID(), t.TID(), sysno)
		return encodeResult(0, linuxerr.ENOSYS)
	}
	return encodeResult(fn(t, args))
}
