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

package linux

import (
	"gvisor.dev/syncguard/pkg/errors/linuxerr"
	"gvisor.dev/syncguard/pkg/sentry/arch"
	"gvisor.dev/syncguard/pkg/sentry/kernel"
)

// MutexCreate handles: mutex_create(bool blocking)
func MutexCreate(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	blocking := args[0].Bool()
	id, err := t.CreateMutex(blocking)
	if err != nil {
		return 0, err
	}
	return uintptr(id), nil
}

// MutexLock handles: mutex_lock(int mutex_id)
func MutexLock(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	id := int(args[0].Int())
	return 0, t.LockMutex(id)
}

// MutexUnlock handles: mutex_unlock(int mutex_id)
func MutexUnlock(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	id := int(args[0].Int())
	return 0, t.UnlockMutex(id)
}

// MutexDestroy handles: mutex_destroy(int mutex_id)
func MutexDestroy(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	id := int(args[0].Int())
	return 0, t.DestroyMutex(id)
}

// SemaphoreCreate handles: semaphore_create(int count)
func SemaphoreCreate(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	count := int(args[0].Int())
	id, err := t.CreateSemaphore(count)
	if err != nil {
		return 0, err
	}
	return uintptr(id), nil
}

// SemaphoreUp handles: semaphore_up(int sem_id)
func SemaphoreUp(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	id := int(args[0].Int())
	return 0, t.SemaphoreUp(id)
}

// SemaphoreDown handles: semaphore_down(int sem_id)
func SemaphoreDown(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	id := int(args[0].Int())
	return 0, t.SemaphoreDown(id)
}

// SemaphoreDestroy handles: semaphore_destroy(int sem_id)
func SemaphoreDestroy(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	id := int(args[0].Int())
	return 0, t.DestroySemaphore(id)
}

// CondvarCreate handles: condvar_create()
func CondvarCreate(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	id, err := t.CreateCondvar()
	if err != nil {
		return 0, err
	}
	return uintptr(id), nil
}

// CondvarSignal handles: condvar_signal(int condvar_id)
func CondvarSignal(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	id := int(args[0].Int())
	return 0, t.CondvarSignal(id)
}

// CondvarWait handles: condvar_wait(int condvar_id, int mutex_id)
func CondvarWait(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	id := int(args[0].Int())
	mutexID := int(args[1].Int())
	return 0, t.CondvarWait(id, mutexID)
}

// CondvarDestroy handles: condvar_destroy(int condvar_id)
func CondvarDestroy(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	id := int(args[0].Int())
	return 0, t.DestroyCondvar(id)
}

// EnableDeadlockDetect handles: enable_deadlock_detect(int enabled)
func EnableDeadlockDetect(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	// Only the full register value 0 or 1 is accepted.
	v := args[0].Int64()
	if v != int64(int32(v)) {
		return 0, linuxerr.EINVAL
	}
	return 0, t.SetDeadlockDetection(int(v))
}
