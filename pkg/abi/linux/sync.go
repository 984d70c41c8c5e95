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

// Package linux contains the constants and types shared between the sync
// syscall family and its userspace callers.
package linux

// Syscall numbers for the process-local synchronization calls.
const (
	SYS_MUTEX_CREATE           = 463
	SYS_MUTEX_LOCK             = 464
	SYS_MUTEX_UNLOCK           = 466
	SYS_SEMAPHORE_CREATE       = 467
	SYS_SEMAPHORE_UP           = 468
	SYS_ENABLE_DEADLOCK_DETECT = 469
	SYS_SEMAPHORE_DOWN         = 470
	SYS_CONDVAR_CREATE         = 471
	SYS_CONDVAR_SIGNAL         = 472
	SYS_CONDVAR_WAIT           = 473
	SYS_MUTEX_DESTROY          = 474
	SYS_SEMAPHORE_DESTROY      = 475
	SYS_CONDVAR_DESTROY        = 476
)

// DeadlockDenied is the magnitude of the result returned by lock and down
// calls that were refused because admitting them would leave the process in
// an unsafe state. Callers observe it as -DeadlockDenied, which never
// collides with the generic -1 failure.
const DeadlockDenied = 0xDEAD

// Values accepted by SYS_ENABLE_DEADLOCK_DETECT.
const (
	DEADLOCK_DETECT_OFF = 0
	DEADLOCK_DETECT_ON  = 1
)
