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
	"fmt"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"gvisor.dev/syncguard/pkg/abi/linux"
	"gvisor.dev/syncguard/pkg/errors/linuxerr"
	"gvisor.dev/syncguard/pkg/sentry/arch"
	"gvisor.dev/syncguard/pkg/sentry/kernel"
	"gvisor.dev/syncguard/pkg/sentry/kernel/resource"
)

func newTask(t *testing.T, p *kernel.Process) *kernel.Task {
	t.Helper()
	task, err := p.NewTask()
	if err != nil {
		t.Fatalf("NewTask() failed: %v", err)
	}
	return task
}

func invoke(t *testing.T, task *kernel.Task, sysno uintptr, want int64, args ...uintptr) {
	t.Helper()
	if got := Invoke(task, sysno, arch.Args(args...)); got != want {
		t.Errorf("syscall %d%v got: %d, want: %d", sysno, args, got, want)
	}
}

// neg returns the register value of a negative argument.
func neg(v int) uintptr {
	return uintptr(v)
}

func TestEncodeResult(t *testing.T) {
	for _, tc := range []struct {
		name string
		val  uintptr
		err  error
		want int64
	}{
		{name: "success", val: 5, want: 5},
		{name: "zero", want: 0},
		{name: "deadlock", err: linuxerr.EDEADLK, want: -0xDEAD},
		{name: "wrapped deadlock", err: fmt.Errorf("lock: %w", linuxerr.EDEADLK), want: -0xDEAD},
		{name: "errno deadlock", err: unix.EDEADLK, want: -0xDEAD},
		{name: "invalid", err: linuxerr.EINVAL, want: -1},
		{name: "bad handle", err: linuxerr.EBADF, want: -1},
		{name: "busy", err: linuxerr.EBUSY, want: -1},
		{name: "other", err: fmt.Errorf("boom"), want: -1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := encodeResult(tc.val, tc.err); got != tc.want {
				t.Errorf("encodeResult(%d, %v) got: %d, want: %d", tc.val, tc.err, got, tc.want)
			}
		})
	}
}

func TestSyncTable(t *testing.T) {
	st, ok := kernel.LookupSyscallTable("sync")
	if !ok || st != Sync {
		t.Fatalf("LookupSyscallTable(sync) got: %v, %t, want the Sync table", st, ok)
	}
	for num, sc := range Sync.Table {
		if sc.Name == "" || sc.Fn == nil {
			t.Errorf("syscall %d has name %q and fn %v", num, sc.Name, sc.Fn)
		}
		if Sync.Lookup(num) == nil {
			t.Errorf("Lookup(%d) got nil", num)
		}
	}
	for name, num := range map[string]uintptr{
		"mutex_create":           463,
		"mutex_lock":             464,
		"mutex_unlock":           466,
		"semaphore_create":       467,
		"semaphore_up":           468,
		"enable_deadlock_detect": 469,
		"semaphore_down":         470,
		"condvar_create":         471,
		"condvar_signal":         472,
		"condvar_wait":           473,
	} {
		if got := Sync.Table[num].Name; got != name {
			t.Errorf("syscall %d got name %q, want %q", num, got, name)
		}
	}
}

func TestInvoke(t *testing.T) {
	p := kernel.NewProcess(1, nil, kernel.Options{})
	task := newTask(t, p)

	invoke(t, task, linux.SYS_MUTEX_CREATE, 0, 1)
	invoke(t, task, linux.SYS_MUTEX_CREATE, 1, 0)
	invoke(t, task, linux.SYS_MUTEX_LOCK, 0, 1)
	invoke(t, task, linux.SYS_MUTEX_UNLOCK, 0, 1)
	invoke(t, task, linux.SYS_SEMAPHORE_CREATE, 0, 2)
	invoke(t, task, linux.SYS_SEMAPHORE_DOWN, 0, 0)
	invoke(t, task, linux.SYS_SEMAPHORE_DOWN, 0, 0)
	invoke(t, task, linux.SYS_SEMAPHORE_UP, 0, 0)
	invoke(t, task, linux.SYS_SEMAPHORE_UP, 0, 0)
	invoke(t, task, linux.SYS_CONDVAR_CREATE, 0)
	invoke(t, task, linux.SYS_CONDVAR_SIGNAL, 0, 0)
	invoke(t, task, linux.SYS_ENABLE_DEADLOCK_DETECT, 0, 1)
	invoke(t, task, linux.SYS_ENABLE_DEADLOCK_DETECT, 0, 0)
	invoke(t, task, linux.SYS_MUTEX_DESTROY, 0, 1)
	invoke(t, task, linux.SYS_SEMAPHORE_DESTROY, 0, 0)
	invoke(t, task, linux.SYS_CONDVAR_DESTROY, 0, 0)

	want := map[resource.Resource]uint64{resource.Mutex(0): 1}
	snap := p.Snapshot()
	if len(snap.Available) != 1 || snap.Available[resource.Mutex(0)] != 1 {
		t.Errorf("available got: %v, want: %v", snap.Available, want)
	}
}

func TestInvokeFailures(t *testing.T) {
	p := kernel.NewProcess(1, nil, kernel.Options{})
	task := newTask(t, p)
	invoke(t, task, linux.SYS_MUTEX_CREATE, 0, 1)
	invoke(t, task, linux.SYS_ENABLE_DEADLOCK_DETECT, 0, 1)

	for _, tc := range []struct {
		name  string
		sysno uintptr
		args  []uintptr
	}{
		{name: "unknown syscall", sysno: 999},
		{name: "unimplemented neighbour", sysno: 465},
		{name: "lock bad id", sysno: linux.SYS_MUTEX_LOCK, args: []uintptr{3}},
		{name: "lock negative id", sysno: linux.SYS_MUTEX_LOCK, args: []uintptr{neg(-1)}},
		{name: "unlock bad id", sysno: linux.SYS_MUTEX_UNLOCK, args: []uintptr{1}},
		{name: "up bad id", sysno: linux.SYS_SEMAPHORE_UP, args: []uintptr{0}},
		{name: "down bad id", sysno: linux.SYS_SEMAPHORE_DOWN, args: []uintptr{0}},
		{name: "signal bad id", sysno: linux.SYS_CONDVAR_SIGNAL, args: []uintptr{0}},
		{name: "wait bad id", sysno: linux.SYS_CONDVAR_WAIT, args: []uintptr{0, 0}},
		{name: "negative semaphore", sysno: linux.SYS_SEMAPHORE_CREATE, args: []uintptr{neg(-1)}},
		{name: "detect 2", sysno: linux.SYS_ENABLE_DEADLOCK_DETECT, args: []uintptr{2}},
		{name: "detect truncating to 1", sysno: linux.SYS_ENABLE_DEADLOCK_DETECT, args: []uintptr{1<<32 | 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			invoke(t, task, tc.sysno, -1, tc.args...)
		})
	}
	if !p.DeadlockDetection() {
		t.Errorf("rejected toggles changed the detection flag")
	}
}

func TestInvokeDeadlockDenied(t *testing.T) {
	p := kernel.NewProcess(1, nil, kernel.Options{})
	t0, t1 := newTask(t, p), newTask(t, p)
	invoke(t, t0, linux.SYS_ENABLE_DEADLOCK_DETECT, 0, 1)
	invoke(t, t0, linux.SYS_MUTEX_CREATE, 0, 1)
	invoke(t, t0, linux.SYS_MUTEX_CREATE, 1, 1)
	invoke(t, t0, linux.SYS_MUTEX_LOCK, 0, 0)
	invoke(t, t1, linux.SYS_MUTEX_LOCK, 0, 1)

	var g errgroup.Group
	g.Go(func() error {
		if r := Invoke(t0, linux.SYS_MUTEX_LOCK, arch.Args(1)); r != 0 {
			return fmt.Errorf("mutex_lock(1) from tid 0 returned %d", r)
		}
		return nil
	})
	deadline := time.Now().Add(10 * time.Second)
	for p.Snapshot().Need[0][resource.Mutex(1)] != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for tid 0 to block")
		}
		time.Sleep(time.Millisecond)
	}

	invoke(t, t1, linux.SYS_MUTEX_LOCK, -linux.DeadlockDenied, 0)
	invoke(t, t1, linux.SYS_MUTEX_UNLOCK, 0, 1)
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
