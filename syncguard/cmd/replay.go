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

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	abilinux "gvisor.dev/syncguard/pkg/abi/linux"
	"gvisor.dev/syncguard/pkg/log"
	"gvisor.dev/syncguard/pkg/metric"
	"gvisor.dev/syncguard/pkg/sentry/arch"
	"gvisor.dev/syncguard/pkg/sentry/kernel"
	"gvisor.dev/syncguard/pkg/sentry/syscalls/linux"
	"gvisor.dev/syncguard/syncguard/cmd/util"
	"gvisor.dev/syncguard/syncguard/config"
)

// Replay implements subcommands.Command for the "replay" command.
type Replay struct {
	timeout time.Duration
	metrics bool
}

// Name implements subcommands.Command.Name.
func (*Replay) Name() string {
	return "replay"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Replay) Synopsis() string {
	return "run a multi-threaded sync scenario against a simulated process"
}

// Usage implements subcommands.Command.Usage.
func (*Replay) Usage() string {
	return `replay [flags] <scenario file> - run a sync scenario.

The scenario file is YAML:

  detect: true
  mutexes: [{blocking: true}, {blocking: true}]
  semaphores: [2]
  condvars: 0
  threads:
    - ["lock 0", "lock 1", "unlock 1", "unlock 0"]
    - ["down 0", "lock 0", "unlock 0", "up 0"]

Every thread runs concurrently. Calls denied to avoid a deadlock are retried
with exponential backoff until --retry-max-elapsed; a thread that keeps
holding what the others wait for is denied every time. The final accounting
state is printed on success.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Replay) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&r.timeout, "timeout", time.Minute, "fail if the threads have not finished after this long.")
	f.BoolVar(&r.metrics, "metrics", false, "print the sync metrics after the run.")
}

// Execute implements subcommands.Command.Execute.
func (r *Replay) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)
	path := f.Arg(0)
	file, err := os.Open(path)
	if err != nil {
		util.Fatalf("opening scenario file: %v", err)
	}
	defer file.Close()

	sc, calls, err := decodeScenario(file)
	if err != nil {
		util.Fatalf("%q: %v", path, err)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	p, err := replay(ctx, conf, sc, calls)
	if err != nil {
		util.Fatalf("replaying %q: %v", path, err)
	}
	if err := encodeState(os.Stdout, p.Snapshot()); err != nil {
		util.Fatalf("writing state: %v", err)
	}
	if r.metrics {
		if err := metric.WriteText(os.Stdout); err != nil {
			util.Fatalf("writing metrics: %v", err)
		}
	}
	return subcommands.ExitSuccess
}

// newBackOff returns the retry policy for denied calls.
func newBackOff(ctx context.Context, conf *config.Config) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = conf.RetryInitialInterval
	b.MaxInterval = 100 * conf.RetryInitialInterval
	b.MaxElapsedTime = conf.RetryMaxElapsed
	return backoff.WithContext(b, ctx)
}

// setupObjects creates the scenario's objects from t.
func setupObjects(t *kernel.Task, sc *scenario) error {
	create := func(what string, i int, sysno uintptr, arg uintptr) error {
		if got := linux.Invoke(t, sysno, arch.Args(arg)); got != int64(i) {
			return fmt.Errorf("creating %s %d: got result %d", what, i, got)
		}
		return nil
	}
	for i, m := range sc.Mutexes {
		blocking := uintptr(0)
		if m.Blocking {
			blocking = 1
		}
		if err := create("mutex", i, abilinux.SYS_MUTEX_CREATE, blocking); err != nil {
			return err
		}
	}
	for i, count := range sc.Semaphores {
		if err := create("semaphore", i, abilinux.SYS_SEMAPHORE_CREATE, uintptr(count)); err != nil {
			return err
		}
	}
	for i := 0; i < sc.Condvars; i++ {
		if err := create("condvar", i, abilinux.SYS_CONDVAR_CREATE, 0); err != nil {
			return err
		}
	}
	return nil
}

// runThread executes calls from t, retrying denied ones.
func runThread(ctx context.Context, conf *config.Config, t *kernel.Task, calls []call, denials *atomic.Uint64) error {
	for i, c := range calls {
		op := func() error {
			switch got := linux.Invoke(t, c.sysno, arch.Args(c.args...)); got {
			case -abilinux.DeadlockDenied:
				denials.Add(1)
				log.Infof("tid %d: %q denied, backing off", t.TID(), c.text)
				return fmt.Errorf("%q denied", c.text)
			case -1:
				return backoff.Permanent(fmt.Errorf("%q failed", c.text))
			default:
				return nil
			}
		}
		if err := backoff.Retry(op, newBackOff(ctx, conf)); err != nil {
			return fmt.Errorf("tid %d step %d: %w", t.TID(), i, err)
		}
	}
	return nil
}

// replay runs the scenario and returns the process once every thread has
// finished. If ctx expires first, threads still blocked inside a primitive
// are abandoned.
func replay(ctx context.Context, conf *config.Config, sc *scenario, calls [][]call) (*kernel.Process, error) {
	opts := conf.ProcessOptions()
	if sc.Detect != nil {
		opts.DetectDeadlock = *sc.Detect
	}
	p := kernel.NewProcess(1, nil, opts)
	tasks := make([]*kernel.Task, len(calls))
	for i := range tasks {
		t, err := p.NewTask()
		if err != nil {
			return nil, err
		}
		tasks[i] = t
	}
	if err := setupObjects(tasks[0], sc); err != nil {
		return nil, err
	}

	var denials atomic.Uint64
	g, gctx := errgroup.WithContext(ctx)
	for tid, t := range tasks {
		g.Go(func() error {
			return runThread(gctx, conf, t, calls[tid], &denials)
		})
	}
	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()
	select {
	case err := <-done:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		res := p.CheckSafety()
		return nil, fmt.Errorf("threads did not finish: %w (deadlocked threads %v)", ctx.Err(), res.Deadlocked)
	}
	log.Infof("Replay finished, %d denied calls retried", denials.Load())
	return p, nil
}

