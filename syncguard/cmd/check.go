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
	"io"
	"os"

	"github.com/google/subcommands"

	"gvisor.dev/syncguard/pkg/log"
	"gvisor.dev/syncguard/pkg/sentry/kernel/resource"
	"gvisor.dev/syncguard/syncguard/cmd/util"
)

// Check implements subcommands.Command for the "check" command.
type Check struct {
	quiet bool
}

// Name implements subcommands.Command.Name.
func (*Check) Name() string {
	return "check"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Check) Synopsis() string {
	return "run the deadlock safety check over a saved accounting state"
}

// Usage implements subcommands.Command.Usage.
func (*Check) Usage() string {
	return `check [flags] <state file> - run the deadlock safety check.

The state file is YAML with the keys "available", "allocation" and "need".
"available" maps resources ("mutex:0", "semaphore:1") to free units, and
"allocation" and "need" hold one such map per thread, indexed by tid.

Exits with status 0 if the state is safe and 1 if it is not.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *Check) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "q", false, "print nothing, only set the exit status.")
}

// Execute implements subcommands.Command.Execute.
func (c *Check) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)
	file, err := os.Open(path)
	if err != nil {
		util.Fatalf("opening state file: %v", err)
	}
	defer file.Close()

	out := io.Writer(os.Stdout)
	if c.quiet {
		out = io.Discard
	}
	safe, err := check(out, file)
	if err != nil {
		util.Fatalf("checking %q: %v", path, err)
	}
	if !safe {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// check reads a state from r, runs the safety check and reports the result
// to w.
func check(w io.Writer, r io.Reader) (bool, error) {
	s, err := decodeState(r)
	if err != nil {
		return false, err
	}
	res := resource.FromSnapshot(s).Check()
	log.Debugf("Safety check: %+v", res)
	if res.Safe {
		fmt.Fprintf(w, "SAFE order=%v\n", res.Order)
	} else {
		fmt.Fprintf(w, "UNSAFE deadlocked=%v\n", res.Deadlocked)
	}
	return res.Safe, nil
}
