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
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gvisor.dev/syncguard/pkg/sentry/kernel"
	"gvisor.dev/syncguard/pkg/sentry/syscalls/linux"
)

// scenario is the YAML description of a replay: the objects of one process
// and the calls each of its threads makes.
type scenario struct {
	// Detect overrides the configured initial detection state if set.
	Detect *bool `yaml:"detect"`

	// Mutexes lists the mutexes to create, in id order.
	Mutexes []mutexSpec `yaml:"mutexes"`

	// Semaphores lists the initial counts of the semaphores to create, in
	// id order.
	Semaphores []int `yaml:"semaphores"`

	// Condvars is the number of condition variables to create.
	Condvars int `yaml:"condvars"`

	// Threads holds one list of calls per thread, indexed by tid. A call is
	// written "NAME ARG...", e.g. "lock 0" or "wait 0 1".
	Threads [][]string `yaml:"threads"`
}

type mutexSpec struct {
	Blocking bool `yaml:"blocking"`
}

// call is one parsed scenario step.
type call struct {
	text  string
	sysno uintptr
	args  []uintptr
}

// callAliases maps short call names to syscall names.
var callAliases = map[string]string{
	"lock":    "mutex_lock",
	"unlock":  "mutex_unlock",
	"down":    "semaphore_down",
	"up":      "semaphore_up",
	"signal":  "condvar_signal",
	"wait":    "condvar_wait",
	"detect":  "enable_deadlock_detect",
	"destroy": "mutex_destroy",
}

// syscallNumber returns the number of the named syscall in table.
func syscallNumber(table *kernel.SyscallTable, name string) (uintptr, bool) {
	if alias, ok := callAliases[name]; ok {
		name = alias
	}
	for num, sc := range table.Table {
		if sc.Name == name {
			return num, true
		}
	}
	return 0, false
}

func parseCall(text string) (call, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return call{}, fmt.Errorf("empty call")
	}
	sysno, ok := syscallNumber(linux.Sync, fields[0])
	if !ok {
		return call{}, fmt.Errorf("call %q: unknown syscall %q", text, fields[0])
	}
	c := call{text: text, sysno: sysno}
	for _, f := range fields[1:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return call{}, fmt.Errorf("call %q: invalid argument %q", text, f)
		}
		c.args = append(c.args, uintptr(v))
	}
	return c, nil
}

// decodeScenario reads a scenario from r and parses its calls.
func decodeScenario(r io.Reader) (*scenario, [][]call, error) {
	var sc scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, nil, fmt.Errorf("decoding scenario: %w", err)
	}
	if len(sc.Threads) == 0 {
		return nil, nil, fmt.Errorf("scenario has no threads")
	}
	calls := make([][]call, len(sc.Threads))
	for tid, steps := range sc.Threads {
		for i, text := range steps {
			c, err := parseCall(text)
			if err != nil {
				return nil, nil, fmt.Errorf("thread %d step %d: %w", tid, i, err)
			}
			calls[tid] = append(calls[tid], c)
		}
	}
	return &sc, calls, nil
}
