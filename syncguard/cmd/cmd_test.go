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
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	abilinux "gvisor.dev/syncguard/pkg/abi/linux"
	"gvisor.dev/syncguard/pkg/sentry/kernel/resource"
	"gvisor.dev/syncguard/syncguard/config"
)

const circularState = `
available: {}
allocation:
  - "mutex:0": 1
  - "mutex:1": 1
need:
  - "mutex:1": 1
  - "m:0": 1
`

func TestCheck(t *testing.T) {
	for _, tc := range []struct {
		name     string
		state    string
		wantSafe bool
		wantOut  string
	}{
		{
			name:    "circular wait",
			state:   circularState,
			wantOut: "UNSAFE deadlocked=[0 1]\n",
		},
		{
			name: "one thread can finish",
			state: `
available:
  "sem:0": 1
allocation:
  - "mutex:0": 1
  - {}
need:
  - "semaphore:0": 1
  - "mutex:0": 1
`,
			wantSafe: true,
			wantOut:  "SAFE order=[0 1]\n",
		},
		{
			name:     "empty",
			state:    "available: {}\n",
			wantSafe: true,
			wantOut:  "SAFE order=[]\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			safe, err := check(&out, strings.NewReader(tc.state))
			if err != nil {
				t.Fatalf("check() failed: %v", err)
			}
			if safe != tc.wantSafe {
				t.Errorf("check() got safe: %t, want: %t", safe, tc.wantSafe)
			}
			if got := out.String(); got != tc.wantOut {
				t.Errorf("check() output got: %q, want: %q", got, tc.wantOut)
			}
		})
	}
}

func TestDecodeStateErrors(t *testing.T) {
	for _, state := range []string{
		"available:\n  \"lock:0\": 1\n",
		"available:\n  \"mutex\": 1\n",
		"allocation:\n  - \"mutex:x\": 1\n",
		"need:\n  - \"mutex:-1\": 1\n",
		"bogus: 1\n",
		"available: [\n",
	} {
		if _, err := decodeState(strings.NewReader(state)); err == nil {
			t.Errorf("decodeState(%q) succeeded, want error", state)
		}
	}
}

func TestEncodeState(t *testing.T) {
	want, err := decodeState(strings.NewReader(circularState))
	if err != nil {
		t.Fatalf("decodeState() failed: %v", err)
	}
	var buf bytes.Buffer
	if err := encodeState(&buf, want); err != nil {
		t.Fatalf("encodeState() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "mutex:1") {
		t.Errorf("encodeState() output %q does not name mutex:1", buf.String())
	}
	got, err := decodeState(&buf)
	if err != nil {
		t.Fatalf("decodeState() of encoded state failed: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCall(t *testing.T) {
	for _, tc := range []struct {
		text    string
		want    call
		wantErr bool
	}{
		{text: "lock 0", want: call{sysno: abilinux.SYS_MUTEX_LOCK, args: []uintptr{0}}},
		{text: "semaphore_down 2", want: call{sysno: abilinux.SYS_SEMAPHORE_DOWN, args: []uintptr{2}}},
		{text: "wait 1 3", want: call{sysno: abilinux.SYS_CONDVAR_WAIT, args: []uintptr{1, 3}}},
		{text: "  detect   1 ", want: call{sysno: abilinux.SYS_ENABLE_DEADLOCK_DETECT, args: []uintptr{1}}},
		{text: "condvar_create", want: call{sysno: abilinux.SYS_CONDVAR_CREATE}},
		{text: "", wantErr: true},
		{text: "fork", wantErr: true},
		{text: "lock zero", wantErr: true},
	} {
		got, err := parseCall(tc.text)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseCall(%q) succeeded, want error", tc.text)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseCall(%q) failed: %v", tc.text, err)
			continue
		}
		tc.want.text = tc.text
		if diff := cmp.Diff(tc.want, got, cmp.AllowUnexported(call{})); diff != "" {
			t.Errorf("parseCall(%q) mismatch (-want +got):\n%s", tc.text, diff)
		}
	}
}

func testConfig() *config.Config {
	return &config.Config{
		LogFormat:            "text",
		RetryInitialInterval: time.Millisecond,
		RetryMaxElapsed:      50 * time.Millisecond,
	}
}

func runScenario(t *testing.T, text string, timeout time.Duration) (resource.Snapshot, error) {
	t.Helper()
	sc, calls, err := decodeScenario(strings.NewReader(text))
	if err != nil {
		t.Fatalf("decodeScenario() failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	p, err := replay(ctx, testConfig(), sc, calls)
	if err != nil {
		return resource.Snapshot{}, err
	}
	return p.Snapshot(), nil
}

func TestReplay(t *testing.T) {
	snap, err := runScenario(t, `
detect: true
mutexes: [{blocking: true}, {blocking: false}]
semaphores: [2]
condvars: 1
threads:
  - ["lock 0", "lock 1", "unlock 1", "unlock 0", "signal 0"]
  - ["down 0", "lock 0", "lock 1", "unlock 1", "unlock 0", "up 0"]
  - ["down 0", "lock 0", "unlock 0"]
`, 10*time.Second)
	if err != nil {
		t.Fatalf("replay() failed: %v", err)
	}
	s0, m0, m1 := resource.Semaphore(0), resource.Mutex(0), resource.Mutex(1)
	want := map[resource.Resource]uint64{s0: 1, m0: 1, m1: 1}
	if diff := cmp.Diff(want, snap.Available); diff != "" {
		t.Errorf("available mismatch (-want +got):\n%s", diff)
	}
	if got := snap.Allocation[2][s0]; got != 1 {
		t.Errorf("tid 2 holds %d units of %v, want 1", got, s0)
	}
	if !snap.DetectionEnabled {
		t.Errorf("detection disabled after replay")
	}
}

func TestReplayFailures(t *testing.T) {
	for _, tc := range []struct {
		name     string
		scenario string
		want     string
	}{
		{
			name:     "bad handle",
			scenario: `threads: [["lock 5"]]`,
			want:     `"lock 5" failed`,
		},
		{
			name: "self deadlock denied",
			scenario: `
detect: true
mutexes: [{blocking: true}]
threads: [["lock 0", "lock 0"]]
`,
			want: `"lock 0" denied`,
		},
		{
			name: "self deadlock undetected",
			scenario: `
detect: false
mutexes: [{blocking: true}]
threads: [["lock 0", "lock 0"]]
`,
			want: "deadlocked threads [0]",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runScenario(t, tc.scenario, time.Second)
			if err == nil {
				t.Fatalf("replay() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("replay() error %q does not contain %q", err, tc.want)
			}
		})
	}
}

func TestDecodeScenarioErrors(t *testing.T) {
	for _, text := range []string{
		"mutexes: []\n",
		"threads: [[\"jump 1\"]]\n",
		"threads: [[\"lock\"]]\nextra: 1\n",
	} {
		if _, _, err := decodeScenario(strings.NewReader(text)); err == nil {
			t.Errorf("decodeScenario(%q) succeeded, want error", text)
		}
	}
}

func TestSyscallsOutput(t *testing.T) {
	info, err := getTableInfo("sync")
	if err != nil {
		t.Fatalf("getTableInfo(sync) failed: %v", err)
	}
	if got := len(info["sync"]); got != 13 {
		t.Errorf("sync table has %d syscalls, want 13", got)
	}
	if first := info["sync"][0]; first.Num != abilinux.SYS_MUTEX_CREATE || first.Name != "mutex_create" {
		t.Errorf("first syscall got: %+v, want mutex_create", first)
	}
	if _, err := getTableInfo("nope"); err == nil {
		t.Errorf("getTableInfo(nope) succeeded, want error")
	}

	for name, out := range outputMap {
		var buf bytes.Buffer
		if err := out(&buf, info); err != nil {
			t.Errorf("output %s failed: %v", name, err)
		}
		if !strings.Contains(buf.String(), "enable_deadlock_detect") {
			t.Errorf("output %s does not list enable_deadlock_detect:\n%s", name, buf.String())
		}
	}
}
