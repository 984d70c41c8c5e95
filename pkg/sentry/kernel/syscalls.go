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
	"fmt"
	"sort"

	"gvisor.dev/syncguard/pkg/sentry/arch"
	"gvisor.dev/syncguard/pkg/sync"
)

// maxSyscallNum is the highest syscall number served from the dense lookup
// slice. Larger numbers fall back to the map.
const maxSyscallNum = 2000

// SyscallFn is a syscall implementation.
type SyscallFn func(t *Task, args arch.SyscallArguments) (uintptr, error)

// Syscall describes one entry of a SyscallTable.
type Syscall struct {
	// Name is the syscall name.
	Name string

	// Fn is the implementation. A nil Fn makes the syscall unimplemented.
	Fn SyscallFn

	// Note is an optional human readable description of the arguments.
	Note string
}

// SyscallTable is a mapping from syscall numbers to implementations.
type SyscallTable struct {
	// Name identifies the table.
	Name string

	// Table is the collection of functions, keyed by syscall number.
	Table map[uintptr]Syscall

	// lookup is a fixed-size array that holds the syscalls (indexed by
	// their numbers). It is used for fast look ups.
	lookup []SyscallFn
}

var (
	syscallTablesMu  sync.Mutex
	allSyscallTables []*SyscallTable
)

// SyscallTables returns a read-only slice of registered SyscallTables.
func SyscallTables() []*SyscallTable {
	syscallTablesMu.Lock()
	defer syscallTablesMu.Unlock()
	return append([]*SyscallTable(nil), allSyscallTables...)
}

// LookupSyscallTable returns the SyscallTable registered under name.
func LookupSyscallTable(name string) (*SyscallTable, bool) {
	syscallTablesMu.Lock()
	defer syscallTablesMu.Unlock()
	for _, s := range allSyscallTables {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// RegisterSyscallTable initializes s and registers it. Registering two tables
// with the same name panics.
func RegisterSyscallTable(s *SyscallTable) {
	syscallTablesMu.Lock()
	defer syscallTablesMu.Unlock()
	for _, o := range allSyscallTables {
		if o.Name == s.Name {
			panic(fmt.Sprintf("duplicate syscall table %q", s.Name))
		}
	}
	s.Init()
	allSyscallTables = append(allSyscallTables, s)
}

// Init initializes the dense lookup slice.
func (s *SyscallTable) Init() {
	if s.Table == nil {
		s.Table = make(map[uintptr]Syscall)
	}
	hi := uintptr(0)
	for num := range s.Table {
		if num > hi && num <= maxSyscallNum {
			hi = num
		}
	}
	s.lookup = make([]SyscallFn, hi+1)
	for num, sc := range s.Table {
		if num <= maxSyscallNum {
			s.lookup[num] = sc.Fn
		}
	}
}

// Lookup returns the syscall implementation, if one exists.
func (s *SyscallTable) Lookup(sysno uintptr) SyscallFn {
	if sysno < uintptr(len(s.lookup)) {
		return s.lookup[sysno]
	}
	return s.mapLookup(sysno)
}

// mapLookup is similar to Lookup, except that it only uses the syscall table,
// that is, it skips the fast look array. This is available for benchmarking.
func (s *SyscallTable) mapLookup(sysno uintptr) SyscallFn {
	if sc, ok := s.Table[sysno]; ok {
		return sc.Fn
	}
	return nil
}

// Numbers returns the syscall numbers of s in ascending order.
func (s *SyscallTable) Numbers() []uintptr {
	nums := make([]uintptr, 0, len(s.Table))
	for num := range s.Table {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums
}
