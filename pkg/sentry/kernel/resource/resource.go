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

// Package resource implements the per-process resource accounting used to
// avoid deadlocks among threads blocking on mutexes and semaphores.
//
// Every mutex and semaphore created by a process contributes units of a
// Resource. The process's Tables record how many units are free
// (available), how many each thread holds (allocation) and how many each
// thread is blocked waiting for (need). Before a thread is allowed to block
// on a primitive, the Banker's algorithm safety check (CheckSafety) decides
// whether every thread could still run to completion.
//
// Nothing in this package synchronizes: callers serialize access to a Tables
// with the owning process's lock.
package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes the resource families.
type Kind int

const (
	// KindMutex identifies mutex resources. A mutex has capacity 1.
	KindMutex Kind = iota

	// KindSemaphore identifies counting semaphore resources.
	KindSemaphore
)

// String implements fmt.Stringer.String.
func (k Kind) String() string {
	switch k {
	case KindMutex:
		return "mutex"
	case KindSemaphore:
		return "semaphore"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Resource identifies a countable lock-like object of a process. Resources
// with different kinds are distinct even when their IDs are equal.
type Resource struct {
	Kind Kind
	ID   int
}

// Mutex returns the Resource for the mutex in registry slot id.
func Mutex(id int) Resource {
	return Resource{Kind: KindMutex, ID: id}
}

// Semaphore returns the Resource for the semaphore in registry slot id.
func Semaphore(id int) Resource {
	return Resource{Kind: KindSemaphore, ID: id}
}

// String implements fmt.Stringer.String.
func (r Resource) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Less orders resources by kind, then by ID.
func (r Resource) Less(o Resource) bool {
	if r.Kind != o.Kind {
		return r.Kind < o.Kind
	}
	return r.ID < o.ID
}

// Parse parses the String form of a Resource. The kind may be abbreviated
// as "m" or "s"/"sem".
func Parse(s string) (Resource, error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Resource{}, fmt.Errorf("resource %q: want KIND:ID", s)
	}
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 {
		return Resource{}, fmt.Errorf("resource %q: invalid id %q", s, id)
	}
	switch strings.ToLower(kind) {
	case "mutex", "m":
		return Mutex(n), nil
	case "semaphore", "sem", "s":
		return Semaphore(n), nil
	default:
		return Resource{}, fmt.Errorf("resource %q: unknown kind %q", s, kind)
	}
}
