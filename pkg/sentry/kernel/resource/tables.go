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

package resource

import (
	"github.com/mohae/deepcopy"
)

// Tables is the resource accounting state of one process.
//
// The allocation and need rows are indexed by thread ID and grow on demand;
// they are never shrunk, so the row of an exited thread stays in place (and
// is empty once the thread has released everything).
type Tables struct {
	// available counts units not held by any thread.
	available Counter

	// allocation[tid] counts the units held by thread tid.
	allocation []Counter

	// need[tid] counts the units thread tid is blocked waiting for.
	need []Counter

	// detect enables the safety check on requests.
	detect bool
}

// extend makes sure rows exist for tid.
func (t *Tables) extend(tid int) {
	for len(t.allocation) <= tid {
		t.allocation = append(t.allocation, Counter{})
	}
	for len(t.need) <= tid {
		t.need = append(t.need, Counter{})
	}
}

// SetDetection enables or disables the safety check. It takes effect with the
// next request and does not re-examine threads that are already blocked.
func (t *Tables) SetDetection(enabled bool) {
	t.detect = enabled
}

// DetectionEnabled returns true if requests are subject to the safety check.
func (t *Tables) DetectionEnabled() bool {
	return t.detect
}

// Add records n new units of r, typically when a mutex or semaphore is
// created.
func (t *Tables) Add(r Resource, n uint64) {
	t.available.Increase(r, n)
}

// Request records that thread tid asks for one unit of r. If a unit is
// available it is moved to the thread's allocation and Request returns true.
// Otherwise a need of one unit is recorded and Request returns false.
func (t *Tables) Request(tid int, r Resource) bool {
	t.extend(tid)
	got := t.available.Take(r, 1)
	t.allocation[tid].Increase(r, got)
	t.need[tid].Increase(r, 1-got)
	return got == 1
}

// Undo reverses a Request by tid for r. granted must be the value returned
// by that Request.
func (t *Tables) Undo(tid int, r Resource, granted bool) {
	t.extend(tid)
	if granted {
		t.available.Increase(r, t.allocation[tid].Take(r, 1))
		return
	}
	t.need[tid].Take(r, 1)
}

// Acquired is called once thread tid returns from blocking on r after a
// Request that was not granted. It settles one unit of the thread's need for
// r. If the releasing thread made a unit available, that unit is moved into
// the thread's allocation and Acquired returns true. Otherwise the unit was
// produced by a thread that did not hold one (an up on a semaphore it never
// downed), which the tables do not track, and only the need is dropped.
func (t *Tables) Acquired(tid int, r Resource) bool {
	t.extend(tid)
	if t.need[tid].Take(r, 1) == 0 {
		return false
	}
	got := t.available.Take(r, 1)
	t.allocation[tid].Increase(r, got)
	return got == 1
}

// Release returns one unit of r held by tid to the available pool and
// clears any need tid still has recorded for r. It returns the number of
// units freed, which is 0 if tid did not hold r.
func (t *Tables) Release(tid int, r Resource) uint64 {
	t.extend(tid)
	freed := t.allocation[tid].Take(r, 1)
	t.available.Increase(r, freed)
	t.need[tid].Take(r, All)
	return freed
}

// Held returns one entry per unit held by tid, in Resource order.
func (t *Tables) Held(tid int) []Resource {
	if tid < 0 || tid >= len(t.allocation) {
		return nil
	}
	var units []Resource
	a := &t.allocation[tid]
	for _, r := range a.Resources() {
		for n := a.Get(r); n > 0; n-- {
			units = append(units, r)
		}
	}
	return units
}

// ClearNeed drops every need recorded for tid.
func (t *Tables) ClearNeed(tid int) {
	if tid < 0 || tid >= len(t.need) {
		return
	}
	t.need[tid] = Counter{}
}

// InUse returns true if any thread holds or waits for r.
func (t *Tables) InUse(r Resource) bool {
	for i := range t.allocation {
		if t.allocation[i].Get(r) > 0 {
			return true
		}
	}
	for i := range t.need {
		if t.need[i].Get(r) > 0 {
			return true
		}
	}
	return false
}

// Remove forgets r entirely, typically when its object is destroyed.
//
// Precondition: !t.InUse(r).
func (t *Tables) Remove(r Resource) {
	t.available.Remove(r)
}

// Available returns the number of free units of r.
func (t *Tables) Available(r Resource) uint64 {
	return t.available.Get(r)
}

// Allocation returns the number of units of r held by tid.
func (t *Tables) Allocation(tid int, r Resource) uint64 {
	if tid < 0 || tid >= len(t.allocation) {
		return 0
	}
	return t.allocation[tid].Get(r)
}

// Need returns the number of units of r that tid waits for.
func (t *Tables) Need(tid int, r Resource) uint64 {
	if tid < 0 || tid >= len(t.need) {
		return 0
	}
	return t.need[tid].Get(r)
}

// Threads returns the number of thread rows, i.e. one more than the highest
// tid seen.
func (t *Tables) Threads() int {
	return len(t.allocation)
}

// Check runs the safety check over the current state.
func (t *Tables) Check() Result {
	return CheckSafety(&t.available, t.allocation, t.need)
}

// Safe returns true if the current state is safe.
func (t *Tables) Safe() bool {
	return t.Check().Safe
}

// Snapshot is a plain copy of a Tables, used for inspection and for loading
// states from files.
type Snapshot struct {
	Available        map[Resource]uint64
	Allocation       []map[Resource]uint64
	Need             []map[Resource]uint64
	DetectionEnabled bool
}

func copyCounts(c *Counter) map[Resource]uint64 {
	return deepcopy.Copy(c.counts).(map[Resource]uint64)
}

// Snapshot returns a deep copy of t.
func (t *Tables) Snapshot() Snapshot {
	s := Snapshot{
		Available:        copyCounts(&t.available),
		Allocation:       make([]map[Resource]uint64, len(t.allocation)),
		Need:             make([]map[Resource]uint64, len(t.need)),
		DetectionEnabled: t.detect,
	}
	for i := range t.allocation {
		s.Allocation[i] = copyCounts(&t.allocation[i])
	}
	for i := range t.need {
		s.Need[i] = copyCounts(&t.need[i])
	}
	return s
}

// FromSnapshot builds a Tables holding the state described by s. Zero counts
// in s are dropped.
func FromSnapshot(s Snapshot) *Tables {
	t := &Tables{detect: s.DetectionEnabled}
	for r, n := range s.Available {
		t.available.Increase(r, n)
	}
	rows := len(s.Allocation)
	if len(s.Need) > rows {
		rows = len(s.Need)
	}
	if rows > 0 {
		t.extend(rows - 1)
	}
	for tid, row := range s.Allocation {
		for r, n := range row {
			t.allocation[tid].Increase(r, n)
		}
	}
	for tid, row := range s.Need {
		for r, n := range row {
			t.need[tid].Increase(r, n)
		}
	}
	return t
}
