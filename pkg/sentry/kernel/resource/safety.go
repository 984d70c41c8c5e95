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

// Result is the outcome of a safety check.
type Result struct {
	// Safe is true if every thread can run to completion.
	Safe bool

	// Order lists, in completion order, the threads the check was able to
	// finish. Threads that neither hold nor need anything are omitted.
	Order []int

	// Deadlocked lists, in ascending order, the threads that could not be
	// finished. It is empty iff Safe.
	Deadlocked []int
}

// row returns rows[tid], or an empty Counter if tid has no row.
func row(rows []Counter, tid int) *Counter {
	if tid < len(rows) {
		return &rows[tid]
	}
	return &Counter{}
}

// CheckSafety runs the Banker's algorithm safety check.
//
// Starting from the available units, it repeatedly looks for an unfinished
// thread whose whole need can be satisfied, pretends that thread runs to
// completion and returns everything it holds, and marks it finished. The
// state is safe iff every thread holding or needing something finishes.
// Threads are scanned in ascending tid order; the outcome does not depend on
// the order, only Result.Order does.
//
// The cost is O(threads² × resources).
func CheckSafety(available *Counter, allocation, need []Counter) Result {
	threads := len(allocation)
	if len(need) > threads {
		threads = len(need)
	}

	work := available.Clone()
	finish := make([]bool, threads)
	pending := 0
	for tid := 0; tid < threads; tid++ {
		if row(allocation, tid).Empty() && row(need, tid).Empty() {
			finish[tid] = true
			continue
		}
		pending++
	}

	var res Result
	for pending > 0 {
		progress := false
		for tid := 0; tid < threads; tid++ {
			if finish[tid] || !work.Covers(row(need, tid)) {
				continue
			}
			work.AddAll(row(allocation, tid))
			finish[tid] = true
			pending--
			progress = true
			res.Order = append(res.Order, tid)
		}
		if !progress {
			break
		}
	}

	for tid, done := range finish {
		if !done {
			res.Deadlocked = append(res.Deadlocked, tid)
		}
	}
	res.Safe = len(res.Deadlocked) == 0
	return res
}
