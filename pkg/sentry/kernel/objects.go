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
	"github.com/google/btree"
)

// objectTable is a growable array of optional objects addressed by slot
// index. Freed slots are reused, lowest index first, before the array grows,
// so indices stay small under create/destroy churn.
//
// objectTable is not synchronized; the owning Process's lock protects it.
type objectTable[T any] struct {
	slots []objectSlot[T]

	// free holds the indices of the unused slots below len(slots).
	free *btree.BTreeG[int]
}

type objectSlot[T any] struct {
	obj  T
	used bool
}

func lessInt(a, b int) bool {
	return a < b
}

// add stores obj and returns its index.
func (ot *objectTable[T]) add(obj T) int {
	if ot.free != nil {
		if id, ok := ot.free.DeleteMin(); ok {
			ot.slots[id] = objectSlot[T]{obj: obj, used: true}
			return id
		}
	}
	ot.slots = append(ot.slots, objectSlot[T]{obj: obj, used: true})
	return len(ot.slots) - 1
}

// get returns the object at id, if the slot is in use.
func (ot *objectTable[T]) get(id int) (T, bool) {
	if id < 0 || id >= len(ot.slots) || !ot.slots[id].used {
		var zero T
		return zero, false
	}
	return ot.slots[id].obj, true
}

// remove empties the slot at id and returns the object it held.
func (ot *objectTable[T]) remove(id int) (T, bool) {
	obj, ok := ot.get(id)
	if !ok {
		return obj, false
	}
	ot.slots[id] = objectSlot[T]{}
	if ot.free == nil {
		ot.free = btree.NewG[int](2, lessInt)
	}
	ot.free.ReplaceOrInsert(id)
	return obj, true
}

// len returns the number of slots in use.
func (ot *objectTable[T]) len() int {
	n := len(ot.slots)
	if ot.free != nil {
		n -= ot.free.Len()
	}
	return n
}

// capacity returns the number of slots, used or not.
func (ot *objectTable[T]) capacity() int {
	return len(ot.slots)
}

// forEach calls fn for every object in index order.
func (ot *objectTable[T]) forEach(fn func(id int, obj T)) {
	for id, s := range ot.slots {
		if s.used {
			fn(id, s.obj)
		}
	}
}
