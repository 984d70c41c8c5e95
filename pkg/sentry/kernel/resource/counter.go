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
	"math"
	"sort"
	"strconv"
	"strings"
)

// All may be passed to Counter.Take to remove every unit of a resource.
const All = math.MaxUint64

// Counter is a sparse multiset of resource units. A resource without an
// entry has a count of zero; counts never go negative.
//
// The zero value is an empty Counter ready for use.
type Counter struct {
	counts map[Resource]uint64
}

// Increase adds n units of r.
func (c *Counter) Increase(r Resource, n uint64) {
	if n == 0 {
		return
	}
	if c.counts == nil {
		c.counts = make(map[Resource]uint64)
	}
	c.counts[r] += n
}

// Take removes up to n units of r and returns the number removed, which is
// min(n, c.Get(r)). Passing All clears r.
func (c *Counter) Take(r Resource, n uint64) uint64 {
	cur := c.counts[r]
	if n >= cur {
		delete(c.counts, r)
		return cur
	}
	c.counts[r] = cur - n
	return n
}

// Get returns the number of units of r.
func (c *Counter) Get(r Resource) uint64 {
	return c.counts[r]
}

// Remove drops r entirely and returns the number of units it had.
func (c *Counter) Remove(r Resource) uint64 {
	return c.Take(r, All)
}

// Len returns the number of resources with a non-zero count.
func (c *Counter) Len() int {
	return len(c.counts)
}

// Empty returns true if c holds no units at all.
func (c *Counter) Empty() bool {
	return len(c.counts) == 0
}

// Resources returns the resources with a non-zero count, in Resource order.
func (c *Counter) Resources() []Resource {
	rs := make([]Resource, 0, len(c.counts))
	for r := range c.counts {
		rs = append(rs, r)
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].Less(rs[j]) })
	return rs
}

// Clone returns an independent copy of c.
func (c *Counter) Clone() Counter {
	var cp Counter
	for r, n := range c.counts {
		cp.Increase(r, n)
	}
	return cp
}

// Covers returns true if c has at least as many units as o of every
// resource.
func (c *Counter) Covers(o *Counter) bool {
	for r, n := range o.counts {
		if c.counts[r] < n {
			return false
		}
	}
	return true
}

// AddAll adds every unit of o to c.
func (c *Counter) AddAll(o *Counter) {
	for r, n := range o.counts {
		c.Increase(r, n)
	}
}

// String implements fmt.Stringer.String.
func (c *Counter) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, r := range c.Resources() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.String())
		b.WriteByte('=')
		b.WriteString(strconv.FormatUint(c.counts[r], 10))
	}
	b.WriteByte('}')
	return b.String()
}
