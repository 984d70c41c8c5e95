// Copyright 2020 The gVisor Authors.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd.

package sync

import (
	"runtime"
)

// Goyield yields the processor to other goroutines. It is used by spinning
// primitives between failed acquisition attempts.
func Goyield() {
	runtime.Gosched()
}
